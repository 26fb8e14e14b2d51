package pci

import (
	"os"
	"path/filepath"

	"github.com/prometheus/procfs/sysfs"
	log "github.com/sirupsen/logrus"

	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
)

// Enumerate lists network and wireless class devices under sysfsRoot and
// resolves their names through catalog. Any failure yields an empty table.
func Enumerate(sysfsRoot string, catalog *Catalog) Table {
	fs, err := sysfs.NewFS(sysfsRoot)
	if err != nil {
		log.Warnf("open sysfs %s: %v", sysfsRoot, err)
		return Table{}
	}
	devs, err := fs.PciDevices()
	if err != nil {
		log.Warnf("could not enumerate pci devices: %v", err)
		return Table{}
	}
	driverOf := func(name string) string {
		link, err := os.Readlink(filepath.Join(sysfsRoot, "bus", "pci", "devices", name, "driver"))
		if err != nil {
			return ""
		}
		return filepath.Base(link)
	}
	list := make([]sysfs.PciDevice, 0, len(devs))
	for _, d := range devs {
		list = append(list, d)
	}
	return buildTable(list, catalog, driverOf)
}

func buildTable(devs []sysfs.PciDevice, catalog *Catalog, driverOf func(string) string) Table {
	t := Table{}
	for _, d := range devs {
		class := uint8(d.Class >> 16)
		if class != ClassNetwork && class != ClassWireless {
			continue
		}
		bus, dev, fn := uint8(d.Location.Bus), uint8(d.Location.Device), uint8(d.Location.Function)
		subVendor, subDevice := uint16(d.SubsystemVendor), uint16(d.SubsystemDevice)
		info := &model.PciDeviceInfo{
			VendorID:        uint16(d.Vendor),
			DeviceID:        uint16(d.Device),
			SubsystemVendor: &subVendor,
			SubsystemDevice: &subDevice,
			Class:           class,
			Subclass:        uint8(d.Class >> 8),
			Revision:        uint8(d.Revision),
			Bus:             &bus,
			Device:          &dev,
			Function:        &fn,
			Driver:          driverOf(d.Name()),
		}
		info.VendorName = catalog.VendorName(info.VendorID)
		info.DeviceName = catalog.DeviceName(info.VendorID, info.DeviceID)
		t[info.Address()] = info
	}
	log.Debugf("pci table holds %d network devices", len(t))
	return t
}
