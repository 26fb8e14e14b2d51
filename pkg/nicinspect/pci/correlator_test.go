package pci

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alibaba/nicinspect/pkg/nicinspect/errdefs"
	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
)

func TestParseAddress(t *testing.T) {
	testcases := []struct {
		in       string
		expected string
		ok       bool
	}{
		{"0000:3b:00.1", "3b:00.1", true},
		{"pci@0000:af:1f.7", "af:1f.7", true},
		{"3b:00.0", "3b:00.0", true},
		{"00:1F.6", "00:1f.6", true},
		{"", "", false},
		{"tap", "", false},
		{"usb-0000:00:14.0-1", "", false},
		{"0000:3b:00", "", false},
		{"0000:3b:00.1.2", "", false},
		{"0000:zz:00.1", "", false},
		{"0000:100:00.1", "", false},
		{"virtio0", "", false},
	}
	for _, c := range testcases {
		t.Run(c.in, func(t *testing.T) {
			addr, err := ParseAddress(c.in)
			if !c.ok {
				assert.ErrorIs(t, err, errdefs.ErrParseFailure)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.expected, addr)
		})
	}
}

type sysfsFixture struct {
	root string
}

func newSysfsFixture(t *testing.T) *sysfsFixture {
	return &sysfsFixture{root: t.TempDir()}
}

func (f *sysfsFixture) uevent(t *testing.T, ifname, content string) {
	dir := filepath.Join(f.root, "class", "net", ifname, "device")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "uevent"), []byte(content), 0o644))
}

func (f *sysfsFixture) link(t *testing.T, ifname, addr string) {
	target := filepath.Join(f.root, "devices", "pci0000:00", addr)
	require.NoError(t, os.MkdirAll(target, 0o755))
	dir := filepath.Join(f.root, "class", "net", ifname)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "device")))
}

func pciAt(bus, dev, fn uint8, name string) *model.PciDeviceInfo {
	return &model.PciDeviceInfo{VendorID: 0x8086, DeviceName: name, Bus: &bus, Device: &dev, Function: &fn}
}

func testTable() Table {
	t := Table{}
	for _, p := range []*model.PciDeviceInfo{
		pciAt(0x3b, 0, 0, "port0"),
		pciAt(0x3b, 0, 1, "port1"),
		pciAt(0x02, 0, 0, "wifi"),
		pciAt(0x05, 0, 0, "inventory"),
	} {
		t[p.Address()] = p
	}
	return t
}

func TestCorrelatorStrategies(t *testing.T) {
	fx := newSysfsFixture(t)
	fx.uevent(t, "eth1", "DRIVER=ixgbe\nPCI_CLASS=20000\nPCI_SLOT_NAME=0000:3b:00.1\nMODALIAS=pci:v00008086\n")
	fx.link(t, "wlan0", "0000:02:00.0")
	fx.uevent(t, "veth0", "DRIVER=veth\n")

	inventory := func(name string) string {
		if name == "eno5" {
			return "0000:05:00.0"
		}
		return ""
	}
	c := NewCorrelator(testTable(), DefaultStrategies(fx.root, inventory))

	testcases := []struct {
		name     string
		rec      *model.InterfaceRecord
		expected string
	}{
		{"bus info", &model.InterfaceRecord{Name: "eth0", Driver: &model.DriverInfo{BusInfo: "0000:3b:00.0"}}, "port0"},
		{"uevent after bad bus info", &model.InterfaceRecord{Name: "eth1", Driver: &model.DriverInfo{BusInfo: "N/A"}}, "port1"},
		{"uevent without driver info", &model.InterfaceRecord{Name: "eth1"}, "port1"},
		{"device symlink", &model.InterfaceRecord{Name: "wlan0"}, "wifi"},
		{"inventory", &model.InterfaceRecord{Name: "eno5"}, "inventory"},
		{"sysfs skipped in namespace", &model.InterfaceRecord{Name: "eth1", Namespace: "blue"}, ""},
		{"bus info in namespace", &model.InterfaceRecord{Name: "eth1", Namespace: "blue", Driver: &model.DriverInfo{BusInfo: "pci@0000:3b:00.0"}}, "port0"},
		{"inventory skipped in namespace", &model.InterfaceRecord{Name: "eno5", Namespace: "blue"}, ""},
		{"uevent without slot", &model.InterfaceRecord{Name: "veth0"}, ""},
		{"unknown address", &model.InterfaceRecord{Name: "eth9", Driver: &model.DriverInfo{BusInfo: "0000:99:00.0"}}, ""},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Correlate(tc.rec)
			if tc.expected == "" {
				assert.Nil(t, got.PCI)
				return
			}
			require.NotNil(t, got.PCI)
			assert.Equal(t, tc.expected, got.PCI.DeviceName)
		})
	}
}

func TestCorrelatorOrder(t *testing.T) {
	fx := newSysfsFixture(t)
	fx.uevent(t, "eth0", "PCI_SLOT_NAME=0000:3b:00.1\n")

	c := NewCorrelator(testTable(), DefaultStrategies(fx.root, nil))
	rec := c.Correlate(&model.InterfaceRecord{Name: "eth0", Driver: &model.DriverInfo{BusInfo: "0000:3b:00.0"}})
	require.NotNil(t, rec.PCI)
	assert.Equal(t, "port0", rec.PCI.DeviceName)
}

func TestCorrelatorUniqueKey(t *testing.T) {
	c := NewCorrelator(testTable(), DefaultStrategies(t.TempDir(), nil))
	a := c.Correlate(&model.InterfaceRecord{Name: "a", Driver: &model.DriverInfo{BusInfo: "pci@0000:3b:00.0"}})
	b := c.Correlate(&model.InterfaceRecord{Name: "b", Driver: &model.DriverInfo{BusInfo: "3b:00.0"}})
	assert.Same(t, a.PCI, b.PCI)
}

func TestTableLookup(t *testing.T) {
	var nilTable Table
	assert.Nil(t, nilTable.Lookup("3b:00.0"))
	assert.Nil(t, testTable().Lookup(""))
}
