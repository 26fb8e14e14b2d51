package pci

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jaypipes/ghw"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/alibaba/nicinspect/pkg/nicinspect/errdefs"
	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
)

const slotNameKey = "PCI_SLOT_NAME="

// ParseAddress turns a bus-info string such as "pci@0000:3b:00.1" or
// "0000:3b:00.1" into the canonical "3b:00.1" key.
func ParseAddress(busInfo string) (string, error) {
	s := strings.TrimPrefix(strings.TrimSpace(busInfo), "pci@")
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return "", errors.Wrapf(errdefs.ErrParseFailure, "bus info %q", busInfo)
	}
	devFunc := strings.Split(parts[len(parts)-1], ".")
	if len(devFunc) != 2 {
		return "", errors.Wrapf(errdefs.ErrParseFailure, "bus info %q", busInfo)
	}
	bus, err := strconv.ParseUint(parts[len(parts)-2], 16, 8)
	if err != nil {
		return "", errors.Wrapf(errdefs.ErrParseFailure, "bus in %q", busInfo)
	}
	dev, err := strconv.ParseUint(devFunc[0], 16, 8)
	if err != nil {
		return "", errors.Wrapf(errdefs.ErrParseFailure, "device in %q", busInfo)
	}
	fn, err := strconv.ParseUint(devFunc[1], 16, 8)
	if err != nil {
		return "", errors.Wrapf(errdefs.ErrParseFailure, "function in %q", busInfo)
	}
	return model.FormatAddress(uint8(bus), uint8(dev), uint8(fn)), nil
}

// AddressStrategy derives a canonical PCI address for an interface.
type AddressStrategy interface {
	Name() string
	Address(rec *model.InterfaceRecord) (string, bool)
}

type busInfoStrategy struct{}

func (busInfoStrategy) Name() string { return "bus-info" }

func (busInfoStrategy) Address(rec *model.InterfaceRecord) (string, bool) {
	if rec.BusInfo() == "" {
		return "", false
	}
	addr, err := ParseAddress(rec.BusInfo())
	if err != nil {
		return "", false
	}
	return addr, true
}

// The sysfs strategies resolve names against the sysfs of the initial
// namespace and therefore skip interfaces of named namespaces.
type ueventStrategy struct {
	sysfsRoot string
}

func (ueventStrategy) Name() string { return "uevent" }

func (s ueventStrategy) Address(rec *model.InterfaceRecord) (string, bool) {
	if rec.Namespace != "" {
		return "", false
	}
	f, err := os.Open(filepath.Join(s.sysfsRoot, "class", "net", rec.Name, "device", "uevent"))
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, slotNameKey) {
			continue
		}
		addr, err := ParseAddress(strings.TrimPrefix(line, slotNameKey))
		if err != nil {
			return "", false
		}
		return addr, true
	}
	return "", false
}

type symlinkStrategy struct {
	sysfsRoot string
}

func (symlinkStrategy) Name() string { return "device-link" }

func (s symlinkStrategy) Address(rec *model.InterfaceRecord) (string, bool) {
	if rec.Namespace != "" {
		return "", false
	}
	target, err := os.Readlink(filepath.Join(s.sysfsRoot, "class", "net", rec.Name, "device"))
	if err != nil {
		return "", false
	}
	addr, err := ParseAddress(filepath.Base(target))
	if err != nil {
		return "", false
	}
	return addr, true
}

// InventoryFunc maps an interface name to the PCI address a hardware
// inventory reports for it.
type InventoryFunc func(ifname string) string

// inventoryStrategy has the same initial namespace restriction.
type inventoryStrategy struct {
	lookup InventoryFunc
}

func (inventoryStrategy) Name() string { return "inventory" }

func (s inventoryStrategy) Address(rec *model.InterfaceRecord) (string, bool) {
	if rec.Namespace != "" || s.lookup == nil {
		return "", false
	}
	raw := s.lookup(rec.Name)
	if raw == "" {
		return "", false
	}
	addr, err := ParseAddress(raw)
	if err != nil {
		return "", false
	}
	return addr, true
}

// GhwInventory snapshots the NIC inventory once. A failing probe yields an
// inventory that knows no interface.
func GhwInventory() InventoryFunc {
	addrs := ghwAddresses()
	return func(ifname string) string {
		return addrs[ifname]
	}
}

func ghwAddresses() map[string]string {
	addrs := map[string]string{}
	info, err := ghw.Network(ghw.WithDisableWarnings())
	if err != nil {
		log.Debugf("ghw network inventory unavailable: %v", err)
		return addrs
	}
	for _, nic := range info.NICs {
		if nic.PCIAddress != nil {
			addrs[nic.Name] = *nic.PCIAddress
		}
	}
	return addrs
}

// DefaultStrategies returns the fallback chain in priority order. inventory
// may be nil to skip the last resort.
func DefaultStrategies(sysfsRoot string, inventory InventoryFunc) []AddressStrategy {
	s := []AddressStrategy{
		busInfoStrategy{},
		ueventStrategy{sysfsRoot: sysfsRoot},
		symlinkStrategy{sysfsRoot: sysfsRoot},
	}
	if inventory != nil {
		s = append(s, inventoryStrategy{lookup: inventory})
	}
	return s
}

type Correlator struct {
	Table      Table
	Strategies []AddressStrategy
}

func NewCorrelator(table Table, strategies []AddressStrategy) *Correlator {
	return &Correlator{Table: table, Strategies: strategies}
}

// Address returns the first address any strategy derives for rec.
func (c *Correlator) Address(rec *model.InterfaceRecord) (string, bool) {
	for _, s := range c.Strategies {
		if addr, ok := s.Address(rec); ok {
			log.WithFields(log.Fields{
				"interface": rec.Handle().String(),
				"strategy":  s.Name(),
				"address":   addr,
			}).Debug("derived pci address")
			return addr, true
		}
	}
	return "", false
}

// Correlate attaches the matching PCI device to rec, if any. An interface
// whose address cannot be derived is left uncorrelated.
func (c *Correlator) Correlate(rec *model.InterfaceRecord) *model.InterfaceRecord {
	addr, ok := c.Address(rec)
	if !ok {
		return rec
	}
	rec.PCI = c.Table.Lookup(addr)
	return rec
}
