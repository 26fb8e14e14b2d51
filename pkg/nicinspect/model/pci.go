package model

import "fmt"

// PciDeviceInfo is built once per device and never mutated afterwards.
type PciDeviceInfo struct {
	VendorID        uint16  `json:"vendor_id" yaml:"vendor_id"`
	DeviceID        uint16  `json:"device_id" yaml:"device_id"`
	VendorName      string  `json:"vendor_name,omitempty" yaml:"vendor_name,omitempty"`
	DeviceName      string  `json:"device_name,omitempty" yaml:"device_name,omitempty"`
	SubsystemVendor *uint16 `json:"subsystem_vendor,omitempty" yaml:"subsystem_vendor,omitempty"`
	SubsystemDevice *uint16 `json:"subsystem_device,omitempty" yaml:"subsystem_device,omitempty"`
	Class           uint8   `json:"class" yaml:"class"`
	Subclass        uint8   `json:"subclass" yaml:"subclass"`
	Revision        uint8   `json:"revision" yaml:"revision"`
	Bus             *uint8  `json:"bus,omitempty" yaml:"bus,omitempty"`
	Device          *uint8  `json:"device,omitempty" yaml:"device,omitempty"`
	Function        *uint8  `json:"function,omitempty" yaml:"function,omitempty"`
	Driver          string  `json:"driver,omitempty" yaml:"driver,omitempty"`
}

// FormatAddress renders the canonical BB:DD.F key.
func FormatAddress(bus, device, function uint8) string {
	return fmt.Sprintf("%02x:%02x.%d", bus, device, function)
}

// Address returns the canonical BB:DD.F address, or "" when the location is
// incomplete.
func (p *PciDeviceInfo) Address() string {
	if p.Bus == nil || p.Device == nil || p.Function == nil {
		return ""
	}
	return FormatAddress(*p.Bus, *p.Device, *p.Function)
}

func (p *PciDeviceInfo) ClassName() string {
	switch {
	case p.Class == 0x02 && p.Subclass == 0x00:
		return "Ethernet controller"
	case p.Class == 0x02 && p.Subclass == 0x80:
		return "Network controller"
	case p.Class == 0x0d && p.Subclass == 0x11:
		return "802.1a controller"
	case p.Class == 0x0d && p.Subclass == 0x20:
		return "802.11b controller"
	case p.Class == 0x0d && p.Subclass == 0x80:
		return "Wireless controller"
	}
	return fmt.Sprintf("Class %02x:%02x", p.Class, p.Subclass)
}

// Identity returns "vendor device" when both names resolved, else the
// numeric [vvvv:dddd] pair.
func (p *PciDeviceInfo) Identity() string {
	if p.VendorName != "" && p.DeviceName != "" {
		return p.VendorName + " " + p.DeviceName
	}
	return fmt.Sprintf("[%04x:%04x]", p.VendorID, p.DeviceID)
}
