package model

import "fmt"

// MediaUnknown is reported when no media source answered for an interface.
const MediaUnknown = "unknown"

// NicHandle identifies an interface within one run. An empty Namespace is the
// namespace the process started in.
type NicHandle struct {
	Name      string `json:"name" yaml:"name"`
	Namespace string `json:"netns,omitempty" yaml:"netns,omitempty"`
}

func (h NicHandle) String() string {
	if h.Namespace == "" {
		return h.Name
	}
	return fmt.Sprintf("%s@%s", h.Name, h.Namespace)
}

type IPv4Addr struct {
	Address   string `json:"address" yaml:"address"`
	Netmask   string `json:"netmask" yaml:"netmask"`
	PrefixLen int    `json:"prefixlen" yaml:"prefixlen"`
}

type IPv6Addr struct {
	Address   string `json:"address" yaml:"address"`
	PrefixLen int    `json:"prefixlen" yaml:"prefixlen"`
	Scope     string `json:"scope" yaml:"scope"`
}

type DriverInfo struct {
	Driver  string `json:"driver" yaml:"driver"`
	Version string `json:"version" yaml:"version"`
	BusInfo string `json:"bus_info" yaml:"bus_info"`
}

// Counters are zero when the platform does not report them, which cannot be
// told apart from an idle interface.
type Counters struct {
	RxBytes   uint64 `json:"rx_bytes" yaml:"rx_bytes"`
	RxPackets uint64 `json:"rx_packets" yaml:"rx_packets"`
	TxBytes   uint64 `json:"tx_bytes" yaml:"tx_bytes"`
	TxPackets uint64 `json:"tx_packets" yaml:"tx_packets"`
}

type Rings struct {
	RX uint32 `json:"rx" yaml:"rx"`
	TX uint32 `json:"tx" yaml:"tx"`
}

type Channels struct {
	RX       uint32 `json:"rx" yaml:"rx"`
	TX       uint32 `json:"tx" yaml:"tx"`
	Other    uint32 `json:"other" yaml:"other"`
	Combined uint32 `json:"combined" yaml:"combined"`
}

// InterfaceRecord is everything collected about one interface.
type InterfaceRecord struct {
	Name         string         `json:"name" yaml:"name"`
	Namespace    string         `json:"netns,omitempty" yaml:"netns,omitempty"`
	Up           bool           `json:"up" yaml:"up"`
	LinkDetected bool           `json:"link_detected" yaml:"link_detected"`
	MAC          string         `json:"mac,omitempty" yaml:"mac,omitempty"`
	IPv4         []IPv4Addr     `json:"ipv4,omitempty" yaml:"ipv4,omitempty"`
	IPv6         []IPv6Addr     `json:"ipv6,omitempty" yaml:"ipv6,omitempty"`
	Flags        string         `json:"flags" yaml:"flags"`
	Driver       *DriverInfo    `json:"driver,omitempty" yaml:"driver,omitempty"`
	PCI          *PciDeviceInfo `json:"pci,omitempty" yaml:"pci,omitempty"`
	AltName      string         `json:"altname,omitempty" yaml:"altname,omitempty"`
	MTU          int            `json:"mtu" yaml:"mtu"`
	Metric       int            `json:"metric" yaml:"metric"`
	Media        string         `json:"media" yaml:"media"`
	Counters     *Counters      `json:"counters,omitempty" yaml:"counters,omitempty"`
	Rings        *Rings         `json:"rings,omitempty" yaml:"rings,omitempty"`
	Channels     *Channels      `json:"channels,omitempty" yaml:"channels,omitempty"`
	Features     []string       `json:"features,omitempty" yaml:"features,omitempty"`
}

func (r *InterfaceRecord) Handle() NicHandle {
	return NicHandle{Name: r.Name, Namespace: r.Namespace}
}

// HasMedia reports whether Media carries a real value.
func (r *InterfaceRecord) HasMedia() bool {
	return r.Media != "" && r.Media != MediaUnknown
}

// BusInfo returns the driver reported bus location, or "".
func (r *InterfaceRecord) BusInfo() string {
	if r.Driver == nil {
		return ""
	}
	return r.Driver.BusInfo
}
