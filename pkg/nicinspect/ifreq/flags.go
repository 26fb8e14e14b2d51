package ifreq

import "strings"

// Bits shared by every platform.
const (
	FlagUp      = 0x1
	FlagRunning = 0x40
)

type FlagName struct {
	Bit  uint32
	Name string
}

// FlagTable decodes interface flag words into names, lowest bit first.
type FlagTable []FlagName

var LinuxFlags = FlagTable{
	{0x1, "UP"},
	{0x2, "BROADCAST"},
	{0x4, "DEBUG"},
	{0x8, "LOOPBACK"},
	{0x10, "PTP"},
	{0x20, "NOTRAILERS"},
	{0x40, "RUNNING"},
	{0x80, "NOARP"},
	{0x100, "PROMISC"},
	{0x200, "ALLMULTI"},
	{0x400, "MASTER"},
	{0x800, "SLAVE"},
	{0x1000, "MULTICAST"},
	{0x2000, "PORTSEL"},
	{0x4000, "AUTOMEDIA"},
	{0x8000, "DYNAMIC"},
}

var BSDFlags = FlagTable{
	{0x1, "UP"},
	{0x2, "BROADCAST"},
	{0x4, "DEBUG"},
	{0x8, "LOOPBACK"},
	{0x10, "POINTOPOINT"},
	{0x20, "SMART"},
	{0x40, "RUNNING"},
	{0x80, "NOARP"},
	{0x100, "PROMISC"},
	{0x200, "ALLMULTI"},
	{0x400, "OACTIVE"},
	{0x800, "SIMPLEX"},
	{0x1000, "LINK0"},
	{0x2000, "LINK1"},
	{0x4000, "LINK2"},
	{0x8000, "MULTICAST"},
}

// Decode joins the names of the bits set in the low 16 bits of flags.
func (t FlagTable) Decode(flags uint32) string {
	var names []string
	for _, f := range t {
		if flags&0xffff&f.Bit != 0 {
			names = append(names, f.Name)
		}
	}
	return strings.Join(names, " ")
}
