package collector

import (
	"fmt"

	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
)

// MediaStrategy describes the media of an interface or reports that its
// source has nothing to say.
type MediaStrategy func(ifname string) (string, bool)

// ResolveMedia tries each strategy in order and returns the first answer, or
// model.MediaUnknown.
func ResolveMedia(ifname string, chain ...MediaStrategy) string {
	for _, s := range chain {
		if m, ok := s(ifname); ok && m != "" {
			return m
		}
	}
	return model.MediaUnknown
}

// Values of the ethtool_cmd port field.
const (
	PortTP    = 0x00
	PortAUI   = 0x01
	PortBNC   = 0x02
	PortMII   = 0x03
	PortFIBRE = 0x04
)

func PortName(port uint8) string {
	switch port {
	case PortTP:
		return "TP"
	case PortAUI:
		return "AUI"
	case PortBNC:
		return "BNC"
	case PortMII:
		return "MII"
	case PortFIBRE:
		return "FIBRE"
	}
	return "unknown"
}

func speedKnown(speed uint32) bool {
	return speed != 0 && speed != 0xffff && speed != 0xffffffff
}

func duplexName(duplex uint8) string {
	switch duplex {
	case 0x00:
		return "half"
	case 0x01:
		return "full"
	}
	return "unknown"
}

// FormatMedia renders legacy link settings.
func FormatMedia(port uint8, speed uint32, duplex uint8) string {
	if !speedKnown(speed) {
		return fmt.Sprintf("%s (unknown speed)", PortName(port))
	}
	return fmt.Sprintf("%s %dMb/s %s", PortName(port), speed, duplexName(duplex))
}
