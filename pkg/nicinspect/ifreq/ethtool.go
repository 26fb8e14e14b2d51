package ifreq

import (
	"fmt"

	"github.com/mdlayher/netlink/nlenc"
)

// EthtoolGetDrvInfo is ETHTOOL_GDRVINFO.
const EthtoolGetDrvInfo = 0x00000003

// struct ethtool_drvinfo
const (
	DrvInfoSize = 196

	drvInfoStrLen       = 32
	drvInfoDriverOff    = 4
	drvInfoVersionOff   = 36
	drvInfoFwVersionOff = 68
	drvInfoBusInfoOff   = 100
	drvInfoEromOff      = 132
	drvInfoCountersOff  = 176
)

type DrvInfo struct {
	Driver      string
	Version     string
	FwVersion   string
	BusInfo     string
	EromVersion string
	NPrivFlags  uint32
	NStats      uint32
	TestInfoLen uint32
	EEDumpLen   uint32
	RegDumpLen  uint32
}

// NewDrvInfoBuffer returns a zeroed ethtool_drvinfo with cmd set.
func NewDrvInfoBuffer() []byte {
	b := make([]byte, DrvInfoSize)
	nlenc.PutUint32(b[:4], EthtoolGetDrvInfo)
	return b
}

func DecodeDrvInfo(b []byte) (DrvInfo, error) {
	if len(b) < DrvInfoSize {
		return DrvInfo{}, fmt.Errorf("short ethtool_drvinfo, len=%d", len(b))
	}
	str := func(off int) string {
		return cString(b[off : off+drvInfoStrLen])
	}
	u32 := func(i int) uint32 {
		off := drvInfoCountersOff + i*4
		return nlenc.Uint32(b[off : off+4])
	}
	return DrvInfo{
		Driver:      str(drvInfoDriverOff),
		Version:     str(drvInfoVersionOff),
		FwVersion:   str(drvInfoFwVersionOff),
		BusInfo:     str(drvInfoBusInfoOff),
		EromVersion: str(drvInfoEromOff),
		NPrivFlags:  u32(0),
		NStats:      u32(1),
		TestInfoLen: u32(2),
		EEDumpLen:   u32(3),
		RegDumpLen:  u32(4),
	}, nil
}
