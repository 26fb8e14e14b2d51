package pci

import (
	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
)

const (
	ClassNetwork  = 0x02
	ClassWireless = 0x0d
)

// Table maps canonical BB:DD.F addresses to devices. It is immutable once
// built.
type Table map[string]*model.PciDeviceInfo

func (t Table) Lookup(addr string) *model.PciDeviceInfo {
	if t == nil || addr == "" {
		return nil
	}
	return t[addr]
}
