package collector

import (
	"net"

	"github.com/alibaba/nicinspect/pkg/nicinspect/ifreq"
	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
)

// AddrEntry is one live address record of an interface.
type AddrEntry struct {
	IP   net.IP
	Mask net.IPMask
}

// PlatformBackend answers per-field queries for the calling thread's
// namespace. Every method fails independently; errors are classified with
// errdefs so that callers can tell a vanished interface from an absent
// mechanism.
type PlatformBackend interface {
	Flags(name string) (uint32, error)
	HardwareAddr(name string) (string, error)
	MTU(name string) (int, error)
	Metric(name string) (int, error)
	Addresses(name string) ([]AddrEntry, error)
	DriverInfo(name string) (*model.DriverInfo, error)
	LinkDetected(name string) (bool, error)
	Media(name string) (string, error)
	Rings(name string) (*model.Rings, error)
	Channels(name string) (*model.Channels, error)
	Features(name string) ([]string, error)
	AltName(name string) (string, error)
	Counters(name string) (*model.Counters, error)
	FlagTable() ifreq.FlagTable
	Close() error
}

type Options struct {
	ProcfsRoot string
}

func (o Options) procfsRoot() string {
	if o.ProcfsRoot == "" {
		return "/proc"
	}
	return o.ProcfsRoot
}

// BackendFactory builds a backend whose sockets live in the calling thread's
// namespace.
type BackendFactory func(opts Options) (PlatformBackend, error)
