package collector

import (
	"net"
	"os/exec"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/route"
	"golang.org/x/sys/unix"

	"github.com/alibaba/nicinspect/pkg/nicinspect/errdefs"
	"github.com/alibaba/nicinspect/pkg/nicinspect/ifreq"
	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
)

type darwinBackend struct {
	fd int

	driversOnce sync.Once
	drivers     map[string]*model.DriverInfo

	countersOnce sync.Once
	counters     map[string]*model.Counters
}

func NewPlatformBackend(_ Options) (PlatformBackend, error) {
	fd, err := openQuerySocket()
	if err != nil {
		return nil, err
	}
	return &darwinBackend{fd: fd}, nil
}

func (b *darwinBackend) Close() error {
	return unix.Close(b.fd)
}

func (b *darwinBackend) FlagTable() ifreq.FlagTable {
	return ifreq.BSDFlags
}

// interfaceRIB dumps the live interface and address messages.
func interfaceRIB() ([]route.Message, error) {
	rib, err := route.FetchRIB(syscall.AF_UNSPEC, route.RIBTypeInterface, 0)
	if err != nil {
		return nil, errors.Wrap(errdefs.Classify(err), "fetch interface rib")
	}
	msgs, err := route.ParseRIB(route.RIBTypeInterface, rib)
	if err != nil {
		return nil, errors.Wrap(errdefs.ErrParseFailure, err.Error())
	}
	return msgs, nil
}

func interfaceMessage(msgs []route.Message, name string) *route.InterfaceMessage {
	for _, m := range msgs {
		if im, ok := m.(*route.InterfaceMessage); ok && im.Name == name {
			return im
		}
	}
	return nil
}

func (b *darwinBackend) lookup(name string) (*route.InterfaceMessage, []route.Message, error) {
	msgs, err := interfaceRIB()
	if err != nil {
		return nil, nil, err
	}
	im := interfaceMessage(msgs, name)
	if im == nil {
		return nil, nil, errors.Wrapf(errdefs.ErrNotFound, "interface %s", name)
	}
	return im, msgs, nil
}

func (b *darwinBackend) Flags(name string) (uint32, error) {
	im, _, err := b.lookup(name)
	if err != nil {
		return 0, err
	}
	return uint32(im.Flags), nil
}

func (b *darwinBackend) HardwareAddr(name string) (string, error) {
	im, _, err := b.lookup(name)
	if err != nil {
		return "", err
	}
	if len(im.Addrs) > syscall.RTAX_IFP {
		if la, ok := im.Addrs[syscall.RTAX_IFP].(*route.LinkAddr); ok && len(la.Addr) > 0 {
			return net.HardwareAddr(la.Addr).String(), nil
		}
	}
	return "", nil
}

func (b *darwinBackend) ioctl(req uint, r *ifreq.Request) error {
	return errdefs.Classify(ifreq.Ioctl(b.fd, req, r.Pointer(), r))
}

func (b *darwinBackend) MTU(name string) (int, error) {
	r := ifreq.DarwinLayout.New(name)
	if err := b.ioctl(unix.SIOCGIFMTU, r); err != nil {
		return 0, errors.Wrap(err, "SIOCGIFMTU")
	}
	return int(r.Int32()), nil
}

func (b *darwinBackend) Metric(name string) (int, error) {
	r := ifreq.DarwinLayout.New(name)
	if err := b.ioctl(unix.SIOCGIFMETRIC, r); err != nil {
		return 0, errors.Wrap(err, "SIOCGIFMETRIC")
	}
	return int(r.Int32()), nil
}

func routeIP(a route.Addr) (net.IP, bool) {
	switch v := a.(type) {
	case *route.Inet4Addr:
		return net.IPv4(v.IP[0], v.IP[1], v.IP[2], v.IP[3]).To4(), true
	case *route.Inet6Addr:
		ip := make(net.IP, net.IPv6len)
		copy(ip, v.IP[:])
		return ip, true
	}
	return nil, false
}

func (b *darwinBackend) Addresses(name string) ([]AddrEntry, error) {
	im, msgs, err := b.lookup(name)
	if err != nil {
		return nil, err
	}
	var entries []AddrEntry
	for _, m := range msgs {
		am, ok := m.(*route.InterfaceAddrMessage)
		if !ok || am.Index != im.Index || len(am.Addrs) <= syscall.RTAX_IFA {
			continue
		}
		ip, ok := routeIP(am.Addrs[syscall.RTAX_IFA])
		if !ok {
			continue
		}
		e := AddrEntry{IP: ip}
		if mask, ok := routeIP(am.Addrs[syscall.RTAX_NETMASK]); ok {
			e.Mask = net.IPMask(mask)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (b *darwinBackend) DriverInfo(name string) (*model.DriverInfo, error) {
	b.driversOnce.Do(func() {
		out, err := exec.Command("ioreg", "-l", "-w0", "-p", "IOService").Output()
		if err != nil {
			log.Debugf("ioreg: %v", err)
			return
		}
		b.drivers = ParseIoregDrivers(string(out))
	})
	return b.drivers[name], nil
}

func (b *darwinBackend) mediaRequest(fd int, name string) (*ifreq.MediaRequest, error) {
	m := ifreq.NewMediaRequest(name)
	if err := ifreq.Ioctl(fd, unix.SIOCGIFMEDIA, m.Pointer(), m); err != nil {
		return nil, err
	}
	return m, nil
}

// LinkDetected asks SIOCGIFMEDIA. Some virtual and wireless drivers only
// answer it on particular socket families, so a failed ioctl is retried on
// AF_INET6 and AF_UNIX sockets before falling back to IFF_RUNNING.
func (b *darwinBackend) LinkDetected(name string) (bool, error) {
	m, err := b.mediaRequest(b.fd, name)
	if err != nil {
		for _, family := range []int{unix.AF_INET6, unix.AF_UNIX} {
			fd, serr := openSocket(family)
			if serr != nil {
				continue
			}
			m, err = b.mediaRequest(fd, name)
			unix.Close(fd)
			if err == nil {
				break
			}
		}
	}
	if err == nil {
		return m.LinkActive(), nil
	}
	flags, ferr := b.Flags(name)
	if ferr != nil {
		return false, ferr
	}
	return flags&ifreq.FlagRunning != 0, nil
}

func networksetupMedia(name string) (string, bool) {
	out, err := exec.Command("networksetup", "-getMedia", name).Output()
	if err != nil {
		return "", false
	}
	return ParseNetworksetupMedia(string(out))
}

func (b *darwinBackend) Media(name string) (string, error) {
	return ResolveMedia(name, networksetupMedia), nil
}

func (b *darwinBackend) Rings(string) (*model.Rings, error) {
	return nil, errors.Wrap(errdefs.ErrUnsupported, "rings")
}

func (b *darwinBackend) Channels(string) (*model.Channels, error) {
	return nil, errors.Wrap(errdefs.ErrUnsupported, "channels")
}

func (b *darwinBackend) Features(string) ([]string, error) {
	return nil, errors.Wrap(errdefs.ErrUnsupported, "features")
}

func (b *darwinBackend) AltName(string) (string, error) {
	return "", nil
}

func (b *darwinBackend) Counters(name string) (*model.Counters, error) {
	b.countersOnce.Do(func() {
		out, err := exec.Command("netstat", "-ibn").Output()
		if err != nil {
			log.Debugf("netstat: %v", err)
			return
		}
		b.counters = ParseNetstatCounters(string(out))
	})
	if c, ok := b.counters[name]; ok {
		return c, nil
	}
	return &model.Counters{}, nil
}
