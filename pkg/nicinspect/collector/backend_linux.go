package collector

import (
	"runtime"
	"sort"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/prometheus/procfs"
	"github.com/safchain/ethtool"
	log "github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/alibaba/nicinspect/pkg/nicinspect/errdefs"
	"github.com/alibaba/nicinspect/pkg/nicinspect/ethtoolnl"
	"github.com/alibaba/nicinspect/pkg/nicinspect/ifreq"
	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
)

type linuxBackend struct {
	fd         int
	nlh        *netlink.Handle
	ethnl      *ethtoolnl.Client
	legacy     *ethtool.Ethtool
	procfsRoot string
}

// NewPlatformBackend opens the ioctl socket, a route netlink handle, the
// ethtool netlink client and the legacy ethtool socket. Only the ioctl
// socket is mandatory.
func NewPlatformBackend(opts Options) (PlatformBackend, error) {
	fd, err := openQuerySocket()
	if err != nil {
		return nil, err
	}
	b := &linuxBackend{fd: fd, procfsRoot: opts.procfsRoot()}

	if b.nlh, err = netlink.NewHandle(); err != nil {
		log.Debugf("route netlink unavailable, using ioctl flags: %v", err)
		b.nlh = nil
	}
	if b.ethnl, err = ethtoolnl.Dial(); err != nil {
		log.Debugf("ethtool netlink unavailable: %v", err)
		b.ethnl = nil
	}
	if b.legacy, err = ethtool.NewEthtool(); err != nil {
		log.Debugf("legacy ethtool unavailable: %v", err)
		b.legacy = nil
	}
	return b, nil
}

func (b *linuxBackend) Close() error {
	if b.nlh != nil {
		b.nlh.Close()
	}
	if b.ethnl != nil {
		b.ethnl.Close()
	}
	if b.legacy != nil {
		b.legacy.Close()
	}
	return unix.Close(b.fd)
}

func (b *linuxBackend) FlagTable() ifreq.FlagTable {
	return ifreq.LinuxFlags
}

func (b *linuxBackend) ioctl(req uint, r *ifreq.Request) error {
	return errdefs.Classify(ifreq.Ioctl(b.fd, req, r.Pointer(), r))
}

func (b *linuxBackend) link(name string) (netlink.Link, error) {
	l, err := b.nlh.LinkByName(name)
	if err != nil {
		var nf netlink.LinkNotFoundError
		if errors.As(err, &nf) {
			return nil, errors.Wrap(errdefs.ErrNotFound, err.Error())
		}
		return nil, errdefs.Classify(err)
	}
	return l, nil
}

func (b *linuxBackend) ioctlFlags(name string) (uint32, error) {
	r := ifreq.LinuxLayout.New(name)
	if err := b.ioctl(unix.SIOCGIFFLAGS, r); err != nil {
		return 0, errors.Wrap(err, "SIOCGIFFLAGS")
	}
	return uint32(r.Flags()), nil
}

func (b *linuxBackend) netlinkFlags(name string) (uint32, error) {
	l, err := b.link(name)
	if err != nil {
		return 0, err
	}
	return l.Attrs().RawFlags, nil
}

func (b *linuxBackend) Flags(name string) (uint32, error) {
	if b.nlh == nil {
		return b.ioctlFlags(name)
	}
	return resolveFlags(name, b.netlinkFlags, b.ioctlFlags)
}

// resolveFlags prefers the netlink answer. A vanished interface is final;
// any other netlink failure is retried through the ioctl.
func resolveFlags(name string, viaNetlink, viaIoctl func(string) (uint32, error)) (uint32, error) {
	flags, err := viaNetlink(name)
	if err == nil || errors.Is(err, errdefs.ErrNotFound) {
		return flags, err
	}
	log.WithField("interface", name).Debugf("netlink flags: %v, retrying with ioctl", err)
	return viaIoctl(name)
}

func (b *linuxBackend) HardwareAddr(name string) (string, error) {
	r := ifreq.LinuxLayout.New(name)
	if err := b.ioctl(unix.SIOCGIFHWADDR, r); err != nil {
		return "", errors.Wrap(err, "SIOCGIFHWADDR")
	}
	return r.HardwareAddr().String(), nil
}

func (b *linuxBackend) MTU(name string) (int, error) {
	r := ifreq.LinuxLayout.New(name)
	if err := b.ioctl(unix.SIOCGIFMTU, r); err != nil {
		return 0, errors.Wrap(err, "SIOCGIFMTU")
	}
	return int(r.Int32()), nil
}

func (b *linuxBackend) Metric(name string) (int, error) {
	r := ifreq.LinuxLayout.New(name)
	if err := b.ioctl(unix.SIOCGIFMETRIC, r); err != nil {
		return 0, errors.Wrap(err, "SIOCGIFMETRIC")
	}
	return int(r.Int32()), nil
}

func (b *linuxBackend) Addresses(name string) ([]AddrEntry, error) {
	if b.nlh == nil {
		return nil, errors.Wrap(errdefs.ErrUnsupported, "route netlink")
	}
	l, err := b.link(name)
	if err != nil {
		return nil, err
	}
	addrs, err := b.nlh.AddrList(l, netlink.FAMILY_ALL)
	if err != nil {
		return nil, errors.Wrap(errdefs.Classify(err), "list addresses")
	}
	entries := make([]AddrEntry, 0, len(addrs))
	for _, a := range addrs {
		if a.IPNet == nil {
			continue
		}
		entries = append(entries, AddrEntry{IP: a.IP, Mask: a.Mask})
	}
	return entries, nil
}

func (b *linuxBackend) DriverInfo(name string) (*model.DriverInfo, error) {
	buf := ifreq.NewDrvInfoBuffer()
	r := ifreq.LinuxLayout.New(name)
	r.SetData(uintptr(unsafe.Pointer(&buf[0])))
	if err := errdefs.Classify(ifreq.Ioctl(b.fd, unix.SIOCETHTOOL, r.Pointer(), r, buf)); err != nil {
		return nil, errors.Wrap(err, "ETHTOOL_GDRVINFO")
	}
	info, err := ifreq.DecodeDrvInfo(buf)
	if err != nil {
		return nil, errors.Wrap(errdefs.ErrParseFailure, err.Error())
	}
	return &model.DriverInfo{
		Driver:  info.Driver,
		Version: info.Version,
		BusInfo: info.BusInfo,
	}, nil
}

func (b *linuxBackend) LinkDetected(name string) (bool, error) {
	if b.ethnl != nil {
		up, err := b.ethnl.LinkState(name)
		if err == nil {
			return up, nil
		}
		log.WithField("interface", name).Debugf("ethtool link state: %v", err)
	}
	flags, err := b.ioctlFlags(name)
	if err != nil {
		return false, err
	}
	return flags&ifreq.FlagRunning != 0, nil
}

func (b *linuxBackend) netlinkMedia(name string) (string, bool) {
	if b.ethnl == nil {
		return "", false
	}
	m, err := b.ethnl.LinkMode(name)
	if err != nil {
		return "", false
	}
	return m.Describe(), true
}

func (b *linuxBackend) legacyMedia(name string) (string, bool) {
	if b.legacy == nil {
		return "", false
	}
	var cmd ethtool.EthtoolCmd
	if _, err := b.legacy.CmdGet(&cmd, name); err != nil {
		return "", false
	}
	speed := uint32(cmd.Speed_hi)<<16 | uint32(cmd.Speed)
	return FormatMedia(cmd.Port, speed, cmd.Duplex), true
}

func (b *linuxBackend) Media(name string) (string, error) {
	return ResolveMedia(name, b.netlinkMedia, b.legacyMedia), nil
}

func (b *linuxBackend) Rings(name string) (*model.Rings, error) {
	if b.ethnl != nil {
		r, err := b.ethnl.Rings(name)
		if err == nil || !errors.Is(err, errdefs.ErrUnsupported) {
			return r, err
		}
	}
	if b.legacy != nil {
		r, err := b.legacy.GetRing(name)
		if err == nil {
			return &model.Rings{RX: r.RxPending, TX: r.TxPending}, nil
		}
	}
	return &model.Rings{}, nil
}

func (b *linuxBackend) Channels(name string) (*model.Channels, error) {
	if b.ethnl != nil {
		c, err := b.ethnl.Channels(name)
		if err == nil || !errors.Is(err, errdefs.ErrUnsupported) {
			return c, err
		}
	}
	if b.legacy != nil {
		c, err := b.legacy.GetChannels(name)
		if err == nil {
			return &model.Channels{RX: c.RxCount, TX: c.TxCount, Other: c.OtherCount, Combined: c.CombinedCount}, nil
		}
	}
	return &model.Channels{}, nil
}

func (b *linuxBackend) Features(name string) ([]string, error) {
	if b.ethnl != nil {
		f, err := b.ethnl.ActiveFeatures(name)
		if err == nil || !errors.Is(err, errdefs.ErrUnsupported) {
			return f, err
		}
	}
	if b.legacy != nil {
		all, err := b.legacy.Features(name)
		if err == nil {
			return activeFeatures(all), nil
		}
	}
	return nil, nil
}

// activeFeatures canonicalizes the enabled entries of a legacy feature map in
// name order.
func activeFeatures(all map[string]bool) []string {
	var names []string
	for n, on := range all {
		if on {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	for i, n := range names {
		names[i] = ethtoolnl.CanonicalFeature(n)
	}
	return names
}

func (b *linuxBackend) AltName(name string) (string, error) {
	if b.nlh == nil {
		return "", errors.Wrap(errdefs.ErrUnsupported, "route netlink")
	}
	l, err := b.link(name)
	if err != nil {
		return "", err
	}
	if alt := l.Attrs().AltNames; len(alt) > 0 {
		return alt[0], nil
	}
	return "", nil
}

// Counters reads /proc/<tid>/net/dev, the view of the calling thread's
// namespace.
func (b *linuxBackend) Counters(name string) (*model.Counters, error) {
	return onLockedThread(func(tid int) (*model.Counters, error) {
		return readCounters(b.procfsRoot, tid, name)
	})
}

// onLockedThread runs fn with the id of the current thread, pinned for the
// duration of the call so another goroutine cannot move that thread into a
// different namespace in between.
func onLockedThread(fn func(tid int) (*model.Counters, error)) (*model.Counters, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	return fn(unix.Gettid())
}

func readCounters(procfsRoot string, tid int, name string) (*model.Counters, error) {
	fs, err := procfs.NewFS(procfsRoot)
	if err != nil {
		return nil, errors.Wrap(errdefs.Classify(err), "open procfs")
	}
	p, err := fs.Proc(tid)
	if err != nil {
		return nil, errors.Wrap(errdefs.Classify(err), "open proc entry")
	}
	dev, err := p.NetDev()
	if err != nil {
		return nil, errors.Wrap(errdefs.Classify(err), "read net/dev")
	}
	line, ok := dev[name]
	if !ok {
		return &model.Counters{}, nil
	}
	return &model.Counters{
		RxBytes:   line.RxBytes,
		RxPackets: line.RxPackets,
		TxBytes:   line.TxBytes,
		TxPackets: line.TxPackets,
	}, nil
}
