// Package collector gathers the attributes of one interface from the
// platform's query mechanisms. Every field is best effort.
package collector

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/alibaba/nicinspect/pkg/nicinspect/errdefs"
	"github.com/alibaba/nicinspect/pkg/nicinspect/ifreq"
	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
)

type Collector struct {
	backend PlatformBackend
}

func New(backend PlatformBackend) *Collector {
	return &Collector{backend: backend}
}

// NewDefault builds a collector on the platform backend. The backend's
// sockets belong to the namespace of the calling thread.
func NewDefault(opts Options) (*Collector, error) {
	b, err := NewPlatformBackend(opts)
	if err != nil {
		return nil, err
	}
	return New(b), nil
}

func (c *Collector) Close() error {
	return c.backend.Close()
}

func degraded(h model.NicHandle, field string, err error) {
	log.WithFields(log.Fields{
		"interface": h.String(),
		"field":     field,
	}).Debugf("field unavailable: %v", err)
}

// Collect reads every attribute of h except its PCI identity. The namespace
// of h must be the active one. It fails only with errdefs.ErrNotFound when
// the interface is gone.
func (c *Collector) Collect(h model.NicHandle) (*model.InterfaceRecord, error) {
	b := c.backend
	rec := &model.InterfaceRecord{
		Name:      h.Name,
		Namespace: h.Namespace,
		Media:     model.MediaUnknown,
	}

	flags, err := b.Flags(h.Name)
	switch {
	case errors.Is(err, errdefs.ErrNotFound):
		return nil, errors.Wrapf(errdefs.ErrNotFound, "interface %s", h)
	case err != nil:
		degraded(h, "flags", err)
	default:
		rec.Flags = b.FlagTable().Decode(flags)
		rec.Up = flags&ifreq.FlagUp != 0
	}

	if mac, err := b.HardwareAddr(h.Name); err != nil {
		degraded(h, "mac", err)
	} else {
		rec.MAC = mac
	}

	if mtu, err := b.MTU(h.Name); err != nil {
		degraded(h, "mtu", err)
	} else {
		rec.MTU = mtu
	}

	if metric, err := b.Metric(h.Name); err != nil {
		degraded(h, "metric", err)
	} else {
		// the stack treats metric 0 as the default metric 1
		if metric == 0 {
			metric = 1
		}
		rec.Metric = metric
	}

	if addrs, err := b.Addresses(h.Name); err != nil {
		degraded(h, "addresses", err)
	} else {
		rec.IPv4, rec.IPv6 = splitAddrs(addrs)
	}

	if drv, err := b.DriverInfo(h.Name); err != nil {
		degraded(h, "driver", err)
	} else {
		rec.Driver = drv
	}

	if link, err := b.LinkDetected(h.Name); err != nil {
		degraded(h, "link", err)
	} else {
		rec.LinkDetected = link
	}

	if media, err := b.Media(h.Name); err != nil {
		degraded(h, "media", err)
	} else if media != "" {
		rec.Media = media
	}

	if rings, err := b.Rings(h.Name); err != nil {
		degraded(h, "rings", err)
	} else {
		rec.Rings = rings
	}

	if ch, err := b.Channels(h.Name); err != nil {
		degraded(h, "channels", err)
	} else {
		rec.Channels = ch
	}

	if features, err := b.Features(h.Name); err != nil {
		degraded(h, "features", err)
	} else {
		rec.Features = features
	}

	if alt, err := b.AltName(h.Name); err != nil {
		degraded(h, "altname", err)
	} else {
		rec.AltName = alt
	}

	if counters, err := b.Counters(h.Name); err != nil {
		degraded(h, "counters", err)
	} else {
		rec.Counters = counters
	}

	return rec, nil
}
