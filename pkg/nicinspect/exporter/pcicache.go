package exporter

import (
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/alibaba/nicinspect/pkg/nicinspect/pci"
)

const pciTableKey = "pci"

// PCITableCache rebuilds the PCI table at most once per TTL.
type PCITableCache struct {
	cache *cache.Cache
	ttl   atomic.Int64
	load  func() pci.Table
}

func NewPCITableCache(ttl time.Duration, load func() pci.Table) *PCITableCache {
	c := &PCITableCache{
		cache: cache.New(ttl, time.Minute),
		load:  load,
	}
	c.ttl.Store(int64(ttl))
	return c
}

func (c *PCITableCache) Get() pci.Table {
	if v, ok := c.cache.Get(pciTableKey); ok {
		return v.(pci.Table)
	}
	t := c.load()
	c.cache.Set(pciTableKey, t, time.Duration(c.ttl.Load()))
	return t
}

// SetTTL changes the lifetime of future tables and drops the current one.
func (c *PCITableCache) SetTTL(ttl time.Duration) {
	c.ttl.Store(int64(ttl))
	c.cache.Flush()
}
