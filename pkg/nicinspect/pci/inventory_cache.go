package pci

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// InventoryCache keeps inventory answers between runs of a long lived
// process. A miss reloads the whole inventory once; names the inventory does
// not know are cached as "".
type InventoryCache struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, string]
	load  func() map[string]string
}

func NewInventoryCache(size int, ttl time.Duration) *InventoryCache {
	return newInventoryCache(size, ttl, ghwAddresses)
}

func newInventoryCache(size int, ttl time.Duration, load func() map[string]string) *InventoryCache {
	return &InventoryCache{
		cache: expirable.NewLRU[string, string](size, nil, ttl),
		load:  load,
	}
}

func (c *InventoryCache) Lookup(ifname string) string {
	if addr, ok := c.cache.Get(ifname); ok {
		return addr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if addr, ok := c.cache.Get(ifname); ok {
		return addr
	}
	addrs := c.load()
	for name, addr := range addrs {
		c.cache.Add(name, addr)
	}
	addr := addrs[ifname]
	if addr == "" {
		c.cache.Add(ifname, "")
	}
	return addr
}

// Func adapts the cache to the correlator's inventory strategy.
func (c *InventoryCache) Func() InventoryFunc {
	return c.Lookup
}
