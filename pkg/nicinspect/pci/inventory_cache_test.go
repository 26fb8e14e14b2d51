package pci

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInventoryCache(t *testing.T) {
	loads := 0
	c := newInventoryCache(16, time.Hour, func() map[string]string {
		loads++
		return map[string]string{"eth0": "0000:3b:00.0", "eth1": "0000:3b:00.1"}
	})

	assert.Equal(t, "0000:3b:00.0", c.Lookup("eth0"))
	assert.Equal(t, "0000:3b:00.1", c.Lookup("eth1"))
	assert.Equal(t, 1, loads)

	assert.Equal(t, "", c.Lookup("veth0"))
	assert.Equal(t, 2, loads)
	assert.Equal(t, "", c.Func()("veth0"))
	assert.Equal(t, 2, loads)
}

func TestInventoryCacheExpiry(t *testing.T) {
	loads := 0
	c := newInventoryCache(16, 20*time.Millisecond, func() map[string]string {
		loads++
		return map[string]string{"eth0": "0000:3b:00.0"}
	})

	c.Lookup("eth0")
	assert.Eventually(t, func() bool {
		c.Lookup("eth0")
		return loads > 1
	}, time.Second, 10*time.Millisecond)
}
