package pci

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleIDs = `# pci.ids sample
#	List of PCI ID's

	0001  orphan device before any vendor
10ec  Realtek Semiconductor Co., Ltd.
	8168  RTL8111/8168/8411 PCI Express Gigabit Ethernet Controller
		1043 8432  P8P67 and other motherboards
8086  Intel Corporation
	1521  I350 Gigabit Network Connection
	badline
	24fd  Wireless 8265 / 8275

C 02  Network controller
	00  Ethernet controller
	80  Network controller
`

func TestParseCatalog(t *testing.T) {
	c := ParseCatalog(strings.NewReader(sampleIDs))

	assert.Equal(t, "Realtek Semiconductor Co., Ltd.", c.VendorName(0x10ec))
	assert.Equal(t, "Intel Corporation", c.VendorName(0x8086))
	assert.Equal(t, "RTL8111/8168/8411 PCI Express Gigabit Ethernet Controller", c.DeviceName(0x10ec, 0x8168))
	assert.Equal(t, "I350 Gigabit Network Connection", c.DeviceName(0x8086, 0x1521))
	assert.Equal(t, "Wireless 8265 / 8275", c.DeviceName(0x8086, 0x24fd))

	// subsystem lines never become devices
	assert.Equal(t, "", c.DeviceName(0x10ec, 0x1043))
	// device line before any vendor is dropped
	assert.Equal(t, "", c.DeviceName(0, 0x0001))
	// class section does not leak into the last vendor
	assert.Equal(t, "", c.DeviceName(0x8086, 0x0000))
	assert.Equal(t, "", c.DeviceName(0x8086, 0x0080))
	// "C" is hex but a class header is not a vendor
	assert.Equal(t, "", c.VendorName(0x000c))
	assert.Equal(t, "", c.DeviceName(0x000c, 0x0000))

	vendors, devices := c.Len()
	assert.Equal(t, 2, vendors)
	assert.Equal(t, 3, devices)
}

func TestParseCatalogIdempotent(t *testing.T) {
	a := ParseCatalog(strings.NewReader(sampleIDs))
	b := ParseCatalog(strings.NewReader(sampleIDs))
	assert.Equal(t, a, b)
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	second := filepath.Join(dir, "pci.ids")
	require.NoError(t, os.WriteFile(second, []byte(sampleIDs), 0o644))

	c := LoadCatalog([]string{filepath.Join(dir, "missing.ids"), second})
	assert.Equal(t, "Intel Corporation", c.VendorName(0x8086))

	empty := LoadCatalog([]string{filepath.Join(dir, "missing.ids")})
	assert.Equal(t, "", empty.VendorName(0x8086))
}
