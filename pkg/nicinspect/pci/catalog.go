package pci

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// DefaultCatalogPaths are searched in order, the same locations lspci uses.
var DefaultCatalogPaths = []string{
	"/usr/share/hwdata/pci.ids",
	"/usr/share/misc/pci.ids",
	"/usr/share/pci.ids",
}

type deviceKey struct {
	vendor uint16
	device uint16
}

// Catalog resolves PCI vendor and device ids to names. It is read-only once
// parsed and safe for concurrent use.
type Catalog struct {
	vendors map[uint16]string
	devices map[deviceKey]string
}

func emptyCatalog() *Catalog {
	return &Catalog{
		vendors: map[uint16]string{},
		devices: map[deviceKey]string{},
	}
}

// parseIDLine reads a "xxxx  name" record. Ids are exactly four hex digits.
func parseIDLine(line string) (uint16, string, bool) {
	id, name, ok := strings.Cut(line, " ")
	if !ok || len(id) != 4 {
		return 0, "", false
	}
	v, err := strconv.ParseUint(id, 16, 16)
	if err != nil {
		return 0, "", false
	}
	return uint16(v), strings.TrimSpace(name), true
}

// ParseCatalog reads the pci.ids text format. Malformed lines are skipped.
// A top-level line that is not a vendor record (such as a "C xx" device
// class header) ends the current vendor, so the class section that follows
// cannot be taken for device records.
func ParseCatalog(r io.Reader) *Catalog {
	c := emptyCatalog()
	var vendor uint16
	var inVendor bool

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "\t\t"):
			// subsystem record
		case strings.HasPrefix(line, "\t"):
			if !inVendor {
				continue
			}
			if id, name, ok := parseIDLine(line[1:]); ok {
				c.devices[deviceKey{vendor, id}] = name
			}
		default:
			id, name, ok := parseIDLine(line)
			if !ok {
				inVendor = false
				continue
			}
			vendor, inVendor = id, true
			c.vendors[id] = name
		}
	}
	if err := scanner.Err(); err != nil {
		log.Debugf("pci.ids read stopped early: %v", err)
	}
	return c
}

// LoadCatalog parses the first readable file among paths. When none can be
// read the catalog is empty and ids stay unresolved.
func LoadCatalog(paths []string) *Catalog {
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			continue
		}
		c := ParseCatalog(f)
		f.Close()
		log.Debugf("loaded pci.ids from %s: %d vendors, %d devices", p, len(c.vendors), len(c.devices))
		return c
	}
	log.Debugf("no pci.ids found in %v", paths)
	return emptyCatalog()
}

func (c *Catalog) VendorName(vendor uint16) string {
	return c.vendors[vendor]
}

func (c *Catalog) DeviceName(vendor, device uint16) string {
	return c.devices[deviceKey{vendor, device}]
}

func (c *Catalog) Len() (vendors, devices int) {
	return len(c.vendors), len(c.devices)
}
