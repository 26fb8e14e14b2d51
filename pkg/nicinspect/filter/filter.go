// Package filter decides which collected interfaces are shown.
package filter

import (
	"strings"

	"github.com/samber/lo"

	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
)

type Matcher struct {
	Keywords   []string
	IPv4       bool
	IPv6       bool
	Running    bool
	IgnoreCase bool
	All        bool
	Drivers    []string
}

func (m *Matcher) fold(s string) string {
	if m.IgnoreCase {
		return strings.ToLower(s)
	}
	return s
}

func (m *Matcher) contains(haystack, needle string) bool {
	return strings.Contains(m.fold(haystack), m.fold(needle))
}

// Matches applies the link, address, visibility, driver and keyword checks
// in that order. A down interface named exactly by a keyword is still shown,
// but it is not exempt from the other checks.
func (m *Matcher) Matches(rec *model.InterfaceRecord) bool {
	if m.Running && !rec.LinkDetected {
		return false
	}
	if m.IPv4 && len(rec.IPv4) == 0 {
		return false
	}
	if m.IPv6 && len(rec.IPv6) == 0 {
		return false
	}
	if !m.All && !rec.Up && !lo.Contains(m.Keywords, rec.Name) {
		return false
	}
	if len(m.Drivers) > 0 {
		driver := ""
		if rec.Driver != nil {
			driver = rec.Driver.Driver
		}
		if !lo.ContainsBy(m.Drivers, func(d string) bool { return m.contains(driver, d) }) {
			return false
		}
	}
	if len(m.Keywords) == 0 {
		return true
	}
	targets := searchTargets(rec)
	return lo.SomeBy(m.Keywords, func(k string) bool {
		return lo.ContainsBy(targets, func(t string) bool { return m.contains(t, k) })
	})
}

// searchTargets lists the text a keyword may match. Absent values and the
// unknown media placeholder are left out.
func searchTargets(rec *model.InterfaceRecord) []string {
	targets := []string{rec.Name, rec.Flags, rec.MAC}
	if rec.HasMedia() {
		targets = append(targets, rec.Media)
	}
	for _, a := range rec.IPv4 {
		targets = append(targets, a.Address)
	}
	for _, a := range rec.IPv6 {
		targets = append(targets, a.Address)
	}
	if d := rec.Driver; d != nil {
		targets = append(targets, d.Driver, d.Version, d.BusInfo)
	}
	if p := rec.PCI; p != nil {
		targets = append(targets, p.Address(), p.VendorName, p.DeviceName)
	}
	return lo.Compact(targets)
}
