// Package printer renders interface records as plain text, JSON or YAML.
package printer

import (
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	}
	return "", errors.Errorf("unsupported output format %q, support text/json/yaml", s)
}

type Printer struct {
	w       io.Writer
	format  Format
	verbose bool
}

func New(w io.Writer, format Format, verbose bool) *Printer {
	return &Printer{w: w, format: format, verbose: verbose}
}

// Print writes all records. JSON and YAML emit one document holding a list.
func (p *Printer) Print(recs []*model.InterfaceRecord) error {
	if recs == nil {
		recs = []*model.InterfaceRecord{}
	}
	switch p.format {
	case FormatJSON:
		data, err := json.MarshalIndent(recs, "", "  ")
		if err != nil {
			return errors.Wrap(err, "encode json")
		}
		_, err = fmt.Fprintln(p.w, string(data))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(recs); err != nil {
			return errors.Wrap(err, "encode yaml")
		}
		return enc.Close()
	}
	for _, r := range recs {
		if err := p.text(r); err != nil {
			return err
		}
	}
	return nil
}

const indent = "  "

type lineWriter struct {
	w   io.Writer
	err error
}

func (l *lineWriter) printf(format string, args ...any) {
	if l.err != nil {
		return
	}
	_, l.err = fmt.Fprintf(l.w, format, args...)
}

func (l *lineWriter) field(label, format string, args ...any) {
	l.printf(indent+"%-10s"+format+"\n", append([]any{label + ":"}, args...)...)
}

func (p *Printer) text(r *model.InterfaceRecord) error {
	l := &lineWriter{w: p.w}

	state := "[link-down]"
	if r.LinkDetected {
		state = "[link-up]"
	}
	l.printf("%s %s", r.Name, state)
	if r.Namespace != "" {
		l.printf(" {%s}", r.Namespace)
	}
	l.printf("\n")

	if r.MAC != "" {
		l.field("MAC", "%s", r.MAC)
	}
	for _, a := range r.IPv4 {
		l.field("IPv4", "%s/%d", a.Address, a.PrefixLen)
	}
	for _, a := range r.IPv6 {
		l.field("IPv6", "%s/%d", a.Address, a.PrefixLen)
	}
	if r.Flags != "" {
		l.field("Flags", "%s", r.Flags)
	}
	if d := r.Driver; d != nil {
		l.field("Driver", "%s (v: %s)", d.Driver, d.Version)
		if d.BusInfo != "" {
			l.field("Bus", "%s", d.BusInfo)
		}
	}
	if r.AltName != "" {
		l.field("Altname", "%s", r.AltName)
	}
	if pci := r.PCI; pci != nil {
		if addr := pci.Address(); addr != "" {
			l.field("PCI", "%s", addr)
		}
		if (pci.VendorName != "" && pci.DeviceName != "") || pci.VendorID != 0 || pci.DeviceID != 0 {
			l.field("Device", "%s", pci.Identity())
		}
		if p.verbose {
			l.field("Class", "%s (rev %02x)", pci.ClassName(), pci.Revision)
			if pci.Driver != "" {
				l.field("Kernel", "%s", pci.Driver)
			}
		}
	}
	l.field("MTU", "%d (Metric: %d)", r.MTU, r.Metric)
	if r.HasMedia() {
		l.field("Media", "%s", r.Media)
	}

	if p.verbose {
		if len(r.Features) > 0 {
			l.field("Features", "%s", strings.Join(r.Features, " "))
		}
		if rg := r.Rings; rg != nil && (rg.RX > 0 || rg.TX > 0) {
			l.field("Rings", "RX: %d, TX: %d", rg.RX, rg.TX)
		}
		if ch := r.Channels; ch != nil && (ch.RX > 0 || ch.TX > 0 || ch.Other > 0 || ch.Combined > 0) {
			l.field("Channels", "RX: %d, TX: %d, Other: %d, Combined: %d", ch.RX, ch.TX, ch.Other, ch.Combined)
		}
	}

	if c := r.Counters; c != nil && (c.RxBytes > 0 || c.TxBytes > 0) {
		l.field("Stats", "RX: %d bytes (%d pkts), TX: %d bytes (%d pkts)", c.RxBytes, c.RxPackets, c.TxBytes, c.TxPackets)
	}
	l.printf("\n")
	return l.err
}
