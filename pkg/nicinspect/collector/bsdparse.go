package collector

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
)

// Parsers for the text output of the BSD-side tools. They are kept free of
// build constraints so they are tested on every platform.

// ParseNetworksetupMedia extracts the "Current:" line of
// `networksetup -getMedia`. "autoselect" carries no information.
func ParseNetworksetupMedia(out string) (string, bool) {
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		v, ok := strings.CutPrefix(line, "Current:")
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" || v == "autoselect" {
			return "", false
		}
		return v, true
	}
	return "", false
}

// ParseNetstatCounters reads the link rows of `netstat -ibn`. Columns are
// taken from the right because the address column is empty for some links.
func ParseNetstatCounters(out string) map[string]*model.Counters {
	counters := map[string]*model.Counters{}
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 10 || !strings.HasPrefix(fields[2], "<Link#") {
			continue
		}
		name := strings.TrimSuffix(fields[0], "*")
		if _, seen := counters[name]; seen {
			continue
		}
		// Ipkts Ierrs Ibytes Opkts Oerrs Obytes Coll
		tail := fields[len(fields)-7:]
		vals := make([]uint64, 0, 7)
		for _, f := range tail {
			v, err := strconv.ParseUint(f, 10, 64)
			if err != nil {
				vals = nil
				break
			}
			vals = append(vals, v)
		}
		if vals == nil {
			continue
		}
		counters[name] = &model.Counters{
			RxPackets: vals[0],
			RxBytes:   vals[2],
			TxPackets: vals[3],
			TxBytes:   vals[5],
		}
	}
	return counters
}

var (
	ioregNodeRe = regexp.MustCompile(`^([\s|]*)\+-o (\S+)\s+<class (\w+)`)
	ioregPropRe = regexp.MustCompile(`^[\s|]*"([^"]+)" = (.*)$`)
)

type ioregNode struct {
	name   string
	class  string
	depth  int
	props  map[string]string
	parent *ioregNode
}

func (n *ioregNode) location() string {
	if _, loc, ok := strings.Cut(n.name, "@"); ok {
		return loc
	}
	return ""
}

func unquote(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}

// driverVersionKeys are consulted on the controller node in order.
var driverVersionKeys = []string{"CFBundleVersion", "DriverVersion", "IOFirmwareVersion"}

// ParseIoregDrivers maps BSD interface names to driver identity from an
// `ioreg -l -w0` tree. The driver is the class of the interface's provider
// (its controller); the bus location comes from the nearest ancestor whose
// registry name carries an @location, preferring its "pcidebug" property.
func ParseIoregDrivers(out string) map[string]*model.DriverInfo {
	var stack []*ioregNode
	var nodes []*ioregNode

	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if m := ioregNodeRe.FindStringSubmatch(line); m != nil {
			n := &ioregNode{name: m[2], class: m[3], depth: len(m[1]), props: map[string]string{}}
			for len(stack) > 0 && stack[len(stack)-1].depth >= n.depth {
				stack = stack[:len(stack)-1]
			}
			if len(stack) > 0 {
				n.parent = stack[len(stack)-1]
			}
			stack = append(stack, n)
			nodes = append(nodes, n)
			continue
		}
		if m := ioregPropRe.FindStringSubmatch(line); m != nil && len(stack) > 0 {
			stack[len(stack)-1].props[m[1]] = unquote(m[2])
		}
	}

	drivers := map[string]*model.DriverInfo{}
	for _, n := range nodes {
		bsd, ok := n.props["BSD Name"]
		if !ok || n.parent == nil || !strings.HasSuffix(n.class, "Interface") {
			continue
		}
		ctrl := n.parent
		info := &model.DriverInfo{Driver: ctrl.class}
		for _, k := range driverVersionKeys {
			if v := ctrl.props[k]; v != "" {
				info.Version = v
				break
			}
		}
		for a := ctrl; a != nil; a = a.parent {
			if v := a.props["pcidebug"]; v != "" {
				info.BusInfo = v
				break
			}
			if loc := a.location(); loc != "" && a != ctrl {
				info.BusInfo = loc
				break
			}
		}
		drivers[bsd] = info
	}
	return drivers
}
