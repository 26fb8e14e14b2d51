package collector

import (
	"math/bits"
	"net"

	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
)

const (
	ScopeHost      = "host"
	ScopeLink      = "link"
	ScopeSite      = "site"
	ScopeMulticast = "multicast"
	ScopeGlobal    = "global"
)

// PrefixLen counts the set bits of mask. A missing mask has prefix 0.
func PrefixLen(mask net.IPMask) int {
	n := 0
	for _, b := range mask {
		n += bits.OnesCount8(b)
	}
	return n
}

// IPv6Scope classifies ip; the first matching rule wins.
func IPv6Scope(ip net.IP) string {
	ip = ip.To16()
	if ip == nil {
		return ScopeGlobal
	}
	switch {
	case ip.IsLoopback():
		return ScopeHost
	case ip.IsLinkLocalUnicast():
		return ScopeLink
	case ip[0] == 0xfe && ip[1]&0xc0 == 0xc0:
		return ScopeSite
	case ip.IsMulticast():
		return ScopeMulticast
	}
	return ScopeGlobal
}

func splitAddrs(entries []AddrEntry) ([]model.IPv4Addr, []model.IPv6Addr) {
	var v4 []model.IPv4Addr
	var v6 []model.IPv6Addr
	for _, e := range entries {
		if e.IP == nil {
			continue
		}
		if ip4 := e.IP.To4(); ip4 != nil {
			a := model.IPv4Addr{Address: ip4.String()}
			if mask := v4Mask(e.Mask); mask != nil {
				a.Netmask = net.IP(mask).String()
				a.PrefixLen = PrefixLen(mask)
			}
			v4 = append(v4, a)
			continue
		}
		if e.IP.To16() == nil {
			continue
		}
		v6 = append(v6, model.IPv6Addr{
			Address:   e.IP.String(),
			PrefixLen: PrefixLen(e.Mask),
			Scope:     IPv6Scope(e.IP),
		})
	}
	return v4, v6
}

func v4Mask(m net.IPMask) net.IPMask {
	switch len(m) {
	case net.IPv4len:
		return m
	case net.IPv6len:
		return m[12:]
	}
	return nil
}
