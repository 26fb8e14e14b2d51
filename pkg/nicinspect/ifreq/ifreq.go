// Package ifreq describes the fixed binary layouts exchanged with the kernel by
// the legacy interface ioctls. Layouts are explicit byte descriptors rather
// than Go structs so that every offset is visible and testable.
package ifreq

import (
	"bytes"
	"net"
	"unsafe"

	"github.com/mdlayher/netlink/nlenc"
)

const (
	// NameSize is IFNAMSIZ; one byte is always reserved for the terminating NUL.
	NameSize = 16

	sockaddrDataOffset = 2
	hardwareAddrLen    = 6
)

// Layout is the binary shape of struct ifreq on one platform.
type Layout struct {
	Size        int
	UnionOffset int
	UnionSize   int
}

var (
	// LinuxLayout: char ifr_name[16] followed by a 24 byte union whose largest
	// member is struct ifmap on 64-bit hosts.
	LinuxLayout = Layout{Size: 40, UnionOffset: NameSize, UnionSize: 24}
	// DarwinLayout: char ifr_name[16] followed by a 16 byte union (struct sockaddr).
	DarwinLayout = Layout{Size: 32, UnionOffset: NameSize, UnionSize: 16}
)

// Request is an encoded struct ifreq.
type Request struct {
	layout Layout
	buf    []byte
}

// New encodes name into a zeroed request. Names longer than 15 bytes are
// truncated.
func (l Layout) New(name string) *Request {
	r := &Request{layout: l, buf: make([]byte, l.Size)}
	putName(r.buf[:NameSize], name)
	return r
}

// Decode wraps raw bytes received from the kernel.
func (l Layout) Decode(b []byte) (*Request, bool) {
	if len(b) < l.Size {
		return nil, false
	}
	return &Request{layout: l, buf: b[:l.Size]}, true
}

func putName(dst []byte, name string) {
	n := copy(dst[:len(dst)-1], name)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func (r *Request) Bytes() []byte {
	return r.buf
}

// Pointer returns the address handed to ioctl(2).
func (r *Request) Pointer() unsafe.Pointer {
	return unsafe.Pointer(&r.buf[0])
}

func (r *Request) Name() string {
	return cString(r.buf[:NameSize])
}

func (r *Request) union() []byte {
	return r.buf[r.layout.UnionOffset : r.layout.UnionOffset+r.layout.UnionSize]
}

// Int32 reads ifru_ivalue, which also carries ifru_mtu and ifru_metric.
func (r *Request) Int32() int32 {
	return nlenc.Int32(r.union()[:4])
}

func (r *Request) SetInt32(v int32) {
	nlenc.PutInt32(r.union()[:4], v)
}

// Flags reads ifru_flags (a C short).
func (r *Request) Flags() uint16 {
	return nlenc.Uint16(r.union()[:2])
}

func (r *Request) SetFlags(v uint16) {
	nlenc.PutUint16(r.union()[:2], v)
}

// HardwareAddr reads the first six bytes of sa_data in ifru_hwaddr.
func (r *Request) HardwareAddr() net.HardwareAddr {
	u := r.union()
	mac := make(net.HardwareAddr, hardwareAddrLen)
	copy(mac, u[sockaddrDataOffset:sockaddrDataOffset+hardwareAddrLen])
	return mac
}

// SetData stores ifru_data, a user-space pointer the kernel reads and writes
// through. The caller keeps the pointed-to memory alive across the ioctl.
func (r *Request) SetData(p uintptr) {
	u := r.union()
	switch unsafe.Sizeof(p) {
	case 8:
		nlenc.PutUint64(u[:8], uint64(p))
	default:
		nlenc.PutUint32(u[:4], uint32(p))
	}
}

// Data reads back ifru_data.
func (r *Request) Data() uintptr {
	u := r.union()
	if unsafe.Sizeof(uintptr(0)) == 8 {
		return uintptr(nlenc.Uint64(u[:8]))
	}
	return uintptr(nlenc.Uint32(u[:4]))
}
