package ifreq

import (
	"unsafe"

	"github.com/mdlayher/netlink/nlenc"
)

// struct ifmediareq as laid out by xnu under #pragma pack(4).
const (
	MediaRequestSize = 44

	mediaCurrentOff = 16
	mediaMaskOff    = 20
	mediaStatusOff  = 24
	mediaActiveOff  = 28
	mediaCountOff   = 32
)

// ifm_status bits.
const (
	MediaStatusValid  = 0x1
	MediaStatusActive = 0x2
)

type MediaRequest struct {
	buf []byte
}

func NewMediaRequest(name string) *MediaRequest {
	m := &MediaRequest{buf: make([]byte, MediaRequestSize)}
	putName(m.buf[:NameSize], name)
	return m
}

func (m *MediaRequest) Bytes() []byte {
	return m.buf
}

func (m *MediaRequest) Pointer() unsafe.Pointer {
	return unsafe.Pointer(&m.buf[0])
}

func (m *MediaRequest) field(off int) int32 {
	return nlenc.Int32(m.buf[off : off+4])
}

func (m *MediaRequest) Current() int32 { return m.field(mediaCurrentOff) }
func (m *MediaRequest) Mask() int32    { return m.field(mediaMaskOff) }
func (m *MediaRequest) Status() int32  { return m.field(mediaStatusOff) }
func (m *MediaRequest) Active() int32  { return m.field(mediaActiveOff) }
func (m *MediaRequest) Count() int32   { return m.field(mediaCountOff) }

// LinkActive reports a valid status word with the active bit set.
func (m *MediaRequest) LinkActive() bool {
	s := m.Status()
	return s&MediaStatusValid != 0 && s&MediaStatusActive != 0
}
