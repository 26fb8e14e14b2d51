package ifreq

import (
	"testing"

	"github.com/mdlayher/netlink/nlenc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func skipUnlessLittleEndian(t *testing.T) {
	t.Helper()
	if nlenc.NativeEndian().Uint16([]byte{1, 0}) != 1 {
		t.Skip("fixtures are little endian")
	}
}

func TestLayoutSizes(t *testing.T) {
	assert.Equal(t, 40, len(LinuxLayout.New("eth0").Bytes()))
	assert.Equal(t, 32, len(DarwinLayout.New("en0").Bytes()))
}

func TestRequestName(t *testing.T) {
	r := LinuxLayout.New("eth0")
	assert.Equal(t, []byte{'e', 't', 'h', '0', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, r.Bytes()[:16])
	assert.Equal(t, "eth0", r.Name())

	long := LinuxLayout.New("averyveryverylongname")
	assert.Equal(t, "averyveryverylo", long.Name())
	assert.Equal(t, byte(0), long.Bytes()[15])
}

func TestRequestInt32(t *testing.T) {
	skipUnlessLittleEndian(t)

	raw := make([]byte, 40)
	copy(raw, "eth0")
	copy(raw[16:], []byte{0xdc, 0x05, 0x00, 0x00})
	r, ok := LinuxLayout.Decode(raw)
	require.True(t, ok)
	assert.Equal(t, int32(1500), r.Int32())

	r.SetInt32(9000)
	assert.Equal(t, []byte{0x28, 0x23, 0x00, 0x00}, r.Bytes()[16:20])
}

func TestRequestFlags(t *testing.T) {
	skipUnlessLittleEndian(t)

	raw := make([]byte, 32)
	copy(raw, "en0")
	copy(raw[16:], []byte{0x63, 0x88})
	r, ok := DarwinLayout.Decode(raw)
	require.True(t, ok)
	assert.Equal(t, uint16(0x8863), r.Flags())
	assert.Equal(t, "UP BROADCAST SMART RUNNING SIMPLEX MULTICAST", BSDFlags.Decode(uint32(r.Flags())))
}

func TestRequestHardwareAddr(t *testing.T) {
	raw := make([]byte, 40)
	copy(raw, "eth0")
	// sa_family ARPHRD_ETHER then sa_data
	copy(raw[16:], []byte{0x01, 0x00, 0x52, 0x54, 0x00, 0xAB, 0xcd, 0xef})
	r, ok := LinuxLayout.Decode(raw)
	require.True(t, ok)
	assert.Equal(t, "52:54:00:ab:cd:ef", r.HardwareAddr().String())
}

func TestDecodeShort(t *testing.T) {
	_, ok := LinuxLayout.Decode(make([]byte, 39))
	assert.False(t, ok)
	_, err := DecodeDrvInfo(make([]byte, 100))
	assert.Error(t, err)
}

func TestRequestData(t *testing.T) {
	r := LinuxLayout.New("eth0")
	r.SetData(uintptr(0x1234))
	assert.Equal(t, uintptr(0x1234), r.Data())
}

func TestDrvInfo(t *testing.T) {
	skipUnlessLittleEndian(t)

	b := NewDrvInfoBuffer()
	require.Len(t, b, DrvInfoSize)
	assert.Equal(t, []byte{3, 0, 0, 0}, b[:4])

	copy(b[4:], "ixgbe")
	copy(b[36:], "5.1.0-k")
	copy(b[68:], "0x800007f5")
	copy(b[100:], "0000:3b:00.0")
	copy(b[176:], []byte{2, 0, 0, 0, 0x10, 0, 0, 0})

	info, err := DecodeDrvInfo(b)
	require.NoError(t, err)
	assert.Equal(t, "ixgbe", info.Driver)
	assert.Equal(t, "5.1.0-k", info.Version)
	assert.Equal(t, "0x800007f5", info.FwVersion)
	assert.Equal(t, "0000:3b:00.0", info.BusInfo)
	assert.Equal(t, "", info.EromVersion)
	assert.Equal(t, uint32(2), info.NPrivFlags)
	assert.Equal(t, uint32(16), info.NStats)
}

func TestMediaRequest(t *testing.T) {
	skipUnlessLittleEndian(t)

	m := NewMediaRequest("en0")
	require.Len(t, m.Bytes(), MediaRequestSize)
	assert.Equal(t, "en0", cString(m.Bytes()[:16]))
	assert.False(t, m.LinkActive())

	copy(m.Bytes()[24:], []byte{0x01, 0, 0, 0})
	assert.False(t, m.LinkActive())

	copy(m.Bytes()[24:], []byte{0x03, 0, 0, 0})
	copy(m.Bytes()[28:], []byte{0x20, 0, 0, 0})
	assert.True(t, m.LinkActive())
	assert.Equal(t, int32(0x20), m.Active())
}

func TestFlagDecode(t *testing.T) {
	testcases := []struct {
		name     string
		table    FlagTable
		flags    uint32
		expected string
	}{
		{"linux loopback", LinuxFlags, unix.IFF_UP | unix.IFF_LOOPBACK | unix.IFF_RUNNING, "UP LOOPBACK RUNNING"},
		{"linux ether", LinuxFlags, 0x1043, "UP BROADCAST RUNNING MULTICAST"},
		{"linux none", LinuxFlags, 0, ""},
		{"linux bit 0x10", LinuxFlags, 0x10, "PTP"},
		{"bsd bit 0x10", BSDFlags, 0x10, "POINTOPOINT"},
		{"linux bit 0x8000", LinuxFlags, 0x8000, "DYNAMIC"},
		{"bsd bit 0x8000", BSDFlags, 0x8000, "MULTICAST"},
		{"high bits ignored", LinuxFlags, 0x10001, "UP"},
	}
	for _, c := range testcases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, c.table.Decode(c.flags))
		})
	}
}
