package ethtoolnl

import (
	"testing"

	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alibaba/nicinspect/pkg/nicinspect/errdefs"
	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
)

func reply(t *testing.T, fn func(ae *netlink.AttributeEncoder)) []genetlink.Message {
	t.Helper()
	ae := netlink.NewAttributeEncoder()
	ae.Nested(ETHTOOL_A_HEADER, func(nae *netlink.AttributeEncoder) error {
		nae.Uint32(ETHTOOL_A_HEADER_DEV_INDEX, 2)
		nae.String(ETHTOOL_A_HEADER_DEV_NAME, "eth0")
		return nil
	})
	fn(ae)
	b, err := ae.Encode()
	require.NoError(t, err)
	return []genetlink.Message{{Data: b}}
}

func TestEncodeRequest(t *testing.T) {
	b, err := encodeRequest("eth0")
	require.NoError(t, err)

	attrs, err := netlink.UnmarshalAttributes(b)
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, uint16(ETHTOOL_A_HEADER), attrs[0].Type&^netlink.Nested)

	inner, err := netlink.UnmarshalAttributes(attrs[0].Data)
	require.NoError(t, err)
	require.Len(t, inner, 1)
	assert.Equal(t, uint16(ETHTOOL_A_HEADER_DEV_NAME), inner[0].Type)
	assert.Equal(t, "eth0\x00", string(inner[0].Data))
}

func TestParseLinkMode(t *testing.T) {
	testcases := []struct {
		name     string
		speed    uint32
		duplex   uint8
		expected string
	}{
		{"full", 10000, DUPLEX_FULL, "TP 10000Mb/s full"},
		{"half", 100, DUPLEX_HALF, "TP 100Mb/s half"},
		{"duplex unknown", 1000, DUPLEX_UNKNOWN, "TP 1000Mb/s unknown"},
		{"zero speed", 0, DUPLEX_FULL, "TP (unknown speed)"},
		{"16-bit sentinel", 0xffff, DUPLEX_FULL, "TP (unknown speed)"},
		{"32-bit sentinel", 0xffffffff, DUPLEX_UNKNOWN, "TP (unknown speed)"},
	}
	for _, c := range testcases {
		t.Run(c.name, func(t *testing.T) {
			msgs := reply(t, func(ae *netlink.AttributeEncoder) {
				ae.Uint8(ETHTOOL_A_LINKMODES_AUTONEG, 1)
				ae.Uint32(ETHTOOL_A_LINKMODES_SPEED, c.speed)
				ae.Uint8(ETHTOOL_A_LINKMODES_DUPLEX, c.duplex)
				// unknown attributes are skipped
				ae.Uint32(42, 7)
			})
			m, err := parseLinkMode(msgs)
			require.NoError(t, err)
			assert.True(t, m.Autoneg)
			assert.Equal(t, c.expected, m.Describe())
		})
	}
}

func TestParseLinkModeNoDuplex(t *testing.T) {
	m, err := parseLinkMode(reply(t, func(ae *netlink.AttributeEncoder) {
		ae.Uint32(ETHTOOL_A_LINKMODES_SPEED, 25000)
	}))
	require.NoError(t, err)
	assert.Equal(t, "TP 25000Mb/s unknown", m.Describe())
}

func TestParseLinkState(t *testing.T) {
	up, err := parseLinkState(reply(t, func(ae *netlink.AttributeEncoder) {
		ae.Uint8(ETHTOOL_A_LINKSTATE_LINK, 1)
	}))
	require.NoError(t, err)
	assert.True(t, up)

	down, err := parseLinkState(reply(t, func(ae *netlink.AttributeEncoder) {}))
	require.NoError(t, err)
	assert.False(t, down)
}

func TestParseEmptyReply(t *testing.T) {
	_, err := parseLinkState(nil)
	assert.ErrorIs(t, err, errdefs.ErrParseFailure)
}

func TestParseRingsAndChannels(t *testing.T) {
	rings, err := parseRings(reply(t, func(ae *netlink.AttributeEncoder) {
		ae.Uint32(ETHTOOL_A_RINGS_RX_MAX, 4096)
		ae.Uint32(ETHTOOL_A_RINGS_RX, 512)
		ae.Uint32(ETHTOOL_A_RINGS_TX_MAX, 4096)
		ae.Uint32(ETHTOOL_A_RINGS_TX, 1024)
	}))
	require.NoError(t, err)
	assert.Equal(t, &model.Rings{RX: 512, TX: 1024}, rings)

	ch, err := parseChannels(reply(t, func(ae *netlink.AttributeEncoder) {
		ae.Uint32(ETHTOOL_A_CHANNELS_COMBINED_MAX, 63)
		ae.Uint32(ETHTOOL_A_CHANNELS_OTHER_COUNT, 1)
		ae.Uint32(ETHTOOL_A_CHANNELS_COMBINED_COUNT, 8)
	}))
	require.NoError(t, err)
	assert.Equal(t, &model.Channels{Other: 1, Combined: 8}, ch)
}

func encodeBits(nae *netlink.AttributeEncoder, bits map[string]bool, order []string) {
	nae.Nested(ETHTOOL_A_BITSET_BITS, func(bae *netlink.AttributeEncoder) error {
		for i, name := range order {
			idx, set := uint32(i), bits[name]
			bae.Nested(ETHTOOL_A_BITSET_BITS_BIT, func(eae *netlink.AttributeEncoder) error {
				eae.Uint32(ETHTOOL_A_BITSET_BIT_INDEX, idx)
				eae.String(ETHTOOL_A_BITSET_BIT_NAME, name)
				if set {
					eae.Flag(ETHTOOL_A_BITSET_BIT_VALUE, true)
				}
				return nil
			})
		}
		return nil
	})
}

func TestParseActiveFeaturesNoMask(t *testing.T) {
	order := []string{"rx-gro", "tx-tcp-segmentation", "foo-bar"}
	msgs := reply(t, func(ae *netlink.AttributeEncoder) {
		ae.Nested(ETHTOOL_A_FEATURES_HW, func(nae *netlink.AttributeEncoder) error {
			nae.Uint32(ETHTOOL_A_BITSET_SIZE, 3)
			encodeBits(nae, map[string]bool{"rx-lro": true}, []string{"rx-lro"})
			return nil
		})
		ae.Nested(ETHTOOL_A_FEATURES_ACTIVE, func(nae *netlink.AttributeEncoder) error {
			nae.Flag(ETHTOOL_A_BITSET_NOMASK, true)
			nae.Uint32(ETHTOOL_A_BITSET_SIZE, 3)
			encodeBits(nae, nil, order)
			return nil
		})
	})
	names, err := parseActiveFeatures(msgs)
	require.NoError(t, err)
	assert.Equal(t, []string{"gro", "tso", "foo-bar"}, names)
}

func TestParseActiveFeaturesMasked(t *testing.T) {
	order := []string{"rx-checksum", "rx-lro", "highdma"}
	msgs := reply(t, func(ae *netlink.AttributeEncoder) {
		ae.Nested(ETHTOOL_A_FEATURES_ACTIVE, func(nae *netlink.AttributeEncoder) error {
			encodeBits(nae, map[string]bool{"rx-checksum": true, "highdma": true}, order)
			return nil
		})
	})
	names, err := parseActiveFeatures(msgs)
	require.NoError(t, err)
	assert.Equal(t, []string{"rx-csum", "highdma"}, names)
}

func TestCanonicalFeature(t *testing.T) {
	assert.Equal(t, "gro", CanonicalFeature("rx-gro"))
	assert.Equal(t, "tso", CanonicalFeature("tx-tcp-segmentation"))
	assert.Equal(t, "ntuple", CanonicalFeature("rx-ntuple-filter"))
	assert.Equal(t, "foo-bar", CanonicalFeature("foo-bar"))
}
