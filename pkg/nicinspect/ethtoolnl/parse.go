package ethtoolnl

import (
	"fmt"

	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/alibaba/nicinspect/pkg/nicinspect/errdefs"
	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
)

type LinkMode struct {
	Autoneg bool
	Speed   uint32
	Duplex  uint8
}

// SpeedKnown is false for the sentinels drivers report when there is no link
// or the speed cannot be determined.
func (m LinkMode) SpeedKnown() bool {
	switch m.Speed {
	case 0, 0xffff, 0xffffffff:
		return false
	}
	return true
}

func (m LinkMode) DuplexString() string {
	switch m.Duplex {
	case DUPLEX_FULL:
		return "full"
	case DUPLEX_HALF:
		return "half"
	}
	return "unknown"
}

// Describe renders the media string for a twisted pair link.
func (m LinkMode) Describe() string {
	if !m.SpeedKnown() {
		return "TP (unknown speed)"
	}
	return fmt.Sprintf("TP %dMb/s %s", m.Speed, m.DuplexString())
}

func single(msgs []genetlink.Message) (*netlink.AttributeDecoder, error) {
	if len(msgs) == 0 {
		return nil, errors.Wrap(errdefs.ErrParseFailure, "empty ethtool reply")
	}
	ad, err := netlink.NewAttributeDecoder(msgs[0].Data)
	if err != nil {
		return nil, errors.Wrap(errdefs.ErrParseFailure, err.Error())
	}
	return ad, nil
}

func parseLinkMode(msgs []genetlink.Message) (LinkMode, error) {
	var m LinkMode
	ad, err := single(msgs)
	if err != nil {
		return m, err
	}
	m.Duplex = DUPLEX_UNKNOWN
	for ad.Next() {
		switch ad.Type() {
		case ETHTOOL_A_LINKMODES_AUTONEG:
			m.Autoneg = ad.Uint8() != 0
		case ETHTOOL_A_LINKMODES_SPEED:
			m.Speed = ad.Uint32()
		case ETHTOOL_A_LINKMODES_DUPLEX:
			m.Duplex = ad.Uint8()
		}
	}
	return m, ad.Err()
}

func parseLinkState(msgs []genetlink.Message) (bool, error) {
	ad, err := single(msgs)
	if err != nil {
		return false, err
	}
	var link bool
	for ad.Next() {
		if ad.Type() == ETHTOOL_A_LINKSTATE_LINK {
			link = ad.Uint8() != 0
		}
	}
	return link, ad.Err()
}

func parseRings(msgs []genetlink.Message) (*model.Rings, error) {
	ad, err := single(msgs)
	if err != nil {
		return nil, err
	}
	r := &model.Rings{}
	for ad.Next() {
		switch ad.Type() {
		case ETHTOOL_A_RINGS_RX:
			r.RX = ad.Uint32()
		case ETHTOOL_A_RINGS_TX:
			r.TX = ad.Uint32()
		}
	}
	return r, ad.Err()
}

func parseChannels(msgs []genetlink.Message) (*model.Channels, error) {
	ad, err := single(msgs)
	if err != nil {
		return nil, err
	}
	c := &model.Channels{}
	for ad.Next() {
		switch ad.Type() {
		case ETHTOOL_A_CHANNELS_RX_COUNT:
			c.RX = ad.Uint32()
		case ETHTOOL_A_CHANNELS_TX_COUNT:
			c.TX = ad.Uint32()
		case ETHTOOL_A_CHANNELS_OTHER_COUNT:
			c.Other = ad.Uint32()
		case ETHTOOL_A_CHANNELS_COMBINED_COUNT:
			c.Combined = ad.Uint32()
		}
	}
	return c, ad.Err()
}

type bit struct {
	name string
	set  bool
}

// parseBitset decodes a verbose bitset. Without a mask every listed bit is
// set; with one, only bits carrying the VALUE flag are.
func parseBitset(ad *netlink.AttributeDecoder) ([]string, error) {
	var nomask bool
	var bits []bit
	for ad.Next() {
		switch ad.Type() {
		case ETHTOOL_A_BITSET_NOMASK:
			nomask = true
		case ETHTOOL_A_BITSET_BITS:
			ad.Nested(func(nad *netlink.AttributeDecoder) error {
				for nad.Next() {
					if nad.Type() != ETHTOOL_A_BITSET_BITS_BIT {
						continue
					}
					nad.Nested(func(bad *netlink.AttributeDecoder) error {
						var b bit
						for bad.Next() {
							switch bad.Type() {
							case ETHTOOL_A_BITSET_BIT_NAME:
								b.name = bad.String()
							case ETHTOOL_A_BITSET_BIT_VALUE:
								b.set = true
							}
						}
						if b.name != "" {
							bits = append(bits, b)
						}
						return bad.Err()
					})
				}
				return nad.Err()
			})
		}
	}
	if err := ad.Err(); err != nil {
		return nil, err
	}
	names := lo.FilterMap(bits, func(b bit, _ int) (string, bool) {
		return b.name, b.set || nomask
	})
	return names, nil
}

func parseActiveFeatures(msgs []genetlink.Message) ([]string, error) {
	ad, err := single(msgs)
	if err != nil {
		return nil, err
	}
	var names []string
	for ad.Next() {
		if ad.Type() != ETHTOOL_A_FEATURES_ACTIVE {
			continue
		}
		ad.Nested(func(nad *netlink.AttributeDecoder) error {
			n, err := parseBitset(nad)
			names = n
			return err
		})
	}
	if err := ad.Err(); err != nil {
		return nil, err
	}
	return lo.Map(names, func(n string, _ int) string {
		return CanonicalFeature(n)
	}), nil
}
