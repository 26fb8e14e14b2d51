package ethtoolnl

// See include/uapi/linux/ethtool_netlink.h
const (
	ETHTOOL_GENL_NAME    = "ethtool"
	ETHTOOL_GENL_VERSION = 1

	ETHTOOL_MSG_LINKMODES_GET = 4
	ETHTOOL_MSG_LINKSTATE_GET = 6
	ETHTOOL_MSG_FEATURES_GET  = 11
	ETHTOOL_MSG_RINGS_GET     = 15
	ETHTOOL_MSG_CHANNELS_GET  = 17
)

const (
	ETHTOOL_A_HEADER_UNSPEC = iota
	ETHTOOL_A_HEADER_DEV_INDEX
	ETHTOOL_A_HEADER_DEV_NAME
	ETHTOOL_A_HEADER_FLAGS
)

// Every request and reply carries its header as attribute 1.
const ETHTOOL_A_HEADER = 1

const (
	ETHTOOL_A_LINKMODES_UNSPEC = iota
	ETHTOOL_A_LINKMODES_HEADER
	ETHTOOL_A_LINKMODES_AUTONEG
	ETHTOOL_A_LINKMODES_OURS
	ETHTOOL_A_LINKMODES_PEER
	ETHTOOL_A_LINKMODES_SPEED
	ETHTOOL_A_LINKMODES_DUPLEX
)

const (
	ETHTOOL_A_LINKSTATE_UNSPEC = iota
	ETHTOOL_A_LINKSTATE_HEADER
	ETHTOOL_A_LINKSTATE_LINK
)

const (
	ETHTOOL_A_RINGS_UNSPEC = iota
	ETHTOOL_A_RINGS_HEADER
	ETHTOOL_A_RINGS_RX_MAX
	ETHTOOL_A_RINGS_RX_MINI_MAX
	ETHTOOL_A_RINGS_RX_JUMBO_MAX
	ETHTOOL_A_RINGS_TX_MAX
	ETHTOOL_A_RINGS_RX
	ETHTOOL_A_RINGS_RX_MINI
	ETHTOOL_A_RINGS_RX_JUMBO
	ETHTOOL_A_RINGS_TX
)

const (
	ETHTOOL_A_CHANNELS_UNSPEC = iota
	ETHTOOL_A_CHANNELS_HEADER
	ETHTOOL_A_CHANNELS_RX_MAX
	ETHTOOL_A_CHANNELS_TX_MAX
	ETHTOOL_A_CHANNELS_OTHER_MAX
	ETHTOOL_A_CHANNELS_COMBINED_MAX
	ETHTOOL_A_CHANNELS_RX_COUNT
	ETHTOOL_A_CHANNELS_TX_COUNT
	ETHTOOL_A_CHANNELS_OTHER_COUNT
	ETHTOOL_A_CHANNELS_COMBINED_COUNT
)

const (
	ETHTOOL_A_FEATURES_UNSPEC = iota
	ETHTOOL_A_FEATURES_HEADER
	ETHTOOL_A_FEATURES_HW
	ETHTOOL_A_FEATURES_WANTED
	ETHTOOL_A_FEATURES_ACTIVE
	ETHTOOL_A_FEATURES_NOCHANGE
)

const (
	ETHTOOL_A_BITSET_UNSPEC = iota
	ETHTOOL_A_BITSET_NOMASK
	ETHTOOL_A_BITSET_SIZE
	ETHTOOL_A_BITSET_BITS
	ETHTOOL_A_BITSET_VALUE
	ETHTOOL_A_BITSET_MASK
)

const (
	ETHTOOL_A_BITSET_BITS_UNSPEC = iota
	ETHTOOL_A_BITSET_BITS_BIT
)

const (
	ETHTOOL_A_BITSET_BIT_UNSPEC = iota
	ETHTOOL_A_BITSET_BIT_INDEX
	ETHTOOL_A_BITSET_BIT_NAME
	ETHTOOL_A_BITSET_BIT_VALUE
)

const (
	DUPLEX_HALF    = 0x00
	DUPLEX_FULL    = 0x01
	DUPLEX_UNKNOWN = 0xff
)
