// Package ethtoolnl queries the ethtool generic netlink family for link modes,
// link state, ring sizes, channel counts and active offload features.
package ethtoolnl

import (
	"os"

	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"github.com/pkg/errors"

	"github.com/alibaba/nicinspect/pkg/nicinspect/errdefs"
	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
)

type Client struct {
	conn   *genetlink.Conn
	family genetlink.Family
}

// Dial opens a generic netlink socket in the calling thread's network
// namespace and resolves the ethtool family. Kernels older than 5.6 have no
// such family; that is reported as errdefs.ErrUnsupported.
func Dial() (*Client, error) {
	conn, err := genetlink.Dial(nil)
	if err != nil {
		return nil, errors.Wrap(errdefs.Classify(err), "dial generic netlink")
	}
	family, err := conn.GetFamily(ETHTOOL_GENL_NAME)
	if err != nil {
		conn.Close()
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrap(errdefs.ErrUnsupported, "ethtool netlink family")
		}
		return nil, errors.Wrap(errdefs.Classify(err), "resolve ethtool family")
	}
	return &Client{conn: conn, family: family}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func encodeRequest(ifname string) ([]byte, error) {
	ae := netlink.NewAttributeEncoder()
	ae.Nested(ETHTOOL_A_HEADER, func(nae *netlink.AttributeEncoder) error {
		nae.String(ETHTOOL_A_HEADER_DEV_NAME, ifname)
		return nil
	})
	return ae.Encode()
}

func (c *Client) get(cmd uint8, ifname string) ([]genetlink.Message, error) {
	data, err := encodeRequest(ifname)
	if err != nil {
		return nil, err
	}
	msg := genetlink.Message{
		Header: genetlink.Header{
			Command: cmd,
			Version: ETHTOOL_GENL_VERSION,
		},
		Data: data,
	}
	msgs, err := c.conn.Execute(msg, c.family.ID, netlink.Request)
	if err != nil {
		return nil, errors.Wrapf(errdefs.Classify(err), "ethtool command %d on %s", cmd, ifname)
	}
	return msgs, nil
}

func (c *Client) LinkMode(ifname string) (LinkMode, error) {
	msgs, err := c.get(ETHTOOL_MSG_LINKMODES_GET, ifname)
	if err != nil {
		return LinkMode{}, err
	}
	return parseLinkMode(msgs)
}

func (c *Client) LinkState(ifname string) (bool, error) {
	msgs, err := c.get(ETHTOOL_MSG_LINKSTATE_GET, ifname)
	if err != nil {
		return false, err
	}
	return parseLinkState(msgs)
}

func (c *Client) Rings(ifname string) (*model.Rings, error) {
	msgs, err := c.get(ETHTOOL_MSG_RINGS_GET, ifname)
	if err != nil {
		return nil, err
	}
	return parseRings(msgs)
}

func (c *Client) Channels(ifname string) (*model.Channels, error) {
	msgs, err := c.get(ETHTOOL_MSG_CHANNELS_GET, ifname)
	if err != nil {
		return nil, err
	}
	return parseChannels(msgs)
}

// ActiveFeatures returns the canonical names of the offloads currently enabled.
func (c *Client) ActiveFeatures(ifname string) ([]string, error) {
	msgs, err := c.get(ETHTOOL_MSG_FEATURES_GET, ifname)
	if err != nil {
		return nil, err
	}
	return parseActiveFeatures(msgs)
}
