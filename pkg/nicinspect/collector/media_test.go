package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
)

func TestResolveMediaOrder(t *testing.T) {
	var calls []string
	strategy := func(id, value string, found bool) MediaStrategy {
		return func(string) (string, bool) {
			calls = append(calls, id)
			return value, found
		}
	}

	m := ResolveMedia("eth0",
		strategy("netlink", "", false),
		strategy("legacy", "FIBRE 25000Mb/s full", true),
		strategy("tool", "1000baseT", true),
	)
	assert.Equal(t, "FIBRE 25000Mb/s full", m)
	assert.Equal(t, []string{"netlink", "legacy"}, calls)

	calls = nil
	assert.Equal(t, model.MediaUnknown, ResolveMedia("eth0", strategy("netlink", "", false)))
	assert.Equal(t, model.MediaUnknown, ResolveMedia("eth0"))
}

func TestFormatMedia(t *testing.T) {
	testcases := []struct {
		port     uint8
		speed    uint32
		duplex   uint8
		expected string
	}{
		{PortTP, 1000, 1, "TP 1000Mb/s full"},
		{PortFIBRE, 10000, 0, "FIBRE 10000Mb/s half"},
		{PortMII, 100, 0xff, "MII 100Mb/s unknown"},
		{PortAUI, 0, 1, "AUI (unknown speed)"},
		{PortBNC, 0xffff, 1, "BNC (unknown speed)"},
		{0xef, 0xffffffff, 1, "unknown (unknown speed)"},
		{0x05, 40000, 1, "unknown 40000Mb/s full"},
	}
	for _, c := range testcases {
		assert.Equal(t, c.expected, FormatMedia(c.port, c.speed, c.duplex))
	}
}
