package exporter

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alibaba/nicinspect/pkg/nicinspect/engine"
	"github.com/alibaba/nicinspect/pkg/nicinspect/errdefs"
	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
	"github.com/alibaba/nicinspect/pkg/nicinspect/pci"
)

type fakeRunner struct {
	results []engine.Result
	err     error
	runs    int
}

func (f *fakeRunner) Run(context.Context) ([]engine.Result, error) {
	f.runs++
	return f.results, f.err
}

func testResults() []engine.Result {
	bus, dev, fn := uint8(0x3b), uint8(0), uint8(0)
	eth0 := &model.InterfaceRecord{
		Name:         "eth0",
		Up:           true,
		LinkDetected: true,
		MAC:          "0c:42:a1:00:00:01",
		MTU:          9000,
		Media:        "TP 25000Mb/s Full",
		Driver:       &model.DriverInfo{Driver: "mlx5_core", Version: "5.0"},
		PCI:          &model.PciDeviceInfo{VendorID: 0x15b3, DeviceID: 0x1017, Bus: &bus, Device: &dev, Function: &fn},
		Counters:     &model.Counters{RxBytes: 1000, RxPackets: 10, TxBytes: 500, TxPackets: 5},
		Rings:        &model.Rings{RX: 1024, TX: 512},
		Channels:     &model.Channels{Combined: 8},
		Features:     []string{"tso", "gro"},
	}
	lo := &model.InterfaceRecord{Name: "lo", Namespace: "blue", Up: true, MTU: 65536, Media: model.MediaUnknown}
	return []engine.Result{
		{Handle: eth0.Handle(), Record: eth0},
		{Handle: lo.Handle(), Record: lo},
		{Handle: model.NicHandle{Name: "gone0"}, Err: errors.Wrap(errdefs.ErrNotFound, "gone0")},
	}
}

func TestExporterCollect(t *testing.T) {
	e := New(&fakeRunner{results: testResults()})

	expected := `
# HELP nicinspect_interface_mtu Interface MTU in bytes.
# TYPE nicinspect_interface_mtu gauge
nicinspect_interface_mtu{interface="eth0",netns=""} 9000
nicinspect_interface_mtu{interface="lo",netns="blue"} 65536
# HELP nicinspect_interface_receive_bytes_total Received bytes.
# TYPE nicinspect_interface_receive_bytes_total counter
nicinspect_interface_receive_bytes_total{interface="eth0",netns=""} 1000
# HELP nicinspect_interface_ring_size Configured ring size.
# TYPE nicinspect_interface_ring_size gauge
nicinspect_interface_ring_size{direction="rx",interface="eth0",netns=""} 1024
nicinspect_interface_ring_size{direction="tx",interface="eth0",netns=""} 512
# HELP nicinspect_interface_collect_failure 1 when the last scrape could not read the interface.
# TYPE nicinspect_interface_collect_failure gauge
nicinspect_interface_collect_failure{interface="eth0",netns=""} 0
nicinspect_interface_collect_failure{interface="gone0",netns=""} 1
nicinspect_interface_collect_failure{interface="lo",netns="blue"} 0
`
	err := testutil.CollectAndCompare(e, strings.NewReader(expected),
		"nicinspect_interface_mtu",
		"nicinspect_interface_receive_bytes_total",
		"nicinspect_interface_ring_size",
		"nicinspect_interface_collect_failure",
	)
	require.NoError(t, err)
}

func TestExporterInfo(t *testing.T) {
	e := New(&fakeRunner{results: testResults()})

	expected := `
# HELP nicinspect_interface_info Driver and hardware identity, always 1.
# TYPE nicinspect_interface_info gauge
nicinspect_interface_info{device="[15b3:1017]",driver="mlx5_core",driver_version="5.0",interface="eth0",mac="0c:42:a1:00:00:01",media="TP 25000Mb/s Full",netns="",pci_address="3b:00.0"} 1
nicinspect_interface_info{device="",driver="",driver_version="",interface="lo",mac="",media="unknown",netns="blue",pci_address=""} 1
`
	require.NoError(t, testutil.CollectAndCompare(e, strings.NewReader(expected), "nicinspect_interface_info"))
}

func TestExporterSnapshot(t *testing.T) {
	runner := &fakeRunner{results: testResults()}
	e := New(runner)

	recs, at := e.Snapshot()
	assert.Empty(t, recs)
	assert.True(t, at.IsZero())
	assert.Equal(t, "-1", FormatAge(at))

	_, err := e.Refresh(context.Background())
	require.NoError(t, err)
	recs, at = e.Snapshot()
	require.Len(t, recs, 2)
	assert.Equal(t, "eth0", recs[0].Name)
	assert.False(t, at.IsZero())

	runner.err = errors.Wrap(errdefs.ErrNoSocket, "socket")
	_, err = e.Refresh(context.Background())
	assert.ErrorIs(t, err, errdefs.ErrNoSocket)
	recs, _ = e.Snapshot()
	assert.Len(t, recs, 2)
}

func TestExporterRunFailureEmitsNothing(t *testing.T) {
	e := New(&fakeRunner{err: errors.New("boom")})
	assert.Equal(t, 0, testutil.CollectAndCount(e))
}

func TestMergeLabelsOrder(t *testing.T) {
	_, labels := mergeLabels(
		BatchMetricsOpts{VariableLabels: []string{"interface", "netns"}},
		SingleMetricsOpts{Name: "x", VariableLabels: []string{"type"}},
	)
	assert.Equal(t, []string{"interface", "netns", "type"}, labels)

	assert.Panics(t, func() {
		mergeLabels(
			BatchMetricsOpts{VariableLabels: []string{"interface"}},
			SingleMetricsOpts{Name: "x", VariableLabels: []string{"interface"}},
		)
	})
}

func TestBatchMetricsUndeclared(t *testing.T) {
	b := NewBatchMetrics(BatchMetricsOpts{
		Namespace: "test",
		Subsystem: "batch",
		SingleMetricsOpts: []SingleMetricsOpts{
			{Name: "known", Help: "known", ValueType: prometheus.GaugeValue},
		},
	}, func(emit Emit) error {
		emit("known", nil, 1)
		emit("unknown", nil, 2)
		return nil
	})
	assert.Equal(t, 1, testutil.CollectAndCount(b))
}

func TestPCITableCache(t *testing.T) {
	loads := 0
	c := NewPCITableCache(time.Hour, func() pci.Table {
		loads++
		return pci.Table{}
	})
	c.Get()
	c.Get()
	assert.Equal(t, 1, loads)

	c.SetTTL(time.Minute)
	c.Get()
	assert.Equal(t, 2, loads)
}
