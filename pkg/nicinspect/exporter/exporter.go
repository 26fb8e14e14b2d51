// Package exporter publishes interface records as Prometheus metrics.
package exporter

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/alibaba/nicinspect/pkg/nicinspect/engine"
	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
)

const (
	MetricsNamespace = "nicinspect"
	MetricsSubsystem = "interface"
)

const (
	metricUp              = "up"
	metricLinkDetected    = "link_detected"
	metricMTU             = "mtu"
	metricRxBytes         = "receive_bytes_total"
	metricRxPackets       = "receive_packets_total"
	metricTxBytes         = "transmit_bytes_total"
	metricTxPackets       = "transmit_packets_total"
	metricRingSize        = "ring_size"
	metricChannels        = "channels"
	metricFeatureCount    = "features"
	metricInfo            = "info"
	metricCollectFailures = "collect_failure"
)

// Runner is satisfied by *engine.Engine.
type Runner interface {
	Run(ctx context.Context) ([]engine.Result, error)
}

type Exporter struct {
	runner  Runner
	metrics *BatchMetrics

	// scrapes run one at a time, each enters every namespace
	runMu sync.Mutex

	mu         sync.RWMutex
	records    []*model.InterfaceRecord
	lastUpdate time.Time
}

func New(runner Runner) *Exporter {
	e := &Exporter{runner: runner}
	e.metrics = NewBatchMetrics(BatchMetricsOpts{
		Namespace:      MetricsNamespace,
		Subsystem:      MetricsSubsystem,
		VariableLabels: []string{"interface", "netns"},
		SingleMetricsOpts: []SingleMetricsOpts{
			{Name: metricUp, Help: "Administrative state of the interface.", ValueType: prometheus.GaugeValue},
			{Name: metricLinkDetected, Help: "Whether a link is detected.", ValueType: prometheus.GaugeValue},
			{Name: metricMTU, Help: "Interface MTU in bytes.", ValueType: prometheus.GaugeValue},
			{Name: metricRxBytes, Help: "Received bytes.", ValueType: prometheus.CounterValue},
			{Name: metricRxPackets, Help: "Received packets.", ValueType: prometheus.CounterValue},
			{Name: metricTxBytes, Help: "Transmitted bytes.", ValueType: prometheus.CounterValue},
			{Name: metricTxPackets, Help: "Transmitted packets.", ValueType: prometheus.CounterValue},
			{Name: metricRingSize, Help: "Configured ring size.", VariableLabels: []string{"direction"}, ValueType: prometheus.GaugeValue},
			{Name: metricChannels, Help: "Configured channel count.", VariableLabels: []string{"type"}, ValueType: prometheus.GaugeValue},
			{Name: metricFeatureCount, Help: "Number of active offload features.", ValueType: prometheus.GaugeValue},
			{
				Name:           metricInfo,
				Help:           "Driver and hardware identity, always 1.",
				VariableLabels: []string{"mac", "driver", "driver_version", "pci_address", "device", "media"},
				ValueType:      prometheus.GaugeValue,
			},
			{Name: metricCollectFailures, Help: "1 when the last scrape could not read the interface.", ValueType: prometheus.GaugeValue},
		},
	}, e.collect)
	return e
}

func (e *Exporter) Describe(descs chan<- *prometheus.Desc) {
	e.metrics.Describe(descs)
}

func (e *Exporter) Collect(metrics chan<- prometheus.Metric) {
	e.metrics.Collect(metrics)
}

// Snapshot returns the records of the last successful scrape.
func (e *Exporter) Snapshot() ([]*model.InterfaceRecord, time.Time) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.records, e.lastUpdate
}

// Refresh runs the engine and keeps its records for Snapshot.
func (e *Exporter) Refresh(ctx context.Context) ([]engine.Result, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	start := time.Now()
	results, err := e.runner.Run(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]*model.InterfaceRecord, 0, len(results))
	for _, r := range results {
		if r.Record != nil {
			records = append(records, r.Record)
		}
	}

	e.mu.Lock()
	e.records = records
	e.lastUpdate = start
	e.mu.Unlock()
	log.Debugf("collected %d interfaces in %s", len(records), time.Since(start))
	return results, nil
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (e *Exporter) collect(emit Emit) error {
	results, err := e.Refresh(context.Background())
	if err != nil {
		return err
	}
	for _, r := range results {
		labels := []string{r.Handle.Name, r.Handle.Namespace}
		if r.Err != nil {
			log.WithField("interface", r.Handle.String()).Debugf("skip metrics: %v", r.Err)
			emit(metricCollectFailures, labels, 1)
			continue
		}
		emit(metricCollectFailures, labels, 0)
		emitRecord(emit, labels, r.Record)
	}
	return nil
}

func emitRecord(emit Emit, labels []string, rec *model.InterfaceRecord) {
	with := func(extra ...string) []string {
		return append(append([]string{}, labels...), extra...)
	}

	emit(metricUp, labels, boolValue(rec.Up))
	emit(metricLinkDetected, labels, boolValue(rec.LinkDetected))
	emit(metricMTU, labels, float64(rec.MTU))

	if c := rec.Counters; c != nil {
		emit(metricRxBytes, labels, float64(c.RxBytes))
		emit(metricRxPackets, labels, float64(c.RxPackets))
		emit(metricTxBytes, labels, float64(c.TxBytes))
		emit(metricTxPackets, labels, float64(c.TxPackets))
	}
	if rg := rec.Rings; rg != nil {
		emit(metricRingSize, with("rx"), float64(rg.RX))
		emit(metricRingSize, with("tx"), float64(rg.TX))
	}
	if ch := rec.Channels; ch != nil {
		emit(metricChannels, with("rx"), float64(ch.RX))
		emit(metricChannels, with("tx"), float64(ch.TX))
		emit(metricChannels, with("other"), float64(ch.Other))
		emit(metricChannels, with("combined"), float64(ch.Combined))
	}
	if rec.Features != nil {
		emit(metricFeatureCount, labels, float64(len(rec.Features)))
	}

	var driver, driverVersion, pciAddr, device string
	if d := rec.Driver; d != nil {
		driver, driverVersion = d.Driver, d.Version
	}
	if p := rec.PCI; p != nil {
		pciAddr, device = p.Address(), p.Identity()
	}
	emit(metricInfo, with(rec.MAC, driver, driverVersion, pciAddr, device, rec.Media), 1)
}

// FormatAge renders how long ago a snapshot was taken, for HTTP headers.
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return "-1"
	}
	return strconv.FormatInt(int64(time.Since(t).Seconds()), 10)
}

var _ prometheus.Collector = &Exporter{}
