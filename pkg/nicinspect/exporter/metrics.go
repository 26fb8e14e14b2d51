package exporter

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
)

type Emit func(name string, labels []string, val float64)

type CollectFunc func(emit Emit) error

type SingleMetricsOpts struct {
	Name           string
	Help           string
	ConstLabels    map[string]string
	VariableLabels []string
	ValueType      prometheus.ValueType
}

type BatchMetricsOpts struct {
	Namespace         string
	Subsystem         string
	ConstLabels       map[string]string
	VariableLabels    []string
	SingleMetricsOpts []SingleMetricsOpts
}

type metricsInfo struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
}

// BatchMetrics exposes a family of const metrics filled by one collect pass.
// Label values are passed to Emit as the batch labels followed by the
// metric's own labels.
type BatchMetrics struct {
	name    string
	infoMap map[string]*metricsInfo
	collect CollectFunc
}

func NewBatchMetrics(opts BatchMetricsOpts, collect CollectFunc) *BatchMetrics {
	m := make(map[string]*metricsInfo)
	for _, metrics := range opts.SingleMetricsOpts {
		constLabels, variableLabels := mergeLabels(opts, metrics)
		desc := prometheus.NewDesc(
			prometheus.BuildFQName(opts.Namespace, opts.Subsystem, metrics.Name),
			metrics.Help,
			variableLabels,
			constLabels,
		)
		m[metrics.Name] = &metricsInfo{
			desc:      desc,
			valueType: metrics.ValueType,
		}
	}

	return &BatchMetrics{
		name:    fmt.Sprintf("%s_%s", opts.Namespace, opts.Subsystem),
		infoMap: m,
		collect: collect,
	}
}

func (b *BatchMetrics) Describe(descs chan<- *prometheus.Desc) {
	for _, info := range b.infoMap {
		descs <- info.desc
	}
}

func (b *BatchMetrics) Collect(metrics chan<- prometheus.Metric) {
	emit := func(name string, labels []string, val float64) {
		info, ok := b.infoMap[name]
		if !ok {
			log.Errorf("%s undeclared metrics %s", b.name, name)
			return
		}
		m, err := prometheus.NewConstMetric(info.desc, info.valueType, val, labels...)
		if err != nil {
			log.Errorf("%s invalid metrics %s: %v", b.name, name, err)
			return
		}
		metrics <- m
	}

	if err := b.collect(emit); err != nil {
		log.Errorf("%s error collect, err: %v", b.name, err)
	}
}

func mergeLabels(opts BatchMetricsOpts, metrics SingleMetricsOpts) (map[string]string, []string) {
	constLabels := make(map[string]string)
	maps.Copy(constLabels, opts.ConstLabels)
	maps.Copy(constLabels, metrics.ConstLabels)

	seen := make(map[string]bool)
	var variableLabels []string
	for _, l := range append(append([]string{}, opts.VariableLabels...), metrics.VariableLabels...) {
		if seen[l] {
			panic(fmt.Sprintf("metric label %s declared twice for %s", l, metrics.Name))
		}
		seen[l] = true
		variableLabels = append(variableLabels, l)
	}
	return constLabels, variableLabels
}

var _ prometheus.Collector = &BatchMetrics{}
