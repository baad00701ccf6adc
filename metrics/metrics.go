// Package metrics exposes relay statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xaionaro-go/avrelay/relay"
)

const namespace = "avrelay"

var (
	pullsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "relay", "pulls_total"),
		"Total number of pulls from the decoding stage",
		[]string{"relay"}, nil,
	)
	pushesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "relay", "pushes_total"),
		"Total number of pushes into the encoding stage",
		[]string{"relay"}, nil,
	)
	samplesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "relay", "samples_total"),
		"Total number of samples relayed",
		[]string{"relay"}, nil,
	)
	bytesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "relay", "bytes_total"),
		"Total number of payload bytes relayed",
		[]string{"relay"}, nil,
	)
	eosDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "relay", "eos_pushes_total"),
		"Total number of end-of-stream signals sent to the encoding stage",
		[]string{"relay"}, nil,
	)
)

// RelayCollector reads the counters of a relay on every scrape.
type RelayCollector struct {
	Name       string
	Statistics *relay.Statistics
}

var _ prometheus.Collector = (*RelayCollector)(nil)

func NewRelayCollector(
	name string,
	stats *relay.Statistics,
) *RelayCollector {
	return &RelayCollector{
		Name:       name,
		Statistics: stats,
	}
}

func (c *RelayCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- pullsDesc
	ch <- pushesDesc
	ch <- samplesDesc
	ch <- bytesDesc
	ch <- eosDesc
}

func (c *RelayCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.Statistics.Convert()
	for _, m := range []struct {
		desc  *prometheus.Desc
		value uint64
	}{
		{pullsDesc, s.Pulls},
		{pushesDesc, s.Pushes},
		{samplesDesc, s.SamplesRelayed},
		{bytesDesc, s.BytesRelayed},
		{eosDesc, s.EndOfStreamPushes},
	} {
		ch <- prometheus.MustNewConstMetric(m.desc, prometheus.CounterValue, float64(m.value), c.Name)
	}
}
