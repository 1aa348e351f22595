package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/smartcache/cache"
)

// StatsCollector exports a store's operation counters and per-context
// counts at scrape time. The source must be safe to read from the scrape
// goroutine: use a *cache.SyncStore.
type StatsCollector struct {
	src      cache.StatsSource
	counters map[string]*prometheus.Desc
	entries  *prometheus.Desc
	bytes    *prometheus.Desc
	contexts *prometheus.Desc
}

var _ prometheus.Collector = (*StatsCollector)(nil)

// NewStatsCollector builds a collector for src. Register it with
// reg.MustRegister; metric names are <ns>_<sub>_<counter>_total.
func NewStatsCollector(src cache.StatsSource, ns, sub string) *StatsCollector {
	labels := prometheus.Labels{"store": src.Name()}
	c := &StatsCollector{
		src:      src,
		counters: make(map[string]*prometheus.Desc, len(cache.StatNames())),
		entries: prometheus.NewDesc(prometheus.BuildFQName(ns, sub, "entries"),
			"Number of live entries", nil, labels),
		bytes: prometheus.NewDesc(prometheus.BuildFQName(ns, sub, "bytes"),
			"Total Sizer bytes of live entries", nil, labels),
		contexts: prometheus.NewDesc(prometheus.BuildFQName(ns, sub, "context_entries"),
			"Live entries per context (ALL is the aggregate)", []string{"context"}, labels),
	}
	for _, name := range cache.StatNames() {
		c.counters[name] = prometheus.NewDesc(prometheus.BuildFQName(ns, sub, name+"_total"),
			"Store counter "+name, nil, labels)
	}
	return c
}

// Describe implements prometheus.Collector.
func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, name := range cache.StatNames() {
		ch <- c.counters[name]
	}
	ch <- c.entries
	ch <- c.bytes
	ch <- c.contexts
}

// Collect implements prometheus.Collector.
func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Stats().Map()
	for _, name := range cache.StatNames() {
		ch <- prometheus.MustNewConstMetric(c.counters[name], prometheus.CounterValue, float64(st[name]))
	}
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(c.src.Len()))
	ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.GaugeValue, float64(c.src.Bytes()))
	for ctx, n := range c.src.ContextCounts() {
		ch <- prometheus.MustNewConstMetric(c.contexts, prometheus.GaugeValue, float64(n), ctx)
	}
}
