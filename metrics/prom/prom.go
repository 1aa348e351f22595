package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/smartcache/cache"
)

// Adapter implements cache.Observer and exports Prometheus counters/gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	events   *prometheus.CounterVec
	sizeEnt  *prometheus.GaugeVec
	sizeByte *prometheus.GaugeVec
	depth    *prometheus.GaugeVec
}

// New constructs a Prometheus observer adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
//
// Every metric carries a "store" label so one adapter can serve several stores.
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "events_total",
				Help:        "Store events by kind and operation",
				ConstLabels: constLabels,
			},
			[]string{"store", "kind", "op"},
		),
		sizeEnt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_entries",
			Help:        "Number of live entries",
			ConstLabels: constLabels,
		}, []string{"store"}),
		sizeByte: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_bytes",
			Help:        "Total Sizer bytes of live entries",
			ConstLabels: constLabels,
		}, []string{"store"}),
		depth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "context_depth",
			Help:        "Context stack depth after the last push/pop",
			ConstLabels: constLabels,
		}, []string{"store"}),
	}
	reg.MustRegister(a.events, a.sizeEnt, a.sizeByte, a.depth)
	return a
}

// OnEvent counts the event and refreshes the size gauges.
func (a *Adapter) OnEvent(e cache.Event) {
	a.events.WithLabelValues(e.Store, e.Kind.String(), e.Op).Inc()
	a.sizeEnt.WithLabelValues(e.Store).Set(float64(e.Entries))
	a.sizeByte.WithLabelValues(e.Store).Set(float64(e.Bytes))
	if e.Kind == cache.EventContextPushed || e.Kind == cache.EventContextPopped {
		a.depth.WithLabelValues(e.Store).Set(float64(e.Depth))
	}
}

// Compile-time check: ensure Adapter implements cache.Observer.
var _ cache.Observer = (*Adapter)(nil)
