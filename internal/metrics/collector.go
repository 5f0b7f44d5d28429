// Package metrics exports runtime events as Prometheus metrics.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "qom"

// Collector counts type registrations, class materializations and object
// lifetimes. It implements qom.Hooks.
type Collector struct {
	typesRegistered  prometheus.Counter
	classesBuilt     *prometheus.CounterVec
	objectsCreated   *prometheus.CounterVec
	objectsFinalized *prometheus.CounterVec
	objectsLive      *prometheus.GaugeVec
}

// NewCollector creates a collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		typesRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "types",
			Name:      "registered_total",
			Help:      "Types registered with the runtime.",
		}),
		classesBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classes",
			Name:      "materialized_total",
			Help:      "Classes materialized, by type.",
		}, []string{"type"}),
		objectsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "objects",
			Name:      "created_total",
			Help:      "Objects initialized, by type.",
		}, []string{"type"}),
		objectsFinalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "objects",
			Name:      "finalized_total",
			Help:      "Objects finalized, by type.",
		}, []string{"type"}),
		objectsLive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "objects",
			Name:      "live",
			Help:      "Objects initialized and not yet finalized, by type.",
		}, []string{"type"}),
	}
	for _, m := range []prometheus.Collector{
		c.typesRegistered, c.classesBuilt, c.objectsCreated, c.objectsFinalized, c.objectsLive,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) TypeRegistered(string) {
	c.typesRegistered.Inc()
}

func (c *Collector) ClassMaterialized(name string) {
	c.classesBuilt.WithLabelValues(name).Inc()
}

func (c *Collector) ObjectCreated(typeName string) {
	c.objectsCreated.WithLabelValues(typeName).Inc()
	c.objectsLive.WithLabelValues(typeName).Inc()
}

func (c *Collector) ObjectFinalized(typeName string) {
	c.objectsFinalized.WithLabelValues(typeName).Inc()
	c.objectsLive.WithLabelValues(typeName).Dec()
}

// WriteText gathers g and writes it in the Prometheus text exposition
// format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
