// Package metrics exposes rebalance passes as prometheus metrics
package metrics

import (
	"errors"
	"time"

	"github.com/hextechpal/streambalancer"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "streambalancer"

// Collector records every pass run by a streambalancer.Balancer
type Collector struct {
	passes    *prometheus.CounterVec
	reclaimed *prometheus.CounterVec
	failures  *prometheus.CounterVec
	deleted   prometheus.Counter
	consumers *prometheus.GaugeVec
	duration  prometheus.Histogram
}

var _ streambalancer.Observer = (*Collector)(nil)

// NewCollector registers the metrics on reg, prometheus.DefaultRegisterer when nil
func NewCollector(reg prometheus.Registerer, namespace string) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = defaultNamespace
	}
	c := &Collector{
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Rebalance passes by outcome",
		}, []string{"outcome"}),
		reclaimed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reclaimed_entries_total",
			Help:      "Pending entries moved back to the stream by origin",
		}, []string{"origin"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reclaim_failures_total",
			Help:      "Pending entries which could not be reclaimed by failed stage",
		}, []string{"stage"}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deleted_consumers_total",
			Help:      "Inactive consumers removed from the group",
		}),
		consumers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "consumers",
			Help:      "Consumers seen in the last pass by state",
		}, []string{"state"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of rebalance passes",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	for _, m := range []prometheus.Collector{c.passes, c.reclaimed, c.failures, c.deleted, c.consumers, c.duration} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) ObservePass(res *streambalancer.Result, err error, elapsed time.Duration) {
	if errors.Is(err, streambalancer.ErrRebalanceInProgress) {
		c.passes.WithLabelValues("skipped").Inc()
		return
	}
	c.duration.Observe(elapsed.Seconds())
	if err != nil {
		c.passes.WithLabelValues("error").Inc()
		return
	}
	c.passes.WithLabelValues("ok").Inc()
	c.reclaimed.WithLabelValues(string(streambalancer.OriginInactive)).Add(float64(res.ReclaimStats.FromInactiveConsumers))
	c.reclaimed.WithLabelValues(string(streambalancer.OriginActive)).Add(float64(res.ReclaimStats.FromActiveConsumers))
	for _, f := range res.Failures {
		c.failures.WithLabelValues(string(f.Stage)).Inc()
	}
	c.deleted.Add(float64(len(res.DeletedConsumers)))
	c.consumers.WithLabelValues("active").Set(float64(len(res.ActiveConsumers)))
	c.consumers.WithLabelValues("inactive").Set(float64(len(res.InactiveConsumers)))
}
