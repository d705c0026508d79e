package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements Metrics on top of client_golang. The abasolve
// CLI does not construct or serve one; an embedder that does can mount
// Registry() on its own HTTP listener for scraping. Grounded on the pack's
// prometheus/client_golang dependency (carried by, among others, the
// AgentScheduler example manifest); abasolve is the first component in the
// repo to actually register and serve collectors with it.
type PrometheusMetrics struct {
	registry    *prometheus.Registry
	counters    map[string]*prometheus.CounterVec
	gauges      map[string]*prometheus.GaugeVec
	histograms  map[string]*prometheus.HistogramVec
}

// NewPrometheusMetrics creates a Metrics backend registered against a fresh
// prometheus.Registry, pre-declaring the vectors abasolve's own components
// emit so cardinality stays bounded.
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	m := &PrometheusMetrics{
		registry:   reg,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}

	m.declareCounter(MetricSolveTotal, "day", "coverage_mode")
	m.declareCounter(MetricSolveErrors, "")
	m.declareCounter(MetricCacheHits, "")
	m.declareCounter(MetricCacheMisses, "")
	m.declareCounter(MetricStoreQueries, "operation")
	m.declareCounter(MetricEventsPublished, "routing_key")
	m.declareGauge(MetricScheduleEntries, "day")
	m.declareGauge(MetricPolicyCircuitOpen, "")
	m.declareHistogram(MetricSolveDuration, "day")

	return m
}

// Registry returns the underlying prometheus.Registry for mounting
// promhttp.HandlerFor on an HTTP mux.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *PrometheusMetrics) declareCounter(name string, labelNames ...string) {
	labels := nonEmpty(labelNames)
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: metricName(name), Help: name}, labels)
	m.registry.MustRegister(vec)
	m.counters[name] = vec
}

func (m *PrometheusMetrics) declareGauge(name string, labelNames ...string) {
	labels := nonEmpty(labelNames)
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: metricName(name), Help: name}, labels)
	m.registry.MustRegister(vec)
	m.gauges[name] = vec
}

func (m *PrometheusMetrics) declareHistogram(name string, labelNames ...string) {
	labels := nonEmpty(labelNames)
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metricName(name),
		Help:    name,
		Buckets: prometheus.DefBuckets,
	}, labels)
	m.registry.MustRegister(vec)
	m.histograms[name] = vec
}

func (m *PrometheusMetrics) Counter(name string, value int64, tags ...Tag) {
	vec, ok := m.counters[name]
	if !ok {
		return
	}
	vec.With(tagValues(tags)).Add(float64(value))
}

func (m *PrometheusMetrics) Gauge(name string, value float64, tags ...Tag) {
	vec, ok := m.gauges[name]
	if !ok {
		return
	}
	vec.With(tagValues(tags)).Set(value)
}

func (m *PrometheusMetrics) Histogram(name string, value float64, tags ...Tag) {
	vec, ok := m.histograms[name]
	if !ok {
		return
	}
	vec.With(tagValues(tags)).Observe(value)
}

func (m *PrometheusMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.Histogram(name, duration.Seconds(), tags...)
}

func metricName(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			out = append(out, '_')
		} else {
			out = append(out, name[i])
		}
	}
	return string(out)
}

func nonEmpty(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// tagValues builds the label map for a CounterVec/GaugeVec/HistogramVec
// from the caller's variadic Tags. Callers must pass tags matching the
// label names declared for that metric in declareCounter/declareGauge/
// declareHistogram above.
func tagValues(tags []Tag) prometheus.Labels {
	labels := prometheus.Labels{}
	for _, t := range tags {
		labels[t.Key] = t.Value
	}
	return labels
}
