package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusConfig configures the Prometheus reporter.
type PrometheusConfig struct {
	// Namespace is the metrics namespace (default: "hermes").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for stopwatch metrics.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// PrometheusOption configures the Prometheus reporter.
type PrometheusOption func(*PrometheusConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) PrometheusOption {
	return func(c *PrometheusConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) PrometheusOption {
	return func(c *PrometheusConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the stopwatch histogram buckets.
func WithBuckets(buckets []float64) PrometheusOption {
	return func(c *PrometheusConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) PrometheusOption {
	return func(c *PrometheusConfig) {
		c.Registry = registry
	}
}

func defaultPrometheusConfig() PrometheusConfig {
	return PrometheusConfig{
		Namespace: "hermes",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// PrometheusReporter exports recorded metrics through a Prometheus registry.
// Counters, gauges and stopwatch histograms are created lazily on first use;
// the group becomes the metric subsystem and dimension keys become labels.
type PrometheusReporter struct {
	cfg     PrometheusConfig
	factory promauto.Factory

	mu         sync.RWMutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusReporter creates a reporter registering on the configured
// registry. Install it with SetReporter to activate recording.
func NewPrometheusReporter(opts ...PrometheusOption) *PrometheusReporter {
	cfg := defaultPrometheusConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &PrometheusReporter{
		cfg:        cfg,
		factory:    promauto.With(cfg.Registry),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// IncrCounter implements Reporter.
func (r *PrometheusReporter) IncrCounter(group, name string, value Value, dim Dimension) {
	vec := r.counterVec(group, name, labelKeys(dim))
	m, err := vec.GetMetricWith(prometheus.Labels(dim))
	if err != nil {
		// Dimension keys differ from the ones the metric was created with.
		return
	}
	m.Add(float64(value))
}

// UpdateGauge implements Reporter.
func (r *PrometheusReporter) UpdateGauge(group, name string, value Value, dim Dimension) {
	vec := r.gaugeVec(group, name, labelKeys(dim))
	m, err := vec.GetMetricWith(prometheus.Labels(dim))
	if err != nil {
		return
	}
	m.Set(float64(value))
}

// RecordStopwatch implements Reporter.
func (r *PrometheusReporter) RecordStopwatch(group, name string, elapsed time.Duration, dim Dimension) {
	vec := r.histogramVec(group, name, labelKeys(dim))
	m, err := vec.GetMetricWith(prometheus.Labels(dim))
	if err != nil {
		return
	}
	m.Observe(elapsed.Seconds())
}

func (r *PrometheusReporter) counterVec(group, name string, labels []string) *prometheus.CounterVec {
	key := group + "/" + name
	r.mu.RLock()
	vec, ok := r.counters[key]
	r.mu.RUnlock()
	if ok {
		return vec
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if vec, ok = r.counters[key]; ok {
		return vec
	}
	vec = r.factory.NewCounterVec(prometheus.CounterOpts{
		Namespace:   r.cfg.Namespace,
		Subsystem:   sanitizeMetricName(group),
		Name:        sanitizeMetricName(name),
		Help:        "Counter " + name + " of group " + group,
		ConstLabels: r.cfg.ConstLabels,
	}, labels)
	r.counters[key] = vec
	return vec
}

func (r *PrometheusReporter) gaugeVec(group, name string, labels []string) *prometheus.GaugeVec {
	key := group + "/" + name
	r.mu.RLock()
	vec, ok := r.gauges[key]
	r.mu.RUnlock()
	if ok {
		return vec
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if vec, ok = r.gauges[key]; ok {
		return vec
	}
	vec = r.factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   r.cfg.Namespace,
		Subsystem:   sanitizeMetricName(group),
		Name:        sanitizeMetricName(name),
		Help:        "Gauge " + name + " of group " + group,
		ConstLabels: r.cfg.ConstLabels,
	}, labels)
	r.gauges[key] = vec
	return vec
}

func (r *PrometheusReporter) histogramVec(group, name string, labels []string) *prometheus.HistogramVec {
	key := group + "/" + name
	r.mu.RLock()
	vec, ok := r.histograms[key]
	r.mu.RUnlock()
	if ok {
		return vec
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if vec, ok = r.histograms[key]; ok {
		return vec
	}
	vec = r.factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   r.cfg.Namespace,
		Subsystem:   sanitizeMetricName(group),
		Name:        sanitizeMetricName(name) + "_seconds",
		Help:        "Stopwatch " + name + " of group " + group + " in seconds",
		ConstLabels: r.cfg.ConstLabels,
		Buckets:     r.cfg.Buckets,
	}, labels)
	r.histograms[key] = vec
	return vec
}

func labelKeys(dim Dimension) []string {
	if len(dim) == 0 {
		return nil
	}
	keys := make([]string, 0, len(dim))
	for k := range dim {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sanitizeMetricName maps arbitrary group/metric names onto the
// [a-zA-Z_][a-zA-Z0-9_]* charset Prometheus requires. Group names such
// as "conn.monitor" become "conn_monitor".
func sanitizeMetricName(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_':
		case c >= '0' && c <= '9' && i > 0:
		default:
			b[i] = '_'
		}
	}
	return string(b)
}
