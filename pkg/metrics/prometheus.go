// Package metrics provides Prometheus metrics for persona pipeline runs.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics of a pipeline process.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         *prometheus.Registry

	// Pipeline volume
	transactionsLoaded prometheus.Counter
	groups             prometheus.Gauge
	personaRows        prometheus.Gauge
	personas           prometheus.Gauge
	unresolvedAges     prometheus.Counter
	segmentSize        *prometheus.GaugeVec
	segmentMeanPrice   *prometheus.GaugeVec

	// Pipeline health
	runs          *prometheus.CounterVec
	stageErrors   *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	lastRunUnix   prometheus.Gauge

	// Segment table
	storedPersonas prometheus.Gauge
	lookups        *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "persona",
		subsystem:        "pipeline",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		constLabels:      make(map[string]string),
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// Registry returns the registry the manager's metrics live in.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one block per metric
	auto := promauto.With(m.registry)

	m.transactionsLoaded = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "transactions_loaded_total",
		Help:        "Total number of transaction records loaded",
		ConstLabels: m.constLabels,
	})

	m.groups = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "demographic_groups",
		Help:        "Distinct (country, source, sex, age) groups in the last run",
		ConstLabels: m.constLabels,
	})

	m.personaRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "persona_rows",
		Help:        "Persona rows before deduplication in the last run",
		ConstLabels: m.constLabels,
	})

	m.personas = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "personas",
		Help:        "Unique persona keys after deduplication in the last run",
		ConstLabels: m.constLabels,
	})

	m.unresolvedAges = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "unresolved_ages_total",
		Help:        "Group rows whose age fell outside every bucket",
		ConstLabels: m.constLabels,
	})

	m.segmentSize = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "segment_personas",
			Help:        "Number of personas per segment label in the last run",
			ConstLabels: m.constLabels,
		},
		[]string{"segment"},
	)

	m.segmentMeanPrice = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "segment_mean_price",
			Help:        "Mean persona price per segment label in the last run",
			ConstLabels: m.constLabels,
		},
		[]string{"segment"},
	)

	m.runs = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "runs_total",
			Help:        "Pipeline runs by outcome",
			ConstLabels: m.constLabels,
		},
		[]string{"status"},
	)

	m.stageErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "stage_errors_total",
			Help:        "Pipeline failures by stage",
			ConstLabels: m.constLabels,
		},
		[]string{"stage"},
	)

	m.stageDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "stage_duration_milliseconds",
			Help:        "Duration of each pipeline stage in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"stage"},
	)

	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_run_timestamp_seconds",
		Help:        "Unix time the last successful run finished",
		ConstLabels: m.constLabels,
	})

	m.storedPersonas = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "store",
		Name:        "personas",
		Help:        "Personas held in the segment table",
		ConstLabels: m.constLabels,
	})

	m.lookups = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   "store",
			Name:        "lookups_total",
			Help:        "Persona lookups by result",
			ConstLabels: m.constLabels,
		},
		[]string{"result"},
	)
}

// RecordTransactionsLoaded adds n to the loaded transactions counter.
func RecordTransactionsLoaded(n int) {
	globalManager.transactionsLoaded.Add(float64(n))
}

// UpdateGroups sets the number of demographic groups.
func UpdateGroups(n int) {
	globalManager.groups.Set(float64(n))
}

// UpdatePersonaRows sets the number of persona rows before deduplication.
func UpdatePersonaRows(n int) {
	globalManager.personaRows.Set(float64(n))
}

// UpdatePersonas sets the number of unique personas.
func UpdatePersonas(n int) {
	globalManager.personas.Set(float64(n))
}

// RecordUnresolvedAges adds n to the unresolved age counter.
func RecordUnresolvedAges(n int) {
	globalManager.unresolvedAges.Add(float64(n))
}

// UpdateSegment sets size and mean price of one segment label.
func UpdateSegment(label string, count int, meanPrice float64) {
	globalManager.segmentSize.WithLabelValues(label).Set(float64(count))
	globalManager.segmentMeanPrice.WithLabelValues(label).Set(meanPrice)
}

// ResetSegments clears per-label gauges before a new run publishes its own.
func ResetSegments() {
	globalManager.segmentSize.Reset()
	globalManager.segmentMeanPrice.Reset()
}

// RecordRun counts a finished run; status is "success" or "failure".
func RecordRun(status string) {
	globalManager.runs.WithLabelValues(status).Inc()
}

// RecordStageError counts a failure in stage.
func RecordStageError(stage string) {
	globalManager.stageErrors.WithLabelValues(stage).Inc()
}

// RecordStageDuration observes the duration of stage in milliseconds.
func RecordStageDuration(stage string, durationMs float64) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(durationMs)
}

// UpdateLastRunUnix records the completion time of a successful run.
func UpdateLastRunUnix(ts float64) {
	globalManager.lastRunUnix.Set(ts)
}

// UpdateStoredPersonas sets the size of the segment table.
func UpdateStoredPersonas(n int) {
	globalManager.storedPersonas.Set(float64(n))
}

// RecordLookup counts a lookup as a hit or a miss.
func RecordLookup(found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	globalManager.lookups.WithLabelValues(result).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the current metrics to path in the text exposition
// format read by the node_exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	return nil
}
