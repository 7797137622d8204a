package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
)

// PipelineMetrics observes classification and matching passes and the
// jobs that trigger them.
type PipelineMetrics struct {
	registry *prometheus.Registry
	service  string

	entriesTotal     *prometheus.CounterVec
	classifyDuration *prometheus.HistogramVec
	entriesInFlight  prometheus.Gauge
	findingsTotal    *prometheus.CounterVec
	checkpointsTotal *prometheus.CounterVec
	matchesTotal     *prometheus.CounterVec
	jobsTotal        *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	entriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "classify",
			Name:      "entries_total",
			Help:      "Catalog entries completed by outcome.",
		},
		[]string{"service", "outcome"},
	)
	classifyDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "catalog",
			Subsystem: "classify",
			Name:      "entry_duration_seconds",
			Help:      "Per-entry classification duration in seconds by outcome.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"service", "outcome"},
	)
	entriesInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "catalog",
			Subsystem: "classify",
			Name:      "entries_in_flight",
			Help:      "Number of catalog entries awaiting a classification response.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	findingsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "classify",
			Name:      "findings_total",
			Help:      "AI related sub-services found by flag.",
		},
		[]string{"service", "flag"},
	)
	checkpointsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "classify",
			Name:      "checkpoints_total",
			Help:      "Committed classification checkpoints.",
		},
		[]string{"service"},
	)
	matchesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "match",
			Name:      "matches_total",
			Help:      "Agency to service matches recorded by confidence.",
		},
		[]string{"service", "confidence"},
	)
	jobsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "worker",
			Name:      "jobs_total",
			Help:      "Pipeline jobs handled by kind and status.",
		},
		[]string{"service", "kind", "status"},
	)
	jobDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "catalog",
			Subsystem: "worker",
			Name:      "job_duration_seconds",
			Help:      "Pipeline job duration in seconds by kind.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 3600},
		},
		[]string{"service", "kind"},
	)

	registry.MustRegister(
		entriesTotal,
		classifyDuration,
		entriesInFlight,
		findingsTotal,
		checkpointsTotal,
		matchesTotal,
		jobsTotal,
		jobDuration,
	)

	return &PipelineMetrics{
		registry:         registry,
		service:          service,
		entriesTotal:     entriesTotal,
		classifyDuration: classifyDuration,
		entriesInFlight:  entriesInFlight,
		findingsTotal:    findingsTotal,
		checkpointsTotal: checkpointsTotal,
		matchesTotal:     matchesTotal,
		jobsTotal:        jobsTotal,
		jobDuration:      jobDuration,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) EntryStarted() {
	m.entriesInFlight.Inc()
}

func (m *PipelineMetrics) EntryFinished(outcome string, findings []domain.ServiceClassification, seconds float64) {
	m.entriesInFlight.Dec()
	if outcome == "" {
		outcome = "unknown"
	}
	m.entriesTotal.WithLabelValues(m.service, outcome).Inc()
	m.classifyDuration.WithLabelValues(m.service, outcome).Observe(seconds)

	for _, f := range findings {
		if f.HasAI {
			m.findingsTotal.WithLabelValues(m.service, string(domain.FlagAI)).Inc()
		}
		if f.HasGenAI {
			m.findingsTotal.WithLabelValues(m.service, string(domain.FlagGenAI)).Inc()
		}
		if f.HasLLM {
			m.findingsTotal.WithLabelValues(m.service, string(domain.FlagLLM)).Inc()
		}
	}
}

func (m *PipelineMetrics) CheckpointCommitted() {
	m.checkpointsTotal.WithLabelValues(m.service).Inc()
}

func (m *PipelineMetrics) MatchRecorded(confidence domain.Confidence) {
	m.matchesTotal.WithLabelValues(m.service, string(confidence)).Inc()
}

func (m *PipelineMetrics) FinishJob(kind domain.JobKind, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.jobsTotal.WithLabelValues(m.service, string(kind), status).Inc()
	m.jobDuration.WithLabelValues(m.service, string(kind)).Observe(duration.Seconds())
}
