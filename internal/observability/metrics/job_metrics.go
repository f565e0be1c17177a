package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/smallbiznis/referral/pkg/db"
	"go.uber.org/zap"
)

// Config configures the job metrics registry.
type Config struct {
	ServiceName    string
	Environment    string
	PushgatewayURL string
}

const (
	JobReasonDeadlineExceeded = "deadline_exceeded"
	JobReasonConnectivity     = "connectivity"
	JobReasonUnknown          = "unknown"
)

const (
	SkipReasonEmptyPeriod   = "empty_period"
	SkipReasonBadPeriod     = "bad_period"
	SkipReasonStillWaiting  = "still_waiting"
	SkipReasonLookupFailure = "lookup_failure"
)

// JobMetrics captures batch run health signals. The process is short-lived,
// so metrics are pushed to a Pushgateway at the end of a run instead of
// being scraped.
type JobMetrics struct {
	registry *prometheus.Registry
	pushURL  string
	jobName  string

	jobRuns        *prometheus.CounterVec
	jobErrors      *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	rowsPublished  prometheus.Counter
	patchesApplied prometheus.Counter
	rowsSkipped    *prometheus.CounterVec
}

func New(cfg Config) *JobMetrics {
	service := strings.TrimSpace(cfg.ServiceName)
	if service == "" {
		service = "referral-reporter"
	}
	constLabels := prometheus.Labels{
		"service": service,
		"env":     cfg.Environment,
	}

	registry := prometheus.NewRegistry()
	m := &JobMetrics{
		registry: registry,
		pushURL:  strings.TrimSpace(cfg.PushgatewayURL),
		jobName:  service,
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "referral_job_runs_total",
			Help:        "Total job executions.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "referral_job_errors_total",
			Help:        "Total job failures by reason.",
			ConstLabels: constLabels,
		}, []string{"job", "reason"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "referral_job_duration_seconds",
			Help:        "Job wall duration.",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"job"}),
		rowsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "referral_rows_published_total",
			Help:        "Report rows written to the ledger sheet.",
			ConstLabels: constLabels,
		}),
		patchesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "referral_status_patches_total",
			Help:        "Pending-ledger status cells patched.",
			ConstLabels: constLabels,
		}),
		rowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "referral_rows_skipped_total",
			Help:        "Units skipped during a run by reason.",
			ConstLabels: constLabels,
		}, []string{"reason"}),
	}

	registry.MustRegister(
		m.jobRuns,
		m.jobErrors,
		m.jobDuration,
		m.rowsPublished,
		m.patchesApplied,
		m.rowsSkipped,
	)
	return m
}

func (m *JobMetrics) IncJobRun(job string) {
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *JobMetrics) ObserveJobDuration(job string, d time.Duration) {
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *JobMetrics) IncJobError(job string, err error) {
	m.jobErrors.WithLabelValues(job, reasonFor(err)).Inc()
}

func (m *JobMetrics) AddRowsPublished(n int) {
	m.rowsPublished.Add(float64(n))
}

func (m *JobMetrics) AddPatchesApplied(n int) {
	m.patchesApplied.Add(float64(n))
}

func (m *JobMetrics) IncSkipped(reason string) {
	m.rowsSkipped.WithLabelValues(reason).Inc()
}

func (m *JobMetrics) AddSkipped(reason string, n int) {
	m.rowsSkipped.WithLabelValues(reason).Add(float64(n))
}

// Registry exposes the backing registry for tests and the pusher.
func (m *JobMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Push publishes the run's metrics. A missing gateway URL disables the
// push; a push failure is logged and never fails the run.
func (m *JobMetrics) Push(ctx context.Context, log *zap.Logger) {
	if m.pushURL == "" {
		return
	}
	err := push.New(m.pushURL, m.jobName).
		Gatherer(m.registry).
		AddContext(ctx)
	if err != nil {
		log.Warn("metrics push failed", zap.String("gateway", m.pushURL), zap.Error(err))
	}
}

func reasonFor(err error) string {
	switch {
	case err == nil:
		return JobReasonUnknown
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return JobReasonDeadlineExceeded
	case db.IsConnectivityErr(err):
		return JobReasonConnectivity
	default:
		return JobReasonUnknown
	}
}
