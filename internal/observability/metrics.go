// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	// Oracle metrics
	OracleCalls       *prometheus.CounterVec
	OracleRetries     *prometheus.CounterVec
	OracleCallLatency *prometheus.HistogramVec

	// Batch metrics
	BatchItems *prometheus.CounterVec

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	PipelineRecords   *prometheus.GaugeVec

	// Domain gauges
	RegistrySize        prometheus.Gauge
	ActivityScaleFactor prometheus.Gauge

	// Health metrics
	LastSuccessfulRun *prometheus.GaugeVec
}

// NewMetrics creates a Metrics instance registered on reg. A nil reg uses a
// fresh registry, so repeated calls never collide.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = "skr_stats"
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,

		OracleCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "calls_total",
			Help:      "Total number of oracle calls by operation and outcome",
		}, []string{"op", "outcome"}),
		OracleRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "retries_total",
			Help:      "Total number of oracle retries by operation and reason",
		}, []string{"op", "reason"}),
		OracleCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "call_latency_seconds",
			Help:      "Oracle call latency in seconds, including retries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),

		BatchItems: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "items_total",
			Help:      "Total number of batch items processed by stage and outcome",
		}, []string{"stage", "outcome"}),

		PipelineRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by stage and status",
		}, []string{"stage", "status"}),
		PipelineDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Stage execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}, []string{"stage"}),
		PipelineRecords: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "records",
			Help:      "Records written by the last run of each stage",
		}, []string{"stage"}),

		RegistrySize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "wallets",
			Help:      "Number of wallets in the registry",
		}),
		ActivityScaleFactor: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "activity",
			Name:      "scale_factor",
			Help:      "Scale factor applied to the last activity sample",
		}),

		LastSuccessfulRun: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last successful run of each stage",
		}, []string{"stage"}),
	}
}

// RecordOracleCall records the outcome and latency of one logical oracle call.
func (m *Metrics) RecordOracleCall(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.OracleCalls.WithLabelValues(op, outcome).Inc()
	m.OracleCallLatency.WithLabelValues(op).Observe(d.Seconds())
}

// RecordOracleRetry records one retry.
func (m *Metrics) RecordOracleRetry(op, reason string) {
	if m == nil {
		return
	}
	m.OracleRetries.WithLabelValues(op, reason).Inc()
}

// RecordBatchItem records one processed batch item.
func (m *Metrics) RecordBatchItem(stage string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.BatchItems.WithLabelValues(stage, outcome).Inc()
}

// RecordPipelineRun records a finished stage run.
func (m *Metrics) RecordPipelineRun(stage, status string, d time.Duration, records int64) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.WithLabelValues(stage, status).Inc()
	m.PipelineDuration.WithLabelValues(stage).Observe(d.Seconds())
	m.PipelineRecords.WithLabelValues(stage).Set(float64(records))
	if status == "success" {
		m.LastSuccessfulRun.WithLabelValues(stage).SetToCurrentTime()
	}
}

// SetRegistrySize records the registry size.
func (m *Metrics) SetRegistrySize(n int64) {
	if m == nil {
		return
	}
	m.RegistrySize.Set(float64(n))
}

// SetActivityScaleFactor records the last activity scale factor.
func (m *Metrics) SetActivityScaleFactor(f float64) {
	if m == nil {
		return
	}
	m.ActivityScaleFactor.Set(f)
}

// Push sends all metrics to a Pushgateway under job. Stages are batch jobs
// and are never scraped, so they push once at exit.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job string) error {
	if m == nil || gatewayURL == "" {
		return nil
	}
	if err := push.New(gatewayURL, job).Gatherer(m.gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
