// Package metrics exports run counters in the Prometheus text format for the
// node_exporter textfile collector.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"arstatements/internal/run"
)

// Metrics bundles the statement run gauges.
type Metrics struct {
	registry *prometheus.Registry

	LastRunTimestamp   prometheus.Gauge
	LastRunDuration    prometheus.Gauge
	ClientsProcessed   prometheus.Gauge
	DocumentsProcessed prometheus.Gauge
	DocumentsGenerated prometheus.Gauge
	Emails             *prometheus.GaugeVec
	AmountTotal        *prometheus.GaugeVec
	Success            prometheus.Gauge
}

// New constructs metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arstatements_last_run_timestamp_seconds",
			Help: "Unix time the last statement run started",
		}),
		LastRunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arstatements_last_run_duration_seconds",
			Help: "Duration of the last statement run in seconds",
		}),
		ClientsProcessed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arstatements_last_run_clients",
			Help: "Clients processed in the last run",
		}),
		DocumentsProcessed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arstatements_last_run_documents_processed",
			Help: "Invoice rows processed in the last run",
		}),
		DocumentsGenerated: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arstatements_last_run_documents_generated",
			Help: "Statements rendered in the last run",
		}),
		Emails: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arstatements_last_run_emails",
				Help: "Statement emails of the last run by status",
			},
			[]string{"status"},
		),
		AmountTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arstatements_last_run_amount_total",
				Help: "Outstanding amount on the statements of the last run",
			},
			[]string{"currency"},
		),
		Success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arstatements_last_run_success",
			Help: "1 when the last run sent no failed email",
		}),
	}
	m.registry.MustRegister(
		m.LastRunTimestamp,
		m.LastRunDuration,
		m.ClientsProcessed,
		m.DocumentsProcessed,
		m.DocumentsGenerated,
		m.Emails,
		m.AmountTotal,
		m.Success,
	)
	return m
}

// Observe sets every gauge from stats.
func (m *Metrics) Observe(stats run.Stats) {
	m.LastRunTimestamp.Set(float64(stats.StartedAt.Unix()))
	m.LastRunDuration.Set(stats.Duration.Seconds())
	m.ClientsProcessed.Set(float64(stats.ClientsProcessed))
	m.DocumentsProcessed.Set(float64(stats.DocumentsProcessed))
	m.DocumentsGenerated.Set(float64(stats.DocumentsGenerated))
	m.Emails.WithLabelValues("ok").Set(float64(stats.EmailsSentOK))
	m.Emails.WithLabelValues("fail").Set(float64(stats.EmailsSentFail))
	m.AmountTotal.WithLabelValues("USD").Set(stats.TotalUSD.InexactFloat64())
	m.AmountTotal.WithLabelValues("LOCAL").Set(stats.TotalLocal.InexactFloat64())
	if stats.EmailsSentFail == 0 {
		m.Success.Set(1)
	} else {
		m.Success.Set(0)
	}
}

// Gatherer exposes the private registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// TextfileReporter writes the gauges to a .prom file after each run.
type TextfileReporter struct {
	Metrics *Metrics
	Path    string
}

// Report implements run.Reporter.
func (r TextfileReporter) Report(_ context.Context, stats run.Stats) error {
	r.Metrics.Observe(stats)
	if err := prometheus.WriteToTextfile(r.Path, r.Metrics.registry); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}
