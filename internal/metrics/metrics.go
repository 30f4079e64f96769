// Package metrics exposes ledger counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

type Metrics struct {
	Operations   *prometheus.CounterVec
	Amounts      *prometheus.CounterVec
	SyncFailures prometheus.Counter
	OutboxDepth  prometheus.Gauge
	ActiveLoans  prometheus.Gauge
}

// New creates the ledger metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lending",
			Name:      "operations_total",
			Help:      "Ledger operations by action and outcome.",
		}, []string{"action", "outcome"}),
		Amounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lending",
			Name:      "transaction_amount_total",
			Help:      "Sum of ledger transaction amounts by type.",
		}, []string{"type"}),
		SyncFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lending",
			Name:      "sync_failures_total",
			Help:      "Write-backs to the database that failed and were queued for retry.",
		}),
		OutboxDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lending",
			Name:      "outbox_depth",
			Help:      "Operations applied in memory but not yet written to the database.",
		}),
		ActiveLoans: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lending",
			Name:      "active_loans",
			Help:      "Loans currently in ACTIVE status.",
		}),
	}

	reg.MustRegister(m.Operations, m.Amounts, m.SyncFailures, m.OutboxDepth, m.ActiveLoans)
	return m
}

// ObserveOperation counts one call of action. outcome is "ok" or an error code.
func (m *Metrics) ObserveOperation(action, outcome string) {
	m.Operations.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) AddAmount(txType string, amount decimal.Decimal) {
	m.Amounts.WithLabelValues(txType).Add(amount.InexactFloat64())
}
