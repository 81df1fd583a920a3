package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ingest metrics
	IngestsTotal        prometheus.Counter
	IngestFailures      *prometheus.CounterVec
	IngestDuration      prometheus.Histogram
	TransactionsPosted  prometheus.Counter
	LedgerEntities      prometheus.Gauge
	LedgerTransactions  prometheus.Gauge
	LastIngestTimestamp prometheus.Gauge

	// Query metrics
	BalanceQueries *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		IngestsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "entityledger_ingests_total",
			Help: "Total number of successful ingests",
		}),
		IngestFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entityledger_ingest_failures_total",
				Help: "Total number of rejected ingests by reason",
			},
			[]string{"reason"},
		),
		IngestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "entityledger_ingest_duration_seconds",
			Help:    "Duration of ledger builds",
			Buckets: prometheus.DefBuckets,
		}),
		TransactionsPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "entityledger_transactions_posted_total",
			Help: "Total number of transactions posted across all ingests",
		}),
		LedgerEntities: factory.NewGauge(prometheus.GaugeOpts{
			Name: "entityledger_ledger_entities",
			Help: "Number of entities in the current ledger",
		}),
		LedgerTransactions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "entityledger_ledger_transactions",
			Help: "Number of transactions in the current ledger",
		}),
		LastIngestTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "entityledger_last_ingest_timestamp_seconds",
			Help: "Unix time of the last successful ingest",
		}),
		BalanceQueries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entityledger_balance_queries_total",
				Help: "Total balance queries by outcome",
			},
			[]string{"found"},
		),
	}
}

// IngestSucceeded records a successful ingest.
func (m *Metrics) IngestSucceeded(transactions, entities int, duration time.Duration) {
	m.IngestsTotal.Inc()
	m.IngestDuration.Observe(duration.Seconds())
	m.TransactionsPosted.Add(float64(transactions))
	m.LedgerTransactions.Set(float64(transactions))
	m.LedgerEntities.Set(float64(entities))
	m.LastIngestTimestamp.SetToCurrentTime()
}

// IngestFailed records a rejected ingest.
func (m *Metrics) IngestFailed(reason string) {
	m.IngestFailures.WithLabelValues(reason).Inc()
}

// BalanceQueried records a balance lookup.
func (m *Metrics) BalanceQueried(found bool) {
	m.BalanceQueries.WithLabelValues(strconv.FormatBool(found)).Inc()
}
