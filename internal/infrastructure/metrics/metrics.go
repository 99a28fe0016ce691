package metrics

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// Metrics holds the ledger's Prometheus metrics. It implements usecase.MetricsRecorder.
type Metrics struct {
	// Posting metrics
	Postings        *prometheus.CounterVec
	PostingDuration *prometheus.HistogramVec

	// Balance metrics
	Balance *prometheus.GaugeVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
	EventFailures   *prometheus.CounterVec

	reg prometheus.Registerer
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Postings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_postings_total",
				Help: "Units of work by operation and outcome",
			},
			[]string{"operation", "result"},
		),
		PostingDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cashledger_posting_duration_seconds",
				Help:    "Duration of units of work including retries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		Balance: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cashledger_balance",
				Help: "Current balance per domain",
			},
			[]string{"domain"},
		),
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_outbox_events_published_total",
				Help: "Outbox events delivered by type",
			},
			[]string{"event_type"},
		),
		EventFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_outbox_event_failures_total",
				Help: "Outbox events that failed to deliver by type",
			},
			[]string{"event_type"},
		),
		reg: reg,
	}
}

// ObservePosting records the outcome of a unit of work.
func (m *Metrics) ObservePosting(operation string, duration time.Duration, err error) {
	m.Postings.WithLabelValues(operation, result(err)).Inc()
	m.PostingDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetBalance publishes the committed balance of a domain.
func (m *Metrics) SetBalance(d domain.BalanceDomain, balance decimal.Decimal) {
	m.Balance.WithLabelValues(string(d)).Set(balance.InexactFloat64())
}

// ObserveEvent records an outbox delivery attempt.
func (m *Metrics) ObserveEvent(eventType string, err error) {
	if err != nil {
		m.EventFailures.WithLabelValues(eventType).Inc()
		return
	}
	m.EventsPublished.WithLabelValues(eventType).Inc()
}

// RegisterPool exposes connection pool statistics.
func (m *Metrics) RegisterPool(pool *pgxpool.Pool) {
	factory := promauto.With(m.reg)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "cashledger_db_connections_total",
		Help: "Connections currently held by the pool",
	}, func() float64 { return float64(pool.Stat().TotalConns()) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "cashledger_db_connections_acquired",
		Help: "Connections currently checked out of the pool",
	}, func() float64 { return float64(pool.Stat().AcquiredConns()) })
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrReimbursementExceedsOutstanding):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	default:
		return "error"
	}
}
