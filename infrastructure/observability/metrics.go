package observability

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"lotterypool/domain/entities"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsProvider owns a Prometheus registry and the lottery instruments
type MetricsProvider struct {
	registry *prometheus.Registry

	entriesCounter     *prometheus.CounterVec
	stakedCounter      *prometheus.CounterVec
	rejectionsCounter  *prometheus.CounterVec
	drawsCounter       *prometheus.CounterVec
	paidOutCounter     *prometheus.CounterVec
	pooledFundsGauge   *prometheus.GaugeVec
	playersGauge       *prometheus.GaugeVec
	eventsPublished    *prometheus.CounterVec
	operationDurations *prometheus.HistogramVec
}

// NewMetricsProvider creates a provider with its own registry
func NewMetricsProvider() *MetricsProvider {
	mp := &MetricsProvider{
		registry: prometheus.NewRegistry(),
		entriesCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricNamespace,
			Subsystem: SubsystemPool,
			Name:      "entries_total",
			Help:      "Total number of accepted entries.",
		}, []string{LabelPoolID}),
		stakedCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricNamespace,
			Subsystem: SubsystemPool,
			Name:      "staked_coins_total",
			Help:      "Total coins staked into pools.",
		}, []string{LabelPoolID}),
		rejectionsCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricNamespace,
			Subsystem: SubsystemPool,
			Name:      "rejections_total",
			Help:      "Total number of rejected operations by reason.",
		}, []string{LabelOperation, LabelReason}),
		drawsCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricNamespace,
			Subsystem: SubsystemDraw,
			Name:      "draws_total",
			Help:      "Total number of draws by outcome.",
		}, []string{LabelOutcome}),
		paidOutCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricNamespace,
			Subsystem: SubsystemDraw,
			Name:      "paid_out_coins_total",
			Help:      "Total coins paid to winners.",
		}, []string{LabelPoolID}),
		pooledFundsGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricNamespace,
			Subsystem: SubsystemPool,
			Name:      "pooled_coins",
			Help:      "Coins currently held by each pool.",
		}, []string{LabelPoolID}),
		playersGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricNamespace,
			Subsystem: SubsystemPool,
			Name:      "players",
			Help:      "Current number of participants in each pool.",
		}, []string{LabelPoolID}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricNamespace,
			Subsystem: SubsystemEvents,
			Name:      "published_total",
			Help:      "Total number of domain events flushed after commit.",
		}, []string{LabelEventType}),
		operationDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricNamespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of pool and account operations.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{LabelOperation}),
	}

	mp.registry.MustRegister(
		mp.entriesCounter,
		mp.stakedCounter,
		mp.rejectionsCounter,
		mp.drawsCounter,
		mp.paidOutCounter,
		mp.pooledFundsGauge,
		mp.playersGauge,
		mp.eventsPublished,
		mp.operationDurations,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return mp
}

// Registry exposes the underlying registry
func (mp *MetricsProvider) Registry() *prometheus.Registry {
	return mp.registry
}

// Handler returns an HTTP handler exposing the registered metrics
func (mp *MetricsProvider) Handler() http.Handler {
	return promhttp.HandlerFor(mp.registry, promhttp.HandlerOpts{})
}

// RecordEntry records an accepted stake and the pool state after it
func (mp *MetricsProvider) RecordEntry(pool *entities.LotteryPool, stake entities.Amount) {
	id := poolLabel(pool.ID)
	mp.entriesCounter.WithLabelValues(id).Inc()
	mp.stakedCounter.WithLabelValues(id).Add(stake.Coins())
	mp.setPoolGauges(pool)
}

// RecordDraw records a completed payout and the emptied pool
func (mp *MetricsProvider) RecordDraw(pool *entities.LotteryPool, result *entities.DrawResult) {
	mp.drawsCounter.WithLabelValues(OutcomePaid).Inc()
	mp.paidOutCounter.WithLabelValues(poolLabel(pool.ID)).Add(result.Amount.Coins())
	mp.setPoolGauges(pool)
}

// RecordPoolState refreshes the gauges for a pool
func (mp *MetricsProvider) RecordPoolState(pool *entities.LotteryPool) {
	mp.setPoolGauges(pool)
}

// RecordRejection counts a failed operation under its reason.
// Failed draws are also counted as a draw outcome.
func (mp *MetricsProvider) RecordRejection(operation string, err error) {
	reason := RejectionReason(err)
	mp.rejectionsCounter.WithLabelValues(operation, reason).Inc()
	if operation == OperationPickWinner {
		mp.drawsCounter.WithLabelValues(reason).Inc()
	}
}

// RecordEventPublished counts a flushed domain event
func (mp *MetricsProvider) RecordEventPublished(eventType string) {
	mp.eventsPublished.WithLabelValues(eventType).Inc()
}

// ObserveOperation returns a function recording the elapsed time of an operation.
// Usage:
//
//	defer mp.ObserveOperation(OperationEnter)()
func (mp *MetricsProvider) ObserveOperation(operation string) func() {
	start := time.Now()
	return func() {
		mp.operationDurations.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

func (mp *MetricsProvider) setPoolGauges(pool *entities.LotteryPool) {
	id := poolLabel(pool.ID)
	mp.pooledFundsGauge.WithLabelValues(id).Set(pool.PooledFunds.Coins())
	mp.playersGauge.WithLabelValues(id).Set(float64(pool.PlayerCount))
}

func poolLabel(id int64) string {
	return strconv.FormatInt(id, 10)
}

// RejectionReason maps a domain error to a metric label
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, entities.ErrInsufficientStake):
		return ReasonInsufficientStake
	case errors.Is(err, entities.ErrNotAuthorized):
		return ReasonNotAuthorized
	case errors.Is(err, entities.ErrNoParticipants):
		return ReasonNoParticipants
	case errors.Is(err, entities.ErrTransferFailed):
		return ReasonTransferFailed
	case errors.Is(err, entities.ErrInsufficientFunds):
		return ReasonInsufficientFunds
	case errors.Is(err, entities.ErrPoolNotFound), errors.Is(err, entities.ErrAccountNotFound):
		return ReasonNotFound
	case errors.Is(err, entities.ErrInvalidAddress), errors.Is(err, entities.ErrInvalidAmount):
		return ReasonInvalidInput
	default:
		return ReasonInternal
	}
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// GetMetrics returns the process-wide metrics provider, creating it on first use
func GetMetrics() *MetricsProvider {
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider()
	})
	return globalMetrics
}
