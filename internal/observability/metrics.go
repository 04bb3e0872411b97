package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpDurationHistogram  *prometheus.HistogramVec
	ledgerOperationCounter *prometheus.CounterVec
	ledgerImbalanceCounter *prometheus.CounterVec
	idempotencyCounter     *prometheus.CounterVec
	workerRunCounter       *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		ledgerOperationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Ledger operation outcomes",
		}, []string{"operation", "outcome"})

		ledgerImbalanceCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_imbalance_total",
			Help: "Number of ledger records whose balance snapshots diverged",
		}, []string{"check"})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			ledgerOperationCounter,
			ledgerImbalanceCounter,
			idempotencyCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementLedgerOperation(operation, outcome string) {
	if ledgerOperationCounter == nil {
		return
	}
	ledgerOperationCounter.WithLabelValues(operation, outcome).Inc()
}

func IncrementLedgerImbalance(check string) {
	if ledgerImbalanceCounter == nil {
		return
	}
	ledgerImbalanceCounter.WithLabelValues(check).Inc()
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
