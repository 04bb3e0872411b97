package worker

import (
	"context"
	"sync"
	"time"

	"github.com/xaalispay/xaalis/internal/observability"
	"github.com/xaalispay/xaalis/internal/service"
	"go.uber.org/zap"
)

// VerificationWorker runs periodic ledger integrity checks.
type VerificationWorker struct {
	svc      *service.VerificationService
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewVerificationWorker constructs a worker with a default hourly interval.
func NewVerificationWorker(svc *service.VerificationService) *VerificationWorker {
	return &VerificationWorker{
		svc:      svc,
		interval: time.Hour,
		stopCh:   make(chan struct{}),
	}
}

// WithInterval updates the run interval.
func (w *VerificationWorker) WithInterval(interval time.Duration) *VerificationWorker {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// Start blocks and runs verification at the configured interval.
func (w *VerificationWorker) Start(ctx context.Context) {
	zap.L().Info("verification worker starting", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately at startup.
	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("verification worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("verification worker stop signal received")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Stop stops the running worker loop.
func (w *VerificationWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *VerificationWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

func (w *VerificationWorker) runOnce(ctx context.Context) {
	if err := w.svc.Run(ctx); err != nil {
		observability.IncrementWorkerRun("verification", "failed")
		zap.L().Error("verification run failed", zap.Error(err))
		return
	}
	observability.IncrementWorkerRun("verification", "success")
}
