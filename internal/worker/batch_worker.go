// internal/worker/batch_worker.go
package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/msparth89/gscwordpress/internal/services"
)

// BatchWorker sweeps pending payment batches on a fixed interval, the same
// sweep an admin can trigger manually through the API.
type BatchWorker struct {
	batchService *services.BatchService
	interval     time.Duration
}

func NewBatchWorker(batchService *services.BatchService, intervalMinutes int) *BatchWorker {
	if intervalMinutes <= 0 {
		intervalMinutes = 60
	}
	return &BatchWorker{
		batchService: batchService,
		interval:     time.Duration(intervalMinutes) * time.Minute,
	}
}

// Run blocks until ctx is cancelled. The first sweep happens after one full
// interval so a restart loop cannot hammer the payout gateways.
func (w *BatchWorker) Run(ctx context.Context) {
	logrus.WithField("interval", w.interval.String()).Info("Batch worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Batch worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *BatchWorker) sweep(ctx context.Context) {
	stats, err := w.batchService.ProcessPendingBatches(ctx)
	if err != nil {
		logrus.WithError(err).Error("Batch sweep failed")
		return
	}

	if stats.BatchesProcessed == 0 {
		return
	}

	logrus.WithFields(logrus.Fields{
		"batches":    stats.BatchesProcessed,
		"successful": stats.SuccessfulPayouts,
		"failed":     stats.FailedPayouts,
	}).Info("Batch sweep completed")
}
