package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ccip-relay.backend/pkg/logger"
)

// transferPruner is the slice of the transfer store the job needs.
type transferPruner interface {
	Prune(ctx context.Context, keep int) (int64, error)
}

// TransferPruneJob trims transfer history down to the most recent keep
// records. In-flight records are left alone by the store.
type TransferPruneJob struct {
	store    transferPruner
	keep     int
	interval time.Duration
	stop     chan struct{}
}

func NewTransferPruneJob(store transferPruner, keep int, interval time.Duration) *TransferPruneJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &TransferPruneJob{
		store:    store,
		keep:     keep,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (j *TransferPruneJob) Start(ctx context.Context) {
	logger.Info(ctx, "Starting transfer prune job", zap.Int("keep", j.keep), zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Transfer prune job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Transfer prune job stopped")
			return
		case <-ticker.C:
			j.prune(ctx)
		}
	}
}

func (j *TransferPruneJob) Stop() {
	close(j.stop)
}

func (j *TransferPruneJob) prune(ctx context.Context) {
	removed, err := j.store.Prune(ctx, j.keep)
	if err != nil {
		logger.Error(ctx, "Failed to prune transfer history", zap.Error(err))
		return
	}
	if removed > 0 {
		logger.Info(ctx, "Pruned transfer history", zap.Int64("removed", removed), zap.Int("keep", j.keep))
	}
}
