package worker

import (
	"context"
	"time"

	"farmTracker/internal/logger"

	"go.uber.org/zap"
)

const (
	DefaultInterval  = 5 * time.Minute
	DefaultBatchSize = 100
)

type OverduePromoter interface {
	PromoteOverdue(ctx context.Context, limit int) (int, error)
}

type HoldSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// OverdueWorker периодически переводит просроченные задачи в overdue и удаляет истёкшие заявки.
// Чтение через API делает то же лениво, воркер лишь не даёт данным застаиваться.
type OverdueWorker struct {
	tasks     OverduePromoter
	holds     HoldSweeper
	interval  time.Duration
	batchSize int
}

func NewOverdueWorker(tasks OverduePromoter, holds HoldSweeper, interval *time.Duration, batchSize *int) *OverdueWorker {
	var intervalToSet time.Duration
	if interval == nil || *interval <= 0 {
		intervalToSet = DefaultInterval
	} else {
		intervalToSet = *interval
	}

	var batchToSet int
	if batchSize == nil || *batchSize <= 0 {
		batchToSet = DefaultBatchSize
	} else {
		batchToSet = *batchSize
	}

	return &OverdueWorker{
		tasks:     tasks,
		holds:     holds,
		interval:  intervalToSet,
		batchSize: batchToSet,
	}
}

func (w *OverdueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Фоновая проверка запущена",
		zap.Duration("interval", w.interval),
		zap.Int("batch_size", w.batchSize))

	for {
		select {
		case <-ticker.C:
			logger.Info("Worker: Фоновая проверка задач на просроченность", zap.Time("started_at", time.Now()))
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Фоновая проверка останавливается")
			return
		}
	}
}

// Check выполняет один проход; ошибки логируются и не останавливают воркер
func (w *OverdueWorker) Check(ctx context.Context) {
	start := time.Now()

	promoted := 0
	if w.tasks != nil {
		n, err := w.tasks.PromoteOverdue(ctx, w.batchSize)
		if err != nil {
			logger.Warn("Worker: Ошибка перевода задач в overdue", zap.Error(err))
		}
		promoted = n
	}

	swept := 0
	if w.holds != nil {
		n, err := w.holds.SweepExpired(ctx)
		if err != nil {
			logger.Warn("Worker: Ошибка очистки истёкших заявок", zap.Error(err))
		}
		swept = n
	}

	logger.Info(
		"Worker: Завершение проверки",
		zap.Duration("ms", time.Since(start)),
		zap.Int("overdue", promoted),
		zap.Int("expired_holds", swept),
	)
}
