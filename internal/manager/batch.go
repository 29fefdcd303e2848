package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"liquidityManager/internal/lock"
	"liquidityManager/internal/model"
)

const (
	DefaultConcurrency = 4
	DefaultLeaseTTL    = 10 * time.Minute
)

// Runner manages a single position once.
type Runner interface {
	Run(ctx context.Context, cfg model.PositionConfig) model.Outcome
}

// BatchConfig tunes a batch run.
type BatchConfig struct {
	Concurrency int
	LeaseTTL    time.Duration
}

// Batch runs every configured position independently, one goroutine each up to a limit.
type Batch struct {
	runner Runner
	locker lock.Locker
	cfg    BatchConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewBatch(runner Runner, locker lock.Locker, cfg BatchConfig, logger *zap.Logger) *Batch {
	if locker == nil {
		locker = lock.Noop{}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = DefaultLeaseTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batch{runner: runner, locker: locker, cfg: cfg, logger: logger, now: time.Now}
}

// RunAll returns one result per position, in input order. A failure in one position never affects another.
func (b *Batch) RunAll(ctx context.Context, positions []model.PositionConfig) []model.RunResult {
	results := make([]model.RunResult, len(positions))

	var g errgroup.Group
	g.SetLimit(b.cfg.Concurrency)
	for i := range positions {
		i := i // per-iteration copy; go directive lowered to 1.21 for the local toolchain
		g.Go(func() error {
			results[i] = b.runOne(ctx, positions[i])
			return nil
		})
	}
	_ = g.Wait()

	var closed, opened, skipped, failed int
	for _, r := range results {
		switch r.Outcome.Kind {
		case model.OutcomeClosed:
			closed++
		case model.OutcomeOpened:
			opened++
		case model.OutcomeSkipped:
			skipped++
		case model.OutcomeFailed:
			failed++
		}
	}
	b.logger.Info("batch complete",
		zap.Int("positions", len(positions)),
		zap.Int("closed", closed),
		zap.Int("opened", opened),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	return results
}

func (b *Batch) runOne(ctx context.Context, cfg model.PositionConfig) (result model.RunResult) {
	result = model.RunResult{
		PositionID: cfg.ID,
		Pool:       cfg.Pool,
		Account:    cfg.Account,
		StartedAt:  b.now().UTC(),
	}
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("position run panicked", zap.Int64("position_id", cfg.ID), zap.Any("panic", r))
			result.Outcome = model.Failed(model.StageInternal, fmt.Errorf("panic: %v", r))
		}
		result.FinishedAt = b.now().UTC()
	}()

	release, err := b.locker.Acquire(ctx, lock.PositionKey(cfg.ID, cfg.Pool), b.cfg.LeaseTTL)
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			b.logger.Info("position locked by another worker", zap.Int64("position_id", cfg.ID))
			result.Outcome = model.Skipped(model.ReasonLocked)
			return result
		}
		result.Outcome = model.Failed(model.StageLease, err)
		return result
	}
	defer release()

	result.Outcome = b.runner.Run(ctx, cfg)
	return result
}
