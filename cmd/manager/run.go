package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityManager/internal/config"
	"liquidityManager/internal/keys"
	"liquidityManager/internal/lock"
	"liquidityManager/internal/manager"
	"liquidityManager/internal/model"
	"liquidityManager/internal/storage"
	"liquidityManager/internal/storage/postgres"
)

type tickRunner struct {
	store   storage.PositionStore
	batch   *manager.Batch
	journal storage.Journal
	owner   string
	logger  *zap.Logger
}

func runOnce(cmd *cobra.Command, _ []string) error {
	return withTickRunner(cmd, func(ctx context.Context, runner *tickRunner, _ config.RunConfig) error {
		results, err := runner.tick(ctx)
		if err != nil {
			return err
		}
		if failed := countFailed(results); failed > 0 {
			return fmt.Errorf("%d of %d positions failed", failed, len(results))
		}
		return nil
	})
}

func runWatch(cmd *cobra.Command, _ []string) error {
	return withTickRunner(cmd, func(ctx context.Context, runner *tickRunner, cfg config.RunConfig) error {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		for {
			if _, err := runner.tick(ctx); err != nil {
				runner.logger.Error("tick failed", zap.Error(err))
			}
			select {
			case <-ctx.Done():
				runner.logger.Info("watch stopped")
				return nil
			case <-ticker.C:
			}
		}
	})
}

func withTickRunner(cmd *cobra.Command, fn func(ctx context.Context, runner *tickRunner, cfg config.RunConfig) error) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadRun(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()
	if cfg.Migrate {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
	}

	provider, err := keys.NewPassphraseProvider(cfg.Passphrase)
	if err != nil {
		return err
	}

	var locker lock.Locker = lock.Noop{}
	if cfg.RedisURL != "" {
		redisLocker, err := lock.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisLocker.Close()
		locker = redisLocker
	}

	dial := manager.NewDialer(manager.DialConfig{
		PoolAPI:        cfg.PoolAPI,
		SwapAPI:        cfg.SwapAPI,
		HTTPTimeout:    cfg.HTTPTimeout,
		ConfirmTimeout: cfg.ConfirmTimeout,
	}, logger)
	controller := manager.NewController(provider, dial, logger)
	controller.RetryDelay = cfg.RetryDelay

	runner := &tickRunner{
		store:  store,
		batch:  manager.NewBatch(controller, locker, manager.BatchConfig{Concurrency: cfg.Concurrency, LeaseTTL: cfg.LeaseTTL}, logger),
		owner:  cfg.Owner,
		logger: logger,
	}
	if cfg.Journal != "" {
		runner.journal = storage.NewFileJournal(cfg.Journal)
	}

	logger.Info("manager start",
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("pool_api", cfg.PoolAPI),
		zap.String("swap_api", cfg.SwapAPI),
		zap.String("owner", cfg.Owner),
		zap.Int("concurrency", cfg.Concurrency),
		zap.Bool("redis_lease", cfg.RedisURL != ""),
		zap.String("journal", cfg.Journal),
	)

	return fn(ctx, runner, cfg)
}

func (r *tickRunner) tick(ctx context.Context) ([]model.RunResult, error) {
	tickAt := time.Now()
	var (
		positions []model.PositionConfig
		err       error
	)
	if r.owner != "" {
		positions, err = r.store.ListPositionsByOwner(ctx, r.owner)
	} else {
		positions, err = r.store.ListPositions(ctx)
	}
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		r.logger.Info("no positions configured")
		return nil, nil
	}

	results := r.batch.RunAll(ctx, positions)
	for _, res := range results {
		fields := []zap.Field{
			zap.Int64("position_id", res.PositionID),
			zap.String("pool", res.Pool),
			zap.String("outcome", string(res.Outcome.Kind)),
			zap.String("stage", res.Outcome.Stage),
			zap.String("reason", res.Outcome.Reason),
			zap.String("tx", res.Outcome.TxHash),
		}
		if res.OK() {
			r.logger.Info("position result", fields...)
		} else {
			r.logger.Error("position result", fields...)
		}
	}

	if r.journal != nil {
		if err := r.journal.Append(storage.NewTickRecord(tickAt, r.owner, results)); err != nil {
			r.logger.Error("write journal failed", zap.Error(err))
		}
	}
	return results, nil
}

func countFailed(results []model.RunResult) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}
