package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityManager/internal/chain"
	"liquidityManager/internal/config"
	"liquidityManager/internal/keys"
	"liquidityManager/internal/model"
	"liquidityManager/internal/storage"
	"liquidityManager/internal/storage/postgres"
)

func openStore(ctx context.Context, cfg config.PositionConfig) (*postgres.Store, error) {
	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if cfg.Migrate {
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
	}
	return store, nil
}

func runPositionAdd(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPosition(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.ValidateNew(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	addrs, err := chain.ParseAddresses([]string{cfg.Owner, cfg.Pool, cfg.Token0, cfg.Token1})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	managed, err := keys.Generate(cfg.Passphrase, cfg.KeyIterations)
	if err != nil {
		return err
	}

	record := model.PositionConfig{
		Owner:                      addrs[0].Hex(),
		Account:                    managed.Address.Hex(),
		Credential:                 managed.Credential,
		RPC:                        cfg.RPC,
		Pool:                       addrs[1].Hex(),
		Token0:                     addrs[2].Hex(),
		Token1:                     addrs[3].Hex(),
		TotalBinRange:              cfg.TotalBinRange,
		RebalanceSlippage:          cfg.RebalanceSlippage,
		PoolSlippage:               cfg.PoolSlippage,
		RebalanceMaxAttempts:       cfg.RebalanceMaxAttempts,
		AddLiquidityMaxAttempts:    cfg.AddLiquidityMaxAttempts,
		RemoveLiquidityMaxAttempts: cfg.RemoveLiquidityMaxAttempts,
	}
	id, err := store.CreatePosition(ctx, record)
	if err != nil {
		return err
	}

	logger.Info("position registered",
		zap.Int64("id", id),
		zap.String("owner", record.Owner),
		zap.String("pool", record.Pool),
		zap.String("account", record.Account),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "position %d registered, fund account %s with gas and %s\n", id, record.Account, record.Token0)
	return nil
}

func runPositionList(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPosition(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	positions, err := selectPositions(ctx, store, cfg)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, p := range positions {
		if err := enc.Encode(p); err != nil {
			return err
		}
	}
	return nil
}

// selectPositions applies the list filters; an id takes precedence over an owner.
func selectPositions(ctx context.Context, store storage.PositionStore, cfg config.PositionConfig) ([]model.PositionConfig, error) {
	switch {
	case cfg.ID > 0:
		p, err := store.GetPosition(ctx, cfg.ID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("position %d: %w", cfg.ID, err)
		}
		if err != nil {
			return nil, err
		}
		if cfg.Owner != "" && !strings.EqualFold(p.Owner, cfg.Owner) {
			return nil, fmt.Errorf("position %d: %w", cfg.ID, storage.ErrNotFound)
		}
		return []model.PositionConfig{p}, nil
	case cfg.Owner != "":
		return store.ListPositionsByOwner(ctx, cfg.Owner)
	default:
		return store.ListPositions(ctx)
	}
}
