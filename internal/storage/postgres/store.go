package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityManager/internal/model"
	"liquidityManager/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const positionColumns = `
	id, owner, account, credential, rpc, pool, token0, token1, total_bin_range,
	rebalance_slippage, pool_slippage, rebalance_max_attempts, add_liquidity_max_attempts,
	remove_liquidity_max_attempts, created_at`

// Store provides Postgres persistence for position records.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.PositionStore = (*Store)(nil)

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate applies embedded migrations in filename order, recording each in schema_migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		var applied bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`, entry.Name(),
		).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if applied {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(data)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, entry.Name())
			return err
		}); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// ListPositions returns every stored record, oldest first.
func (s *Store) ListPositions(ctx context.Context) ([]model.PositionConfig, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+positionColumns+` FROM positions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return collectPositions(rows)
}

// ListPositionsByOwner returns one owner's records, oldest first.
func (s *Store) ListPositionsByOwner(ctx context.Context, owner string) ([]model.PositionConfig, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+positionColumns+` FROM positions WHERE lower(owner) = lower($1) ORDER BY id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list positions by owner: %w", err)
	}
	return collectPositions(rows)
}

// GetPosition loads one record by id.
func (s *Store) GetPosition(ctx context.Context, id int64) (model.PositionConfig, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+positionColumns+` FROM positions WHERE id = $1`, id)
	if err != nil {
		return model.PositionConfig{}, fmt.Errorf("get position: %w", err)
	}
	cfg, err := pgx.CollectExactlyOneRow(rows, scanPosition)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PositionConfig{}, storage.ErrNotFound
		}
		return model.PositionConfig{}, fmt.Errorf("get position: %w", err)
	}
	return cfg, nil
}

// CreatePosition inserts a record and returns its id.
func (s *Store) CreatePosition(ctx context.Context, cfg model.PositionConfig) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO positions (
			owner, account, credential, rpc, pool, token0, token1, total_bin_range,
			rebalance_slippage, pool_slippage, rebalance_max_attempts, add_liquidity_max_attempts,
			remove_liquidity_max_attempts
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id
	`,
		cfg.Owner,
		cfg.Account,
		cfg.Credential,
		cfg.RPC,
		cfg.Pool,
		cfg.Token0,
		cfg.Token1,
		cfg.TotalBinRange,
		cfg.RebalanceSlippage,
		cfg.PoolSlippage,
		cfg.RebalanceMaxAttempts,
		cfg.AddLiquidityMaxAttempts,
		cfg.RemoveLiquidityMaxAttempts,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create position: %w", err)
	}
	return id, nil
}

func collectPositions(rows pgx.Rows) ([]model.PositionConfig, error) {
	positions, err := pgx.CollectRows(rows, scanPosition)
	if err != nil {
		return nil, fmt.Errorf("scan positions: %w", err)
	}
	return positions, nil
}

func scanPosition(row pgx.CollectableRow) (model.PositionConfig, error) {
	var cfg model.PositionConfig
	err := row.Scan(
		&cfg.ID,
		&cfg.Owner,
		&cfg.Account,
		&cfg.Credential,
		&cfg.RPC,
		&cfg.Pool,
		&cfg.Token0,
		&cfg.Token1,
		&cfg.TotalBinRange,
		&cfg.RebalanceSlippage,
		&cfg.PoolSlippage,
		&cfg.RebalanceMaxAttempts,
		&cfg.AddLiquidityMaxAttempts,
		&cfg.RemoveLiquidityMaxAttempts,
		&cfg.CreatedAt,
	)
	return cfg, err
}
