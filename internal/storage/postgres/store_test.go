package postgres

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"liquidityManager/internal/model"
	"liquidityManager/internal/storage"
)

// openTestStore connects to ALM_TEST_PG_DSN and skips when it is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("ALM_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("ALM_TEST_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := NewStore(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestStorePositionLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("second migrate should be a no-op: %v", err)
	}

	// A per-run owner keeps the test independent of rows already in the database.
	owner := "0xAbCd" + strings.ReplaceAll(uuid.NewString(), "-", "")
	t.Cleanup(func() {
		_, _ = store.pool.Exec(context.Background(), `DELETE FROM positions WHERE owner = $1`, owner)
	})

	record := model.PositionConfig{
		Owner:                      owner,
		Account:                    "0x00000000000000000000000000000000000000f1",
		Credential:                 "opaque",
		RPC:                        "http://node",
		Pool:                       "0x00000000000000000000000000000000000000a1",
		Token0:                     "0x00000000000000000000000000000000000000b2",
		Token1:                     "0x00000000000000000000000000000000000000c3",
		TotalBinRange:              21,
		RebalanceSlippage:          0.01,
		PoolSlippage:               0.005,
		RebalanceMaxAttempts:       3,
		AddLiquidityMaxAttempts:    4,
		RemoveLiquidityMaxAttempts: 5,
	}
	first, err := store.CreatePosition(ctx, record)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	record.Pool = "0x00000000000000000000000000000000000000a2"
	second, err := store.CreatePosition(ctx, record)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second <= first {
		t.Fatalf("ids should increase: %d then %d", first, second)
	}

	got, err := store.ListPositionsByOwner(ctx, strings.ToLower(owner))
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(got) != 2 || got[0].ID != first || got[1].ID != second {
		t.Fatalf("owner lookup should ignore case and order by id, got %+v", got)
	}
	if got[0].Owner != owner || got[0].TotalBinRange != 21 || got[0].AddLiquidityMaxAttempts != 4 || got[0].RemoveLiquidityMaxAttempts != 5 {
		t.Fatalf("stored fields mismatch: %+v", got[0])
	}
	if got[0].CreatedAt.IsZero() {
		t.Fatalf("created_at should be set")
	}

	one, err := store.GetPosition(ctx, second)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if one.Pool != record.Pool || one.Credential != "opaque" {
		t.Fatalf("get mismatch: %+v", one)
	}

	if _, err := store.GetPosition(ctx, -1); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
