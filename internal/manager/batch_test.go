package manager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"liquidityManager/internal/lock"
	"liquidityManager/internal/model"
)

type scriptedRunner struct {
	mu    sync.Mutex
	calls map[int64]int
}

func (r *scriptedRunner) Run(_ context.Context, cfg model.PositionConfig) model.Outcome {
	r.mu.Lock()
	r.calls[cfg.ID]++
	r.mu.Unlock()

	switch cfg.ID {
	case 1:
		panic("boom")
	case 2:
		return model.Failed(model.StageClose, errors.New("rpc down"))
	default:
		return model.Skipped(model.ReasonInRange)
	}
}

type heldLocker struct {
	held map[string]bool
}

func (l heldLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	if l.held[key] {
		return nil, lock.ErrHeld
	}
	return func() {}, nil
}

func TestBatchIsolatesFailures(t *testing.T) {
	runner := &scriptedRunner{calls: map[int64]int{}}
	batch := NewBatch(runner, nil, BatchConfig{Concurrency: 2}, nil)

	positions := []model.PositionConfig{{ID: 1, Pool: "0xa"}, {ID: 2, Pool: "0xb"}, {ID: 3, Pool: "0xc"}}
	results := batch.RunAll(context.Background(), positions)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.PositionID != positions[i].ID {
			t.Fatalf("result %d out of order: %d", i, r.PositionID)
		}
		if r.FinishedAt.Before(r.StartedAt) {
			t.Fatalf("result %d has inverted timestamps", i)
		}
	}
	if results[0].Outcome.Kind != model.OutcomeFailed || results[0].Outcome.Stage != model.StageInternal {
		t.Fatalf("panic should become a failure: %+v", results[0].Outcome)
	}
	if results[1].Outcome.Stage != model.StageClose || results[1].OK() {
		t.Fatalf("unexpected second outcome: %+v", results[1].Outcome)
	}
	if !results[2].OK() || results[2].Outcome.Reason != model.ReasonInRange {
		t.Fatalf("unexpected third outcome: %+v", results[2].Outcome)
	}
}

func TestBatchSkipsLockedPositions(t *testing.T) {
	runner := &scriptedRunner{calls: map[int64]int{}}
	locker := heldLocker{held: map[string]bool{lock.PositionKey(3, "0xc"): true}}
	batch := NewBatch(runner, locker, BatchConfig{}, nil)

	results := batch.RunAll(context.Background(), []model.PositionConfig{{ID: 3, Pool: "0xc"}, {ID: 4, Pool: "0xd"}})
	if results[0].Outcome.Kind != model.OutcomeSkipped || results[0].Outcome.Reason != model.ReasonLocked {
		t.Fatalf("expected locked skip, got %+v", results[0].Outcome)
	}
	if runner.calls[3] != 0 {
		t.Fatalf("locked position must not run")
	}
	if runner.calls[4] != 1 {
		t.Fatalf("unlocked position should run once, got %d", runner.calls[4])
	}
}
