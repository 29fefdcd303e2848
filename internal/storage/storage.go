package storage

import (
	"context"
	"errors"

	"liquidityManager/internal/model"
)

// ErrNotFound is returned when a position record does not exist.
var ErrNotFound = errors.New("position not found")

// PositionStore persists position-management records.
type PositionStore interface {
	ListPositions(ctx context.Context) ([]model.PositionConfig, error)
	ListPositionsByOwner(ctx context.Context, owner string) ([]model.PositionConfig, error)
	GetPosition(ctx context.Context, id int64) (model.PositionConfig, error)
	CreatePosition(ctx context.Context, cfg model.PositionConfig) (int64, error)
}

// Journal records the outcome of every managed position per tick.
type Journal interface {
	Append(rec TickRecord) error
}
