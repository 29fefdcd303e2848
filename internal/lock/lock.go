package lock

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrHeld is returned when another holder owns the lease.
var ErrHeld = errors.New("lock held")

// Locker grants exclusive, expiring leases by key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// Noop grants every lease. Used when no shared lock backend is configured.
type Noop struct{}

func (Noop) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

// PositionKey is the lease key for one stored position record.
func PositionKey(id int64, pool string) string {
	return "alm:position:" + strings.ToLower(pool) + ":" + strconv.FormatInt(id, 10)
}
