package lock

import (
	"context"
	"testing"
	"time"
)

func TestNoopAlwaysGrants(t *testing.T) {
	var l Locker = Noop{}
	for i := 0; i < 2; i++ {
		release, err := l.Acquire(context.Background(), "k", time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		release()
	}
}

func TestPositionKey(t *testing.T) {
	got := PositionKey(42, "0xAbC")
	if got != "alm:position:0xabc:42" {
		t.Fatalf("key mismatch: %s", got)
	}
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	if _, err := NewRedis(context.Background(), "::not a url"); err == nil {
		t.Fatalf("expected error")
	}
}
