package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultDelay is the fixed wait between attempts.
const DefaultDelay = 5 * time.Second

// Policy describes a bounded, fixed-delay retry.
type Policy struct {
	Stage       string
	MaxAttempts int
	Delay       time.Duration
	// Sleep waits for d or until ctx is done. Nil uses a real timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnFailure is called after every failed attempt, attempt starting at 1.
	OnFailure func(attempt int, err error)
}

// ExhaustedError is returned when every attempt failed.
type ExhaustedError struct {
	Stage    string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Stage, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns it unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs fn until it succeeds, returns a permanent error, or MaxAttempts is reached.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context, attempt int) error) error {
	if policy.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive, got %d", policy.MaxAttempts)
	}
	if policy.Delay < 0 {
		policy.Delay = 0
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = timerSleep
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			if policy.OnFailure != nil {
				policy.OnFailure(attempt, perm.err)
			}
			return perm.err
		}

		lastErr = err
		if policy.OnFailure != nil {
			policy.OnFailure(attempt, err)
		}
		if attempt == policy.MaxAttempts {
			break
		}
		if err := sleep(ctx, policy.Delay); err != nil {
			return err
		}
	}

	return &ExhaustedError{Stage: policy.Stage, Attempts: policy.MaxAttempts, Err: lastErr}
}

func timerSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
