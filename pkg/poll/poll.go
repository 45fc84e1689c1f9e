// Package poll implements the completion-polling strategy used by Job
// and JobSet: an initial delay, a backoff between checks, an optional
// ceiling on total wait time, and context cancellation.
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrTimedOut Returned when MaxWait elapses before the condition holds
var ErrTimedOut = errors.New("polling timed out")

// Backoff Computes the delay before the next polling attempt
type Backoff interface {
	Next(attempt int) time.Duration
}

// Fixed Constant delay between attempts
type Fixed time.Duration

// Next implements the Backoff interface.
func (f Fixed) Next(int) time.Duration {
	return time.Duration(f)
}

// Exponential Doubles the base delay per attempt, capped at Max
type Exponential struct {
	Base time.Duration
	Max  time.Duration
}

// Next implements the Backoff interface.
func (e Exponential) Next(attempt int) time.Duration {
	delay := e.Base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if e.Max > 0 && delay >= e.Max {
			return e.Max
		}
	}
	return delay
}

// Condition One polling check; done stops the loop. A returned error
// aborts the loop, so checks that want transient errors retried must
// handle them internally.
type Condition func(ctx context.Context) (done bool, err error)

// Policy Controls a polling loop
type Policy struct {
	// InitialDelay Sleep before the first check
	InitialDelay time.Duration

	// Backoff Delay between checks
	Backoff Backoff

	// MaxWait Ceiling on total elapsed time; zero means no ceiling
	MaxWait time.Duration
}

const (
	defaultInitialDelay = 3 * time.Second
	defaultInterval     = 30 * time.Second
)

// Default The cluster's historical polling cadence: 3s before the
// first check, 30s between checks, no ceiling.
func Default() Policy {
	return Policy{
		InitialDelay: defaultInitialDelay,
		Backoff:      Fixed(defaultInterval),
	}
}

// Wait Runs check until it reports done. Returns ErrTimedOut when
// MaxWait elapses first, or the cancellation cause when ctx ends.
// A nil Backoff falls back to the default interval, so a zero-value
// Policy is usable.
func (p Policy) Wait(ctx context.Context, check Condition) error {
	if p.MaxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, p.MaxWait, ErrTimedOut)
		defer cancel()
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = Fixed(defaultInterval)
	}

	if err := sleep(ctx, p.InitialDelay); err != nil {
		return err
	}
	for attempt := 0; ; attempt++ {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if err := sleep(ctx, backoff.Next(attempt)); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-timer.C:
		return nil
	}
}
