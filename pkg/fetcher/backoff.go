package fetcher

import (
	"context"
	"time"
)

// defaultBackoffBase is half a second per attempt step: 0.5s before the
// first retry, 1.0s before the second.
const defaultBackoffBase = 500 * time.Millisecond

// LinearBackoff computes retry delays that grow linearly with the attempt
// index: Base, 2×Base, 3×Base. There is no explicit ceiling; the retry
// budget bounds the total added delay.
type LinearBackoff struct {
	// Base is the delay unit. Zero or negative falls back to 500ms.
	Base time.Duration
}

// Delay returns the wait before retrying after the failed attempt (0-based).
func (b LinearBackoff) Delay(attempt int) time.Duration {
	base := b.Base
	if base <= 0 {
		base = defaultBackoffBase
	}
	return time.Duration(attempt+1) * base
}

// wait sleeps for the delay of the given attempt, returning early with the
// context error if ctx is cancelled.
func (b LinearBackoff) wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(b.Delay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
