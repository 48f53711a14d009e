package fetcher

import (
	"context"
	"testing"
	"time"
)

func TestLinearBackoff_Delay(t *testing.T) {
	b := LinearBackoff{}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{attempt: 0, expected: 500 * time.Millisecond},
		{attempt: 1, expected: 1 * time.Second},
		{attempt: 2, expected: 1500 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := b.Delay(tt.attempt); got != tt.expected {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.expected)
		}
	}
}

func TestLinearBackoff_CustomBase(t *testing.T) {
	b := LinearBackoff{Base: 10 * time.Millisecond}

	if got := b.Delay(0); got != 10*time.Millisecond {
		t.Errorf("Delay(0) = %v, want 10ms", got)
	}
	if got := b.Delay(3); got != 40*time.Millisecond {
		t.Errorf("Delay(3) = %v, want 40ms", got)
	}
}

func TestLinearBackoff_WaitCancelled(t *testing.T) {
	b := LinearBackoff{Base: 10 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := b.wait(ctx, 0)
	elapsed := time.Since(start)

	if err == nil {
		t.Error("wait expected error on cancelled context")
	}
	if elapsed > time.Second {
		t.Errorf("wait took %v, should return immediately on cancellation", elapsed)
	}
}

func TestLinearBackoff_WaitCompletes(t *testing.T) {
	b := LinearBackoff{Base: 10 * time.Millisecond}

	start := time.Now()
	if err := b.wait(context.Background(), 1); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < 20*time.Millisecond {
		t.Errorf("wait returned after %v, want at least 20ms", elapsed)
	}
}
