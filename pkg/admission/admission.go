// Package admission bounds the number of concurrently in-flight fetch
// operations. A Controller hands out one slot per operation; at any instant
// the number of outstanding slots never exceeds the configured capacity.
package admission

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for admission control.
var (
	fetchActiveRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fetch_active_requests",
		Help: "Number of fetch operations currently holding an admission slot",
	})

	fetchAdmissionWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fetch_admission_waits_total",
		Help: "Total number of acquisitions that had to wait for a free slot",
	})
)

// Controller gates fetch operations so at most capacity of them run at once.
// The zero value is not usable; use NewController.
type Controller struct {
	capacity int
	slots    chan struct{}

	mu     sync.Mutex
	active int
}

// NewController creates a controller with the given capacity.
// Capacity must be positive; there is no unbounded mode.
func NewController(capacity int) (*Controller, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("admission capacity must be positive (got %d)", capacity)
	}

	return &Controller{
		capacity: capacity,
		slots:    make(chan struct{}, capacity),
	}, nil
}

// Capacity returns the configured maximum concurrency.
func (c *Controller) Capacity() int {
	return c.capacity
}

// Acquire blocks until a slot is free or ctx is done. On success the caller
// owns one slot and must call Release on every exit path, typically via defer.
func (c *Controller) Acquire(ctx context.Context) error {
	select {
	case c.slots <- struct{}{}:
	default:
		// All slots taken, wait for one.
		fetchAdmissionWaitsTotal.Inc()
		select {
		case c.slots <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.mu.Lock()
	c.active++
	c.mu.Unlock()
	fetchActiveRequests.Inc()

	return nil
}

// Release frees one slot previously obtained with Acquire.
func (c *Controller) Release() {
	c.mu.Lock()
	c.active--
	c.mu.Unlock()
	fetchActiveRequests.Dec()

	<-c.slots
}

// ActiveCount returns the number of slots currently held. The value is read
// under the same lock that guards mutation, but it is advisory: it may be
// stale by the time the caller logs it.
func (c *Controller) ActiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}
