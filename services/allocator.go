package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"ClinicLink360/util"
)

// CounterStore performs the store-side atomic read-increment-write of a
// per-label counter. An update that loses a race reports
// util.ErrAllocationConflict and may be retried.
type CounterStore interface {
	IncrementCounter(ctx context.Context, label string) (int64, error)
}

const allocationRetries = 3

// IDAllocator hands out the sequential integer ids used by every
// clinical graph entity: strictly increasing per label, starting at 1,
// never reused. Safe for concurrent callers; all coordination happens
// in the store's atomic increment, never in an application-level lock.
type IDAllocator struct {
	counters CounterStore
}

func NewIDAllocator(counters CounterStore) *IDAllocator {
	return &IDAllocator{counters: counters}
}

/*
* Allocate the next id for a label.
* Conflicts are transient and expected under contention, so they are
* retried a bounded number of times here; any other failure is terminal
* and surfaced as-is.
 */
func (a *IDAllocator) NextID(ctx context.Context, label string) (int64, error) {
	var lastErr error
	for attempt := 1; attempt <= allocationRetries; attempt++ {
		id, err := a.counters.IncrementCounter(ctx, label)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, util.ErrAllocationConflict) {
			return 0, err
		}
		log.Printf("Allocation conflict for %s (attempt %d/%d)", label, attempt, allocationRetries)
		lastErr = err
	}
	return 0, fmt.Errorf("allocating %s id after %d attempts: %v: %w",
		label, allocationRetries, lastErr, util.ErrAllocationUnavailable)
}
