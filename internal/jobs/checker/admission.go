package checker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

var ErrInvalidCapacity = errors.New("admission capacity must be >= 1")

// Admission bounds how many probes hold network resources at once.
type Admission struct {
	capacity int64
	sem      *semaphore.Weighted
	inFlight atomic.Int64
	peak     atomic.Int64
}

func NewAdmission(capacity int) (*Admission, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidCapacity, capacity)
	}
	return &Admission{
		capacity: int64(capacity),
		sem:      semaphore.NewWeighted(int64(capacity)),
	}, nil
}

// Acquire blocks the caller until a slot is free or ctx ends. The returned
// release must be called exactly once, extra calls are ignored.
func (admission *Admission) Acquire(ctx context.Context) (func(), error) {
	if err := admission.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	current := admission.inFlight.Add(1)
	for {
		peak := admission.peak.Load()
		if current <= peak || admission.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			admission.inFlight.Add(-1)
			admission.sem.Release(1)
		})
	}, nil
}

func (admission *Admission) Capacity() int {
	return int(admission.capacity)
}

func (admission *Admission) InFlight() int {
	return int(admission.inFlight.Load())
}

// Peak is the highest number of slots held at the same time.
func (admission *Admission) Peak() int {
	return int(admission.peak.Load())
}

func (admission *Admission) String() string {
	return fmt.Sprintf("Admission(capacity=%d)", admission.capacity)
}
