/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package bulkhead provides the two concurrency-limiting primitives the
// validation pipeline places in front of its downstream services: a
// permit-counting semaphore for fast inline calls, and a bounded worker
// pool for the long bulk call. Both fail fast with ErrBulkheadFull when
// saturated instead of queuing unboundedly.
package bulkhead

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrBulkheadFull is returned when no semaphore permit becomes available
	// within the bounded wait, or when a pool has no free worker or queue
	// slot at submission.
	ErrBulkheadFull = errors.New("bulkhead full")

	// ErrInterrupted is returned when the caller's context is cancelled
	// while waiting on a bulkhead or a future.
	ErrInterrupted = errors.New("bulkhead call interrupted")

	// ErrClosed is returned when submitting to a pool that has been shut down.
	ErrClosed = errors.New("bulkhead closed")
)

// Semaphore bounds the number of concurrent callers of one downstream
// service. Callers acquire a permit, run the call inline on their own
// goroutine, and release the permit. Acquire blocks for at most the
// configured max wait before failing with ErrBulkheadFull.
//
// A Semaphore is a process-wide shared resource and is safe for concurrent
// use. It must not be used to submit work to another executor: a permit
// held while waiting on a queue would multiply permit pressure under load.
type Semaphore struct {
	name    string
	permits chan struct{}
	maxWait time.Duration
}

// NewSemaphore creates a named semaphore bulkhead with the given permit
// count and bounded acquisition wait.
func NewSemaphore(name string, maxConcurrentCalls int, maxWait time.Duration) *Semaphore {
	if maxConcurrentCalls < 1 {
		maxConcurrentCalls = 1
	}
	return &Semaphore{
		name:    name,
		permits: make(chan struct{}, maxConcurrentCalls),
		maxWait: maxWait,
	}
}

func (s *Semaphore) Name() string {
	return s.name
}

// Acquire obtains a permit, blocking for at most the configured max wait.
// It returns ErrBulkheadFull when no permit frees up in time and
// ErrInterrupted when ctx is cancelled first. Every granted Acquire must be
// paired with exactly one Release.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.permits <- struct{}{}:
		return nil
	default:
	}

	timer := time.NewTimer(s.maxWait)
	defer timer.Stop()

	select {
	case s.permits <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrBulkheadFull
	case <-ctx.Done():
		return ErrInterrupted
	}
}

// Release returns a permit to the bulkhead.
func (s *Semaphore) Release() {
	<-s.permits
}

// Do runs fn while holding a permit. The permit is released even when fn
// returns an error.
func (s *Semaphore) Do(ctx context.Context, fn func() error) error {
	if err := s.Acquire(ctx); err != nil {
		return err
	}
	defer s.Release()
	return fn()
}

// InUse reports the number of permits currently held.
func (s *Semaphore) InUse() int {
	return len(s.permits)
}
