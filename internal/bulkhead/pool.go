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

package bulkhead

import (
	"context"
	"sync"
	"time"
)

// Task is the unit of work submitted to a Pool. The context passed to the
// task is cancelled when the task's future is cancelled.
type Task func(ctx context.Context) (interface{}, error)

// Future is a one-shot completion cell returned by Pool.Submit. It is
// joinable from any goroutine; Get never deadlocks regardless of which
// execution context completes the task.
type Future struct {
	done      chan struct{}
	value     interface{}
	err       error
	taskCtx   context.Context
	cancelCtx context.CancelFunc
	once      sync.Once
}

func newFuture() *Future {
	ctx, cancel := context.WithCancel(context.Background())
	return &Future{done: make(chan struct{}), taskCtx: ctx, cancelCtx: cancel}
}

func (f *Future) complete(value interface{}, err error) {
	f.once.Do(func() {
		if f.taskCtx.Err() != nil {
			// Results produced after cancellation are discarded.
			f.value, f.err = nil, ErrInterrupted
		} else {
			f.value, f.err = value, err
		}
		close(f.done)
	})
}

// Get blocks until the task completes, the future is cancelled, or ctx is
// cancelled. The returned error is the task's own error, ErrInterrupted on
// cancellation, or nil.
func (f *Future) Get(ctx context.Context) (interface{}, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ErrInterrupted
	}
}

// Cancel interrupts the task. A pending task is discarded without running;
// a running task sees its context cancelled. Get returns ErrInterrupted.
func (f *Future) Cancel() {
	f.cancelCtx()
	f.once.Do(func() {
		f.value, f.err = nil, ErrInterrupted
		close(f.done)
	})
}

func (f *Future) cancelled() bool {
	return f.taskCtx.Err() != nil
}

type poolTask struct {
	run    Task
	future *Future
}

// Pool is a bulkhead backed by a dedicated bounded worker pool and a bounded
// task queue. Submission never blocks: if a worker is idle the task runs
// immediately, otherwise it is queued, and when the queue is full with the
// pool at max size, Submit rejects with ErrBulkheadFull.
//
// The pool grows from core to max workers on demand; workers beyond core
// shrink back after sitting idle for the keep-alive duration.
type Pool struct {
	name      string
	core      int
	max       int
	keepAlive time.Duration
	queue     chan *poolTask

	mu      sync.Mutex
	workers int
	closed  bool
	wg      sync.WaitGroup
}

// NewPool creates a named pool bulkhead.
func NewPool(name string, corePoolSize, maxPoolSize, queueCapacity int, keepAlive time.Duration) *Pool {
	if corePoolSize < 1 {
		corePoolSize = 1
	}
	if maxPoolSize < corePoolSize {
		maxPoolSize = corePoolSize
	}
	if queueCapacity < 0 {
		queueCapacity = 0
	}
	if keepAlive <= 0 {
		keepAlive = time.Millisecond
	}
	return &Pool{
		name:      name,
		core:      corePoolSize,
		max:       maxPoolSize,
		keepAlive: keepAlive,
		queue:     make(chan *poolTask, queueCapacity),
	}
}

func (p *Pool) Name() string {
	return p.name
}

// Submit hands a task to the pool and returns its future. Submission policy:
// spawn a worker while below core size, then enqueue, then spawn up to max
// size, then reject with ErrBulkheadFull.
func (p *Pool) Submit(task Task) (*Future, error) {
	future := newFuture()
	t := &poolTask{run: task, future: future}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	if p.workers < p.core {
		p.startWorker(t)
		return future, nil
	}

	// the queue is only closed under this lock, so the send cannot race
	// with Close
	select {
	case p.queue <- t:
		return future, nil
	default:
	}

	if p.workers < p.max {
		p.startWorker(t)
		return future, nil
	}
	return nil, ErrBulkheadFull
}

// startWorker must be called with p.mu held.
func (p *Pool) startWorker(first *poolTask) {
	p.workers++
	p.wg.Add(1)
	go p.worker(first)
}

func (p *Pool) worker(first *poolTask) {
	if first != nil {
		p.execute(first)
	}

	idle := time.NewTimer(p.keepAlive)
	defer idle.Stop()

	for {
		if !idle.Stop() {
			select {
			case <-idle.C:
			default:
			}
		}
		idle.Reset(p.keepAlive)

		select {
		case t, ok := <-p.queue:
			if !ok {
				p.exitWorker()
				return
			}
			p.execute(t)
		case <-idle.C:
			p.mu.Lock()
			if p.workers > p.core || p.closed {
				p.workers--
				p.mu.Unlock()
				p.wg.Done()
				return
			}
			p.mu.Unlock()
		}
	}
}

func (p *Pool) exitWorker() {
	p.mu.Lock()
	p.workers--
	p.mu.Unlock()
	p.wg.Done()
}

func (p *Pool) execute(t *poolTask) {
	if t.future.cancelled() {
		t.future.complete(nil, ErrInterrupted)
		return
	}
	value, err := t.run(t.future.taskCtx)
	t.future.complete(value, err)
}

// Close shuts the pool down. Queued tasks still run; workers exit once the
// queue drains. Close blocks until every worker has stopped.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers reports the current worker count.
func (p *Pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}
