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
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemaphoreAcquireRelease(t *testing.T) {
	s := NewSemaphore("configService", 2, 50*time.Millisecond)

	require.NoError(t, s.Acquire(context.Background()))
	require.NoError(t, s.Acquire(context.Background()))
	assert.Equal(t, 2, s.InUse())

	err := s.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrBulkheadFull)

	s.Release()
	require.NoError(t, s.Acquire(context.Background()))
	s.Release()
	s.Release()
	assert.Equal(t, 0, s.InUse())
}

func TestSemaphoreWaitsForPermit(t *testing.T) {
	s := NewSemaphore("configService", 1, time.Second)
	require.NoError(t, s.Acquire(context.Background()))

	go func() {
		time.Sleep(20 * time.Millisecond)
		s.Release()
	}()

	start := time.Now()
	require.NoError(t, s.Acquire(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
	s.Release()
}

func TestSemaphoreAcquireInterrupted(t *testing.T) {
	s := NewSemaphore("configService", 1, time.Second)
	require.NoError(t, s.Acquire(context.Background()))
	defer s.Release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := s.Acquire(ctx)
	assert.ErrorIs(t, err, ErrInterrupted)
}

func TestSemaphoreDoReleasesOnError(t *testing.T) {
	s := NewSemaphore("configService", 1, 10*time.Millisecond)

	wantErr := errors.New("downstream exploded")
	err := s.Do(context.Background(), func() error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 0, s.InUse())

	// permit is free again
	require.NoError(t, s.Do(context.Background(), func() error { return nil }))
}

func TestSemaphoreUnderContention(t *testing.T) {
	s := NewSemaphore("configService", 5, time.Second)

	var inFlight, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Do(context.Background(), func() error {
				n := atomic.AddInt64(&inFlight, 1)
				for {
					p := atomic.LoadInt64(&peak)
					if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt64(&inFlight, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(5))
	assert.Equal(t, 0, s.InUse())
}
