// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package pool

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

func TestPoolProcessesEverything(t *testing.T) {
	var sum atomic.Int64
	p := New(4, 2, func(_ context.Context, n int) error {
		sum.Add(int64(n))
		return nil
	})
	ctx := context.Background()
	p.Start(ctx)
	for i := 1; i <= 100; i++ {
		require.NoError(t, p.Submit(ctx, i))
	}
	st := p.Wait()

	assert.EqualValues(t, 5050, sum.Load())
	assert.Equal(t, Stats{Needed: 100, Completed: 100}, st)
	assert.True(t, st.Done())
}

func TestPoolIsolatesFailures(t *testing.T) {
	var mu sync.Mutex
	var failed []int
	p := New(3, 0, func(_ context.Context, n int) error {
		switch n {
		case 3:
			return errors.New("boom")
		case 7:
			panic("worker panic")
		}
		return nil
	}, WithFailureHandler(func(n int, err error) {
		mu.Lock()
		failed = append(failed, n)
		mu.Unlock()
		assert.Error(t, err)
	}))
	ctx := context.Background()
	p.Start(ctx)
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Submit(ctx, i))
	}
	st := p.Wait()

	assert.EqualValues(t, 10, st.Needed)
	assert.EqualValues(t, 8, st.Completed)
	assert.EqualValues(t, 2, st.Failed)
	assert.ElementsMatch(t, []int{3, 7}, failed)
}

func TestPoolBoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	p := New(2, 10, func(_ context.Context, _ int) error {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return nil
	})
	ctx := context.Background()
	p.Start(ctx)
	for i := 0; i < 12; i++ {
		require.NoError(t, p.Submit(ctx, i))
	}
	p.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPoolSubmitAfterScanFinished(t *testing.T) {
	p := New(1, 1, func(context.Context, int) error { return nil })
	p.Start(context.Background())
	p.ScanFinished()
	assert.ErrorIs(t, p.Submit(context.Background(), 1), ErrClosed)
	assert.Equal(t, Stats{}, p.Wait())
}

func TestPoolCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	p := New(1, 0, func(context.Context, int) error {
		<-release
		return nil
	})
	p.Start(ctx)
	require.NoError(t, p.Submit(ctx, 1))
	cancel()
	assert.ErrorIs(t, p.Submit(ctx, 2), context.Canceled)
	close(release)

	st := p.Wait()
	assert.EqualValues(t, 1, st.Needed)
	assert.True(t, st.Done())
}

func TestPoolSubmitOnCancelledContextWithFreeQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var handled atomic.Int64
	p := New(1, 4, func(context.Context, int) error {
		handled.Add(1)
		return nil
	})
	p.Start(ctx)
	cancel()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, p.Submit(ctx, i), context.Canceled)
	}
	st := p.Wait()
	assert.Equal(t, Stats{}, st)
	assert.True(t, st.Done())
	assert.Zero(t, handled.Load())
}

func TestPoolWaitCountsLeftoverItemsAsFailed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var failed atomic.Int64
	p := New(1, 4, func(context.Context, int) error { return nil },
		WithFailureHandler(func(_ int, err error) {
			assert.ErrorIs(t, err, context.Canceled)
			failed.Add(1)
		}))
	// Items queued before any worker runs stay in the buffer once ctx is done.
	require.NoError(t, p.Submit(ctx, 1))
	require.NoError(t, p.Submit(ctx, 2))
	cancel()
	p.Start(ctx)

	st := p.Wait()
	assert.EqualValues(t, 2, st.Needed)
	assert.EqualValues(t, 2, st.Completed+st.Failed)
	assert.True(t, st.Done())
}
