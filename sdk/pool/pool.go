// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

// Package pool runs a bounded producer/consumer pipeline: one scanner submits
// work items, a fixed number of workers drain them. A failing item never stops
// the other items or the workers.
package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

var ErrClosed = errors.New("pool: submit after scan finished")

// Handler processes one item.
type Handler[T any] func(ctx context.Context, item T) error

// FailureFunc observes an item that failed (error or panic).
type FailureFunc[T any] func(item T, err error)

// Stats is a snapshot of the pool counters.
type Stats struct {
	Needed    int64
	Completed int64
	Failed    int64
}

// Done reports whether every submitted item has been processed.
func (s Stats) Done() bool { return s.Completed+s.Failed == s.Needed }

type Pool[T any] struct {
	workers   int
	queue     chan T
	handler   Handler[T]
	onFailure FailureFunc[T]

	wg        conc.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once

	needed       atomic.Int64
	completed    atomic.Int64
	failed       atomic.Int64
	scanFinished atomic.Bool
}

type Option[T any] func(*Pool[T])

func WithFailureHandler[T any](f FailureFunc[T]) Option[T] {
	return func(p *Pool[T]) { p.onFailure = f }
}

// New creates a pool with the given number of workers and queue capacity.
func New[T any](workers, queueSize int, h Handler[T], opts ...Option[T]) *Pool[T] {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	p := &Pool[T]{
		workers: workers,
		queue:   make(chan T, queueSize),
		handler: h,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start launches the workers. Workers stop taking new items once ctx is done;
// the item in progress is allowed to finish.
func (p *Pool[T]) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Go(func() { p.work(ctx) })
		}
	})
}

func (p *Pool[T]) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.drainCancelled(ctx.Err())
			return
		case item, ok := <-p.queue:
			if !ok {
				return
			}
			p.run(ctx, item)
		}
	}
}

func (p *Pool[T]) run(ctx context.Context, item T) {
	var err error
	var pc panics.Catcher
	pc.Try(func() { err = p.handler(ctx, item) })
	if r := pc.Recovered(); r != nil {
		err = r.AsError()
	}
	if err != nil {
		p.failed.Add(1)
		if p.onFailure != nil {
			p.onFailure(item, err)
		}
		return
	}
	p.completed.Add(1)
}

// drainCancelled accounts queued items as failed once the context is gone so
// the counters still add up.
func (p *Pool[T]) drainCancelled(err error) {
	for {
		select {
		case item, ok := <-p.queue:
			if !ok {
				return
			}
			p.failed.Add(1)
			if p.onFailure != nil {
				p.onFailure(item, err)
			}
		default:
			return
		}
	}
}

// Submit enqueues an item, blocking while the queue is full.
func (p *Pool[T]) Submit(ctx context.Context, item T) error {
	if p.scanFinished.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.needed.Add(1)
	select {
	case p.queue <- item:
		return nil
	case <-ctx.Done():
		p.needed.Add(-1)
		return ctx.Err()
	}
}

// ScanFinished signals that no more items will be submitted. Workers exit once
// the queue is empty.
func (p *Pool[T]) ScanFinished() {
	p.closeOnce.Do(func() {
		p.scanFinished.Store(true)
		close(p.queue)
	})
}

// Wait blocks until all workers have exited and returns the final counters.
// It calls ScanFinished if the caller did not.
func (p *Pool[T]) Wait() Stats {
	p.ScanFinished()
	p.wg.Wait()
	// Items that slipped in while workers were stopping on cancellation.
	for item := range p.queue {
		p.failed.Add(1)
		if p.onFailure != nil {
			p.onFailure(item, context.Canceled)
		}
	}
	return p.Stats()
}

func (p *Pool[T]) Stats() Stats {
	return Stats{
		Needed:    p.needed.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}
