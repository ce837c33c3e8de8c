// Package feed carries live query results from a document store to a
// consumer. Every snapshot is the complete ordered result set, so a consumer
// that falls behind only needs the most recent one.
package feed

import (
	"context"
	"sync"
)

type Snapshot[T any] struct {
	Items []T
	Err   error
}

// Emit hands a snapshot to the consumer. It returns false once the feed is
// stopped and the producer should return.
type Emit[T any] func(Snapshot[T]) bool

type Feed[T any] struct {
	ch     chan Snapshot[T]
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start runs produce in its own goroutine until it returns or the feed is
// stopped. The channel is closed after produce returns.
func Start[T any](parent context.Context, produce func(ctx context.Context, emit Emit[T])) *Feed[T] {
	ctx, cancel := context.WithCancel(parent)
	f := &Feed[T]{
		ch:     make(chan Snapshot[T], 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(f.done)
		defer close(f.ch)
		produce(ctx, func(s Snapshot[T]) bool {
			return f.emit(ctx, s)
		})
	}()

	return f
}

// emit replaces a pending, unread snapshot with s.
func (f *Feed[T]) emit(ctx context.Context, s Snapshot[T]) bool {
	for {
		if ctx.Err() != nil {
			return false
		}
		select {
		case f.ch <- s:
			return true
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

func (f *Feed[T]) C() <-chan Snapshot[T] {
	return f.ch
}

// Stop cancels the subscription and waits for the producer to exit.
func (f *Feed[T]) Stop() {
	if f == nil {
		return
	}
	f.once.Do(f.cancel)
	<-f.done
}

// Map derives a feed whose snapshots are fn applied to the snapshots of src.
// Errors pass through unchanged. Stopping the derived feed stops src.
func Map[T, U any](parent context.Context, src *Feed[T], fn func([]T) []U) *Feed[U] {
	return Start(parent, func(ctx context.Context, emit Emit[U]) {
		defer src.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case s, ok := <-src.C():
				if !ok {
					return
				}
				out := Snapshot[U]{Err: s.Err}
				if s.Err == nil {
					out.Items = fn(s.Items)
				}
				if !emit(out) {
					return
				}
			}
		}
	})
}
