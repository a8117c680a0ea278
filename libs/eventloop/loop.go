// Package eventloop runs closures one at a time on a single goroutine.
// Engines that are only ever touched from inside a loop need no locking.
package eventloop

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/atomic"
)

var ErrStopped = errors.New("event loop stopped")

type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	running atomic.Bool
	stopped atomic.Bool
	done    chan struct{}
}

func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post queues fn for execution on the loop goroutine. It never blocks, so
// it is safe to call from inside the loop.
func (l *Loop) Post(fn func()) error {
	if l.stopped.Load() {
		return ErrStopped
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// After posts fn once d has elapsed.
func (l *Loop) After(d time.Duration, fn func()) (cancel func()) {
	t := time.AfterFunc(d, func() {
		_ = l.Post(fn)
	})
	return func() { t.Stop() }
}

// Every posts fn each time d elapses until cancel is called or the loop
// stops. Ticks are dropped, not queued, when fn is slower than d.
func (l *Loop) Every(d time.Duration, fn func()) (cancel func()) {
	ticker := time.NewTicker(d)
	quit := make(chan struct{})
	inflight := atomic.NewBool(false)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !inflight.CompareAndSwap(false, true) {
					continue
				}
				if err := l.Post(func() {
					defer inflight.Store(false)
					fn()
				}); err != nil {
					return
				}
			case <-quit:
				return
			case <-l.done:
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(quit) }) }
}

// Running reports whether Run is executing.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// Run executes posted closures until ctx is cancelled. Closures still queued
// when ctx ends are dropped.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("event loop already running")
	}
	defer func() {
		l.stopped.Store(true)
		l.running.Store(false)
		close(l.done)
	}()
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()
		for _, fn := range batch {
			if ctx.Err() != nil {
				return nil
			}
			fn()
		}
		select {
		case <-ctx.Done():
			return nil
		case <-l.wake:
		}
	}
}

// Done is closed once Run returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
