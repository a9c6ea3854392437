package tasks

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs delayed tasks tied to the lifetime of their owner.
//
// Close cancels everything still pending; a task already running sees its context cancelled.
// Wait blocks until every scheduled task has returned.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler whose tasks inherit values (not cancellation) from parent.
func NewScheduler(parent context.Context) *Scheduler {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	return &Scheduler{ctx: ctx, cancel: cancel}
}

// After runs fn once d has elapsed. It reports false if the scheduler is closed.
func (s *Scheduler) After(d time.Duration, fn func(ctx context.Context)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
		}
		fn(s.ctx)
	}()
	return true
}

// Close cancels pending tasks and rejects new ones. It does not wait.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

// Wait blocks until all scheduled tasks have finished or been cancelled.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
