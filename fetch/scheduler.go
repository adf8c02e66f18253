package fetch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

// Scheduler drives periodic polling for a single data source. Each tracked
// source owns its own scheduler; there is no shared global timer. Polls for
// the same source never overlap: a tick arriving while the previous poll is
// still in flight is skipped.
type Scheduler struct {
	key      string
	interval time.Duration
	poll     func(ctx context.Context)

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	inFlight atomic.Bool
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler for one source key. poll is invoked with a
// context that is cancelled on Stop or parent-context cancellation; on
// cancellation the poll must discard partial results.
func NewScheduler(key string, interval time.Duration, poll func(ctx context.Context)) *Scheduler {
	return &Scheduler{key: key, interval: interval, poll: poll}
}

// Key returns the source key this scheduler drives.
func (s *Scheduler) Key() string { return s.key }

// Start begins polling. The first poll fires immediately, then on the fixed
// interval. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
	log.WithFields(log.Fields{"source": s.key, "interval": s.interval}).Info("scheduler started")
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		log.WithField("source", s.key).Debug("previous poll still in flight, skipping tick")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inFlight.Store(false)
		s.poll(ctx)
	}()
}

// Stop cancels the timer and any in-flight poll, then waits for the poll to
// finish so that no request outlives the scheduler. Safe to call more than
// once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	<-done
	s.wg.Wait()
	log.WithField("source", s.key).Info("scheduler stopped")
}
