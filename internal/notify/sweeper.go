package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper runs a task once at start and then on every tick until Stop is
// called or the context is cancelled. Task errors are logged.
type Sweeper struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) error
	done     chan struct{}
	stopOnce sync.Once
}

func NewSweeper(name string, interval time.Duration, task func(ctx context.Context) error) *Sweeper {
	return &Sweeper{
		name:     name,
		interval: interval,
		task:     task,
		done:     make(chan struct{}),
	}
}

// Start blocks until Stop is called or ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.run(ctx)
	for {
		select {
		case <-ticker.C:
			s.run(ctx)
		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
	}
}

func (s *Sweeper) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	if err := s.task(runCtx); err != nil {
		slog.Error("sweep failed", "sweeper", s.name, "error", err)
	}
}

// Stop signals Start to return. It is safe to call more than once.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}
