package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/billboard/internal/blog/store"
)

// PresenceSweeper periodically flips users offline when they stopped making
// requests without logging out, so the online flag does not stick forever.
type PresenceSweeper struct {
	Store       store.Store
	Logger      *slog.Logger
	Interval    time.Duration
	IdleTimeout time.Duration

	// Now is overridable in tests.
	Now func() time.Time

	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	stopOnce sync.Once
}

// NewPresenceSweeper defaults a non-positive interval to 5 minutes and a
// non-positive idle timeout to 30 minutes.
func NewPresenceSweeper(st store.Store, logger *slog.Logger, interval, idleTimeout time.Duration) *PresenceSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Minute
	}

	return &PresenceSweeper{
		Store:       st,
		Logger:      logger,
		Interval:    interval,
		IdleTimeout: idleTimeout,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start launches the background worker. Call Stop to end it.
func (s *PresenceSweeper) Start() {
	s.started = true
	go s.run()
	s.Logger.Info("presence sweeper started", "interval", s.Interval, "idle_timeout", s.IdleTimeout)
}

// Stop blocks until an in-progress sweep has finished. It is safe to call
// more than once, and a no-op if Start never ran.
func (s *PresenceSweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if !s.started {
			return
		}
		<-s.doneCh
		s.Logger.Info("presence sweeper stopped")
	})
}

func (s *PresenceSweeper) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep runs one pass and returns how many users went offline.
func (s *PresenceSweeper) Sweep(ctx context.Context) int64 {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}

	n, err := s.Store.Users().DeactivateIdle(ctx, now.Add(-s.IdleTimeout))
	if err != nil {
		s.Logger.Error("failed to deactivate idle users", "error", err)
		return 0
	}
	if n > 0 {
		s.Logger.Info("marked idle users offline", "count", n)
	}
	return n
}
