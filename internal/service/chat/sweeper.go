package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultSweepInterval = 5 * time.Minute

// Sweeper periodically reclaims idle sessions, independently of request handling.
type Sweeper struct {
	store    Store
	interval time.Duration
	logger   *zap.Logger
	onSweep  func(removed, remaining int)

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewSweeper creates a sweeper for store. onSweep may be nil.
func NewSweeper(store Store, interval time.Duration, logger *zap.Logger, onSweep func(removed, remaining int)) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		onSweep:  onSweep,
	}
}

// Start schedules the sweep. Calling Start on a running sweeper is a no-op.
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), s.sweepOnce); err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	c.Start()

	s.cron = c
	s.running = true
	s.logger.Info("session sweeper started", zap.Duration("interval", s.interval))
	return nil
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	c := s.cron
	running := s.running
	s.cron = nil
	s.running = false
	s.mu.Unlock()

	if !running {
		return
	}
	<-c.Stop().Done()
	s.logger.Info("session sweeper stopped")
}

// Run starts the sweeper and blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Sweeper) sweepOnce() {
	removed := s.store.Sweep()
	remaining := s.store.Len()
	if removed > 0 {
		s.logger.Debug("swept idle sessions", zap.Int("removed", removed), zap.Int("remaining", remaining))
	}
	if s.onSweep != nil {
		s.onSweep(removed, remaining)
	}
}
