package service

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// FlowSweeper drops a pending authorization flow once its state has expired.
type FlowSweeper interface {
	SweepExpired() bool
}

// HousekeepingService periodically releases abandoned login attempts, so
// anti-replay state from a tab the user closed does not linger in memory
// until the next /login.
type HousekeepingService struct {
	Flows    FlowSweeper
	Logger   *slog.Logger
	Interval time.Duration
	Clock    clockwork.Clock

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to one minute.
func NewHousekeepingService(flows FlowSweeper, logger *slog.Logger, interval time.Duration, clock clockwork.Clock) *HousekeepingService {
	if interval <= 0 {
		interval = time.Minute
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &HousekeepingService{
		Flows:    flows,
		Logger:   logger,
		Interval: interval,
		Clock:    clock,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop in the background until Stop.
func (s *HousekeepingService) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop ends the loop and waits for it to exit. It is safe to call more
// than once, and before Start.
func (s *HousekeepingService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.started.Load() {
			<-s.doneCh
			s.Logger.Info("housekeeping service stopped")
		}
	})
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := s.Clock.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) sweep() {
	if s.Flows.SweepExpired() {
		s.Logger.Info("discarded expired pending login")
	}
}
