package marketdata

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Scheduler drives the two periodic tasks: the price refresh on a fixed
// interval and the daily retention cleanup at a fixed wall-clock hour.
// A tick that is still running when the next is due causes the next tick
// to be skipped rather than queued; staleness beyond one interval is
// tolerable and skipping keeps the loop simple.
type Scheduler struct {
	service  *Service
	interval time.Duration
	hour     int
	cleanups []func(context.Context)
	logger   *zap.Logger

	inFlight atomic.Bool
}

// NewScheduler wires the refresh service plus any additional daily cleanup
// tasks (e.g. notification pruning) that share the 02:00 slot.
func NewScheduler(service *Service, interval time.Duration, cleanupHour int, logger *zap.Logger, extraCleanups ...func(context.Context)) *Scheduler {
	cleanups := append([]func(context.Context){service.Cleanup}, extraCleanups...)
	return &Scheduler{
		service:  service,
		interval: interval,
		hour:     cleanupHour,
		cleanups: cleanups,
		logger:   logger,
	}
}

// Run starts both loops and blocks until ctx is cancelled. In-flight ticks
// are abandoned cleanly through ctx.
func (s *Scheduler) Run(ctx context.Context) {
	go s.cleanupLoop(ctx)
	s.refreshLoop(ctx)
}

func (s *Scheduler) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Market data scheduler started", zap.Duration("interval", s.interval))

	// Prime the cache right away instead of waiting a full interval
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

// tick runs one refresh cycle without blocking the ticker. Errors and
// panics are contained; they never cancel future ticks.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn("Previous refresh still running, skipping tick")
		return
	}

	go func() {
		defer s.inFlight.Store(false)
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Refresh tick panicked", zap.Any("panic", r))
			}
		}()

		if err := s.service.Refresh(ctx); err != nil {
			s.logger.Error("Market data refresh failed", zap.Error(err))
			return
		}
		s.logger.Debug("Market data refreshed")
	}()
}

func (s *Scheduler) cleanupLoop(ctx context.Context) {
	for {
		wait := time.Until(nextRun(time.Now(), s.hour))
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.logger.Info("Running daily data cleanup")
			for _, task := range s.cleanups {
				task(ctx)
			}
		}
	}
}

// nextRun returns the next occurrence of hour o'clock after now.
func nextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
