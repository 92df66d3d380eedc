package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/coach/internal/coach/ledger"
)

const purgeTimeout = time.Minute

// HousekeepingService sweeps expired refresh records out of the ledger on a
// fixed interval. Records past their expiry can never be consumed, so
// dropping them only bounds storage.
type HousekeepingService struct {
	Ledger   ledger.Ledger
	Logger   *slog.Logger
	Interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewHousekeepingService defaults a non-positive interval to one hour.
func NewHousekeepingService(l ledger.Ledger, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &HousekeepingService{Ledger: l, Logger: logger, Interval: interval}
}

// Start sweeps once immediately and then on every tick until Stop.
func (s *HousekeepingService) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		for {
			s.sweep(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	s.Logger.Info("refresh ledger sweeper started", "interval", s.Interval)
}

// Stop cancels any sweep in flight and waits for the worker to exit. It is
// safe to call on a service that was never started.
func (s *HousekeepingService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.Logger.Info("refresh ledger sweeper stopped")
}

func (s *HousekeepingService) sweep(parent context.Context) {
	if parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, purgeTimeout)
	defer cancel()

	n, err := s.Ledger.Purge(ctx, time.Now().UTC())
	switch {
	case err != nil && parent.Err() == nil:
		s.Logger.Error("purge expired refresh records", "error", err)
	case n > 0:
		s.Logger.Info("purged expired refresh records", "count", n)
	default:
		s.Logger.Debug("no expired refresh records")
	}
}
