package service

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/coach/internal/coach/domain"
	"github.com/stretchr/testify/require"
)

type countingLedger struct {
	purges atomic.Int32
}

func (l *countingLedger) Record(context.Context, domain.RefreshRecord) error { return nil }
func (l *countingLedger) Consume(context.Context, string, time.Time) (domain.RefreshRecord, error) {
	return domain.RefreshRecord{}, nil
}
func (l *countingLedger) Revoke(context.Context, string, time.Time) error { return nil }
func (l *countingLedger) Purge(context.Context, time.Time) (int64, error) {
	l.purges.Add(1)
	return 0, nil
}

func TestHousekeepingRunsImmediatelyAndStops(t *testing.T) {
	l := &countingLedger{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hk := NewHousekeepingService(l, logger, 10*time.Millisecond)
	hk.Start()

	require.Eventually(t, func() bool { return l.purges.Load() >= 2 }, time.Second, 5*time.Millisecond)
	hk.Stop()

	after := l.purges.Load()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, after, l.purges.Load(), "no purge after Stop")
}

func TestHousekeepingDefaultInterval(t *testing.T) {
	hk := NewHousekeepingService(&countingLedger{}, slog.Default(), 0)
	require.Equal(t, time.Hour, hk.Interval)
}

func TestHousekeepingStopWithoutStart(t *testing.T) {
	hk := NewHousekeepingService(&countingLedger{}, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Minute)
	require.NotPanics(t, hk.Stop)
}
