package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// blockingFetcher holds the refresh cycle open until released.
type blockingFetcher struct {
	started  chan struct{}
	release  chan struct{}
	signaled bool
}

func (f *blockingFetcher) FetchQuotes(ctx context.Context, symbols []string) ([]RawQuote, error) {
	if !f.signaled {
		f.signaled = true
		close(f.started)
	}
	<-f.release
	return nil, nil
}

func (f *blockingFetcher) Fetch24hRange(ctx context.Context, symbol string) (float64, float64) {
	return 0, 0
}

func TestScheduler_SkipsOverlappingTick(t *testing.T) {
	fetcher := &blockingFetcher{started: make(chan struct{}), release: make(chan struct{})}
	svc, _ := newServiceUnderTest(t, nil, &stubHistory{}, nil)
	svc.fetcher = fetcher

	s := NewScheduler(svc, time.Hour, 2, zap.NewNop())

	ctx := context.Background()
	s.tick(ctx)
	<-fetcher.started

	// Second tick while the first is still in flight must be skipped
	s.tick(ctx)
	assert.True(t, s.inFlight.Load(), "first tick should still be marked in flight")

	close(fetcher.release)

	deadline := time.Now().Add(time.Second)
	for s.inFlight.Load() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.False(t, s.inFlight.Load(), "flag must clear once the tick finishes")
}

func TestScheduler_TickSurvivesPanic(t *testing.T) {
	svc, _ := newServiceUnderTest(t, nil, &stubHistory{}, nil)
	svc.fetcher = nil // forces a nil-dereference panic inside Refresh

	s := NewScheduler(svc, time.Hour, 2, zap.NewNop())
	s.tick(context.Background())

	deadline := time.Now().Add(time.Second)
	for s.inFlight.Load() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.False(t, s.inFlight.Load(), "a panicking tick must still release the flag")
}

func TestNextRun(t *testing.T) {
	loc := time.UTC

	before := time.Date(2025, 6, 10, 1, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 6, 10, 2, 0, 0, 0, loc), nextRun(before, 2))

	after := time.Date(2025, 6, 10, 2, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 6, 11, 2, 0, 0, 0, loc), nextRun(after, 2))

	exactly := time.Date(2025, 6, 10, 2, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 6, 11, 2, 0, 0, 0, loc), nextRun(exactly, 2))
}
