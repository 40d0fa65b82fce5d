package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorales/wxslate/config"
	"github.com/jmorales/wxslate/internal/domain"
)

type fakeMarket struct {
	raws  []domain.RawCandidate
	stats domain.ScanStats
	err   error
}

func (f *fakeMarket) FetchCandidates(context.Context) ([]domain.RawCandidate, domain.ScanStats, error) {
	return f.raws, f.stats, f.err
}

func (f *fakeMarket) FetchEventPrices(context.Context, []string) (map[string]int, error) {
	return nil, nil
}

type fakeWeather struct {
	obs *domain.Observation
	fc  *domain.Forecast
}

func (f *fakeWeather) LatestObservation(context.Context, string) (*domain.Observation, error) {
	return f.obs, nil
}

func (f *fakeWeather) Forecast(context.Context, string) (*domain.Forecast, error) {
	return f.fc, nil
}

type fakeStore struct{ saved int }

func (s *fakeStore) SaveSlate(context.Context, domain.DailySlate) error { s.saved++; return nil }
func (s *fakeStore) LatestPrior(context.Context, string, domain.DailySlate) (*domain.DailySlate, error) {
	return nil, nil
}
func (s *fakeStore) Close() error { return nil }

type fakeNotifier struct{ notified int }

func (n *fakeNotifier) Notify(context.Context, domain.DailySlate) error { n.notified++; return nil }
func (n *fakeNotifier) Alert(context.Context, string, string) error     { return nil }

func rawCandidate(city, ticker string, ask, room int) domain.RawCandidate {
	return domain.RawCandidate{
		City:            city,
		MarketType:      domain.HighTemp,
		MarketTicker:    ticker,
		TargetDateLocal: "2026-02-12",
		BracketDef:      "50°F or above",
		Orderbook: domain.OrderbookSnapshot{
			ImpliedNoAskCents: domain.IntPtr(ask),
			BestNoBidCents:    domain.IntPtr(ask - room),
			BidRoomCents:      domain.IntPtr(room),
			Top3YesBids:       []domain.BookLevel{{PriceCents: 100 - ask, Quantity: 15}},
			Top3NoBids:        []domain.BookLevel{{PriceCents: ask - room, Quantity: 15}},
		},
	}
}

func newTestScanner(market *fakeMarket, store *fakeStore, notifier *fakeNotifier) *Scanner {
	weather := &fakeWeather{
		obs: &domain.Observation{TempF: 45},
		fc:  &domain.Forecast{HighF: 42, LowF: 30},
	}
	return New(config.Default(), market, weather, store, nil, notifier, 2)
}

func TestScan_EndToEnd(t *testing.T) {
	market := &fakeMarket{
		raws: []domain.RawCandidate{
			rawCandidate("New York", "T1", 92, 3),
			rawCandidate("Chicago", "T2", 89, 3),
		},
		stats: domain.ScanStats{EventsScanned: 2, BracketsScanned: 10, CandidatesInWindow: 2},
	}
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	s := newTestScanner(market, store, notifier)

	// Midday local: the HIGH bracket is not locked yet.
	et, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2026, 2, 12, 11, 0, 0, 0, et)

	slate, err := s.Scan(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, 1, store.saved)
	assert.Equal(t, 1, notifier.notified)
	assert.Equal(t, "2026-02-12", slate.TargetDateLocal)

	// Every fetched candidate lands in exactly one bucket.
	assert.Len(t, slate.All(), 2)
	// The 89c candidate sits just below the primary window.
	c, ok := slate.Find("T2")
	require.True(t, ok)
	assert.Equal(t, domain.BucketNearMiss, c.Bucket)
}

func TestScan_FetchErrorIsFatal(t *testing.T) {
	market := &fakeMarket{err: assert.AnError}
	s := newTestScanner(market, &fakeStore{}, &fakeNotifier{})

	_, err := s.Scan(context.Background(), time.Now())
	assert.Error(t, err)
}

func TestScan_NoCandidatesStillProducesSlate(t *testing.T) {
	market := &fakeMarket{stats: domain.ScanStats{EventsScanned: 3}}
	store := &fakeStore{}
	s := newTestScanner(market, store, &fakeNotifier{})

	slate, err := s.Scan(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, 1, store.saved)
	assert.Empty(t, slate.All())
	assert.Equal(t, 3, slate.Stats.EventsScanned)
}

func TestShouldRun(t *testing.T) {
	s := newTestScanner(&fakeMarket{}, &fakeStore{}, &fakeNotifier{})
	et, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	assert.True(t, s.ShouldRun(time.Date(2026, 2, 12, 7, 30, 0, 0, et)))
	assert.False(t, s.ShouldRun(time.Date(2026, 2, 12, 13, 0, 0, 0, et)))
}
