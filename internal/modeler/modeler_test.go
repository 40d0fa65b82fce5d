package modeler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorales/wxslate/config"
	"github.com/jmorales/wxslate/internal/domain"
	"github.com/jmorales/wxslate/internal/rules"
)

func testCandidate(mt domain.MarketType, bracket string) domain.RawCandidate {
	return domain.RawCandidate{
		City:            "New York",
		MarketType:      mt,
		MarketTicker:    "KXLOWNY-26FEB12-B40",
		TargetDateLocal: "2026-02-12",
		BracketDef:      bracket,
		Orderbook: domain.OrderbookSnapshot{
			ImpliedNoAskCents: domain.IntPtr(92),
		},
	}
}

func testSpec(t *testing.T, mt domain.MarketType) domain.SettlementSpec {
	t.Helper()
	spec := rules.NewResolver().Resolve("New York", mt, "2026-02-12")
	require.Equal(t, domain.ConfidenceHigh, spec.Confidence)
	return spec
}

func localTime(t *testing.T, hour, min int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return time.Date(2026, 2, 12, hour, min, 0, 0, loc)
}

func TestModel_WeatherMethodProbabilitiesSumToOne(t *testing.T) {
	m := New(config.Default())
	raw := testCandidate(domain.LowTemp, "40°F or below")
	obs := &domain.Observation{StationICAO: "KNYC", TempF: 42}
	fc := &domain.Forecast{StationICAO: "KNYC", HighF: 48, LowF: 38}

	out := m.Model(raw, testSpec(t, domain.LowTemp), obs, fc, localTime(t, 5, 0))

	assert.Equal(t, domain.MethodWeatherModel, out.Method)
	assert.InDelta(t, 1.0, out.PYes+out.PNo, 0.001)
	assert.Greater(t, out.PYes, 0.0)
}

func TestModel_NoWeatherDegradesToMarketImplied(t *testing.T) {
	m := New(config.Default())
	raw := testCandidate(domain.LowTemp, "40°F or below")

	out := m.Model(raw, testSpec(t, domain.LowTemp), nil, nil, localTime(t, 5, 0))

	assert.Equal(t, domain.MethodMarketImplied, out.Method)
	assert.Equal(t, domain.UncertaintyHigh, out.Uncertainty)
	assert.InDelta(t, 0.92, out.PNo, 0.001)
}

func TestModel_MarketImpliedWithoutAskFallsBackToEvens(t *testing.T) {
	m := New(config.Default())
	raw := testCandidate(domain.LowTemp, "40°F or below")
	raw.Orderbook.ImpliedNoAskCents = nil

	out := m.Model(raw, testSpec(t, domain.LowTemp), nil, nil, localTime(t, 5, 0))

	assert.Equal(t, domain.MethodMarketImplied, out.Method)
	assert.InDelta(t, 0.5, out.PNo, 0.001)
}

func TestModel_UnparseableBracketKeepsWeatherMethod(t *testing.T) {
	m := New(config.Default())
	raw := testCandidate(domain.LowTemp, "mystery bracket")
	obs := &domain.Observation{StationICAO: "KNYC", TempF: 42}
	fc := &domain.Forecast{StationICAO: "KNYC", HighF: 48, LowF: 38}

	out := m.Model(raw, testSpec(t, domain.LowTemp), obs, fc, localTime(t, 5, 0))

	// Con datos de clima el método no cae a market-implied: 0.5/0.5 con
	// incertidumbre máxima, ignorando el ask del book.
	assert.Equal(t, domain.MethodWeatherModel, out.Method)
	assert.InDelta(t, 0.5, out.PYes, 0.001)
	assert.InDelta(t, 0.5, out.PNo, 0.001)
	assert.Equal(t, domain.UncertaintyHigh, out.Uncertainty)
	assert.Equal(t, domain.KnifeEdgeHigh, out.KnifeEdge)
}

func TestModel_LowLockIn_PastSunrisePlusBuffer(t *testing.T) {
	m := New(config.Default())
	raw := testCandidate(domain.LowTemp, "40°F or below")
	// Observed already at the forecast low, late morning: the low is locked.
	obs := &domain.Observation{StationICAO: "KNYC", TempF: 38}
	fc := &domain.Forecast{StationICAO: "KNYC", HighF: 48, LowF: 40}

	out := m.Model(raw, testSpec(t, domain.LowTemp), obs, fc, localTime(t, 11, 0))

	assert.Equal(t, domain.Locking, out.LockIn)
	require.NotNil(t, out.PNewExtreme)
	assert.Less(t, *out.PNewExtreme, 0.05)
}

func TestModel_LowNotLockedBeforeSunrise(t *testing.T) {
	m := New(config.Default())
	raw := testCandidate(domain.LowTemp, "40°F or below")
	obs := &domain.Observation{StationICAO: "KNYC", TempF: 35}
	fc := &domain.Forecast{StationICAO: "KNYC", HighF: 48, LowF: 30}

	out := m.Model(raw, testSpec(t, domain.LowTemp), obs, fc, localTime(t, 5, 0))

	assert.Equal(t, domain.NotLocked, out.LockIn)
}

func TestModel_HighLockIn_PastPeakPlusBuffer(t *testing.T) {
	m := New(config.Default())
	raw := testCandidate(domain.HighTemp, "50°F or above")
	raw.MarketTicker = "KXHIGHNY-26FEB12-B50"
	obs := &domain.Observation{StationICAO: "KNYC", TempF: 52}
	fc := &domain.Forecast{StationICAO: "KNYC", HighF: 52, LowF: 38}

	// 18:00 local: two hours past the 15:00 peak + buffer, window exhausted.
	out := m.Model(raw, testSpec(t, domain.HighTemp), obs, fc, localTime(t, 18, 0))

	assert.Equal(t, domain.Locking, out.LockIn)
}

func TestModel_HighNotLockedMidday(t *testing.T) {
	m := New(config.Default())
	raw := testCandidate(domain.HighTemp, "50°F or above")
	obs := &domain.Observation{StationICAO: "KNYC", TempF: 45}
	fc := &domain.Forecast{StationICAO: "KNYC", HighF: 52, LowF: 38}

	out := m.Model(raw, testSpec(t, domain.HighTemp), obs, fc, localTime(t, 11, 0))

	assert.Equal(t, domain.NotLocked, out.LockIn)
	require.NotNil(t, out.PNewExtreme)
	assert.GreaterOrEqual(t, *out.PNewExtreme, 0.05)
}

func TestModel_KnifeEdgeNearBoundary(t *testing.T) {
	m := New(config.Default())
	raw := testCandidate(domain.HighTemp, "50°F or above")
	obs := &domain.Observation{StationICAO: "KNYC", TempF: 45}
	fc := &domain.Forecast{StationICAO: "KNYC", HighF: 50.5, LowF: 38}

	out := m.Model(raw, testSpec(t, domain.HighTemp), obs, fc, localTime(t, 8, 0))

	assert.Equal(t, domain.KnifeEdgeHigh, out.KnifeEdge)
	assert.Equal(t, domain.UncertaintyHigh, out.Uncertainty)
}

func TestSigmaForWindow_Monotonic(t *testing.T) {
	assert.Equal(t, sigmaWide, sigmaForWindow(8))
	assert.Equal(t, sigmaMedium, sigmaForWindow(2))
	assert.Equal(t, sigmaNarrow, sigmaForWindow(0.5))
	// Never widens as time shrinks.
	assert.GreaterOrEqual(t, sigmaForWindow(5), sigmaForWindow(2))
	assert.GreaterOrEqual(t, sigmaForWindow(2), sigmaForWindow(0.2))
}

func TestPNewExtreme_TimeDecay(t *testing.T) {
	obs := &domain.Observation{TempF: 40}
	fc := &domain.Forecast{HighF: 45, LowF: 35}

	early := pNewExtreme(domain.LowTemp, obs, fc, 6)
	late := pNewExtreme(domain.LowTemp, obs, fc, 1)
	assert.Greater(t, early, late)
	assert.Equal(t, 0.0, pNewExtreme(domain.LowTemp, obs, fc, 0))
}

func TestSunriseEstimate_WinterNYC(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	day := time.Date(2026, 2, 12, 0, 0, 0, 0, loc)

	sr, ok := sunriseEstimate(40.783, -73.967, day, loc)
	require.True(t, ok)
	// Mid-February sunrise in NYC is a bit before 7 AM.
	assert.Equal(t, 6, sr.Hour())
}
