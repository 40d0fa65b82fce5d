// Package modeler turns a bracket definition plus current and forecast
// weather into a probability distribution over the settlement outcome, with
// lock-in flags and a knife-edge risk classification. When weather data is
// unavailable it degrades to a market-implied estimate instead of failing.
package modeler

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jmorales/wxslate/config"
	"github.com/jmorales/wxslate/internal/domain"
	"github.com/jmorales/wxslate/internal/rules"
)

// Sigma bands for the Normal approximation, coarse to fine. The only contract
// is monotonic reduction as the volatility window closes; the bands are a
// deliberate simplification of forecast uncertainty, not an ensemble model.
const (
	sigmaWide   = 3.0 // > 3h of meaningful volatility remaining
	sigmaMedium = 2.0 // 1-3h remaining
	sigmaNarrow = 1.0 // < 1h remaining
)

// Modeler computes ModelOutputs. Stateless; safe for concurrent use.
type Modeler struct {
	cfg *config.Config
}

// New creates a Modeler with the given frozen config.
func New(cfg *config.Config) *Modeler {
	return &Modeler{cfg: cfg}
}

// Model computes the full ModelOutput for one candidate. obs and fc may be
// nil: that is the designed degraded path (MARKET_IMPLIED), never an error.
func (m *Modeler) Model(
	raw domain.RawCandidate,
	spec domain.SettlementSpec,
	obs *domain.Observation,
	fc *domain.Forecast,
	now time.Time,
) domain.ModelOutput {
	loc := m.location(spec)
	localNow := now.In(loc)

	targetDay, dayErr := time.ParseInLocation("2006-01-02", raw.TargetDateLocal, loc)
	if dayErr != nil {
		targetDay = localNow
	}

	hoursToClose := math.Max(0, spec.WindowEndUTC.Sub(now).Hours())

	// Sunrise and peak anchors for the volatility window and lock-in gates.
	var sunrise *time.Time
	if st, ok := rules.LookupStation(raw.City); ok {
		if sr, ok := sunriseEstimate(st.Lat, st.Lon, targetDay, loc); ok {
			sunrise = &sr
		}
	}
	peak := peakEstimate(targetDay, loc)

	hoursVol := m.volatilityWindow(raw.MarketType, localNow, sunrise, peak)
	sigma := sigmaForWindow(hoursVol)

	out := domain.ModelOutput{
		MarketTicker:   raw.MarketTicker,
		Sigma:          sigma,
		LockIn:         domain.LockUnknown,
		SunriseLocal:   sunrise,
		HoursToClose:   round2(hoursToClose),
		HoursVolWindow: round2(hoursVol),
	}
	if raw.MarketType == domain.HighTemp {
		out.PeakLocal = &peak
	}

	forecastTemp, haveForecast := forecastFor(raw.MarketType, fc)

	if !haveForecast {
		return m.marketImplied(raw, out)
	}

	bracket, err := ParseBracket(raw.BracketDef)
	if err != nil {
		// Hay datos de clima pero el bracket no se entiende: 0.5/0.5 con
		// incertidumbre máxima, sin caer al fallback market-implied.
		slog.Warn("unparseable bracket, maximum uncertainty",
			"ticker", raw.MarketTicker, "bracket", raw.BracketDef)
		out.PYes, out.PNo = 0.5, 0.5
		out.Method = domain.MethodWeatherModel
		out.KnifeEdge = domain.KnifeEdgeHigh
		out.Uncertainty = domain.UncertaintyHigh
		out.Notes = append(out.Notes, fmt.Sprintf("unparseable bracket %q", raw.BracketDef))
		return out
	}

	pYes := bracket.PYes(forecastTemp, sigma)
	out.PYes = round4(pYes)
	out.PNo = round4(1 - pYes)
	out.Method = domain.MethodWeatherModel
	out.KnifeEdge = knifeEdge(bracket, forecastTemp, sigma)
	out.Notes = append(out.Notes, fmt.Sprintf("forecast=%.1fF sigma=%.1f", forecastTemp, sigma))

	m.applyLockIn(&out, raw.MarketType, localNow, sunrise, peak, obs, fc, hoursVol)

	out.Uncertainty = classifyUncertainty(hoursVol, out.KnifeEdge)
	return out
}

// marketImplied fills the degraded output: probability read straight from the
// market's implied NO ask. Such candidates always carry a HIGH uncertainty
// flag so they stay visible as degraded.
func (m *Modeler) marketImplied(raw domain.RawCandidate, out domain.ModelOutput) domain.ModelOutput {
	pNo := 0.5
	if ask := raw.Orderbook.ImpliedNoAskCents; ask != nil {
		pNo = float64(*ask) / 100.0
	}
	out.PNo = round4(pNo)
	out.PYes = round4(1 - pNo)
	out.Method = domain.MethodMarketImplied
	out.KnifeEdge = domain.KnifeEdgeHigh
	out.Uncertainty = domain.UncertaintyHigh
	out.Notes = append(out.Notes, "no weather data — probability derived from market")
	return out
}

// applyLockIn sets the lock-in flag and P(new extreme) for the bracket type.
// LOW brackets anchor at sunrise, HIGH brackets at the daily peak; in both
// cases the gate opens two hours (configurable) past the anchor.
func (m *Modeler) applyLockIn(
	out *domain.ModelOutput,
	mt domain.MarketType,
	localNow time.Time,
	sunrise *time.Time,
	peak time.Time,
	obs *domain.Observation,
	fc *domain.Forecast,
	hoursVol float64,
) {
	var anchor time.Time
	var buffer time.Duration
	switch mt {
	case domain.LowTemp:
		if sunrise == nil {
			out.LockIn = domain.LockUnknown
			out.Notes = append(out.Notes, "no sunrise estimate — lock-in unknown")
			return
		}
		anchor = *sunrise
		buffer = durationHours(m.cfg.LockIn.SunriseBufferHours)
	case domain.HighTemp:
		anchor = peak
		buffer = durationHours(m.cfg.LockIn.PeakBufferHours)
	default:
		return
	}

	pNew := pNewExtreme(mt, obs, fc, hoursVol)
	out.PNewExtreme = &pNew

	if localNow.After(anchor.Add(buffer)) && pNew < m.cfg.LockIn.RejectThreshold {
		out.LockIn = domain.Locking
		out.Notes = append(out.Notes, fmt.Sprintf(
			"%s lock-in: past anchor+%.0fh and P(new extreme)=%.3f < %.2f",
			mt, buffer.Hours(), pNew, m.cfg.LockIn.RejectThreshold))
	} else {
		out.LockIn = domain.NotLocked
	}
}

// pNewExtreme estimates the probability that a new daily extreme still occurs.
// Room between the observed temperature and the forecast extreme widens it;
// shrinking time remaining decays it.
func pNewExtreme(mt domain.MarketType, obs *domain.Observation, fc *domain.Forecast, hoursVol float64) float64 {
	if hoursVol <= 0 {
		return 0
	}
	if obs == nil || fc == nil {
		return 0.5
	}

	var room float64
	if mt == domain.LowTemp {
		room = obs.TempF - fc.LowF // positive when the forecast low is still below us
	} else {
		room = fc.HighF - obs.TempF
	}

	var base float64
	switch {
	case room <= 0:
		base = 0.15 // already past the forecast extreme; unlikely but not impossible
	case room >= 5:
		base = 0.85
	default:
		base = 0.15 + room/5*0.70
	}

	timeFactor := math.Min(1, hoursVol/6)
	return round4(math.Min(base*timeFactor, 0.99))
}

// knifeEdge classifies boundary proximity: within one native degree of a
// boundary is HIGH, within one sigma MED, otherwise LOW.
func knifeEdge(b Bracket, forecast, sigma float64) domain.KnifeEdgeRisk {
	d := b.BoundaryDistance(forecast)
	switch {
	case d <= 1.0:
		return domain.KnifeEdgeHigh
	case d <= sigma:
		return domain.KnifeEdgeMed
	default:
		return domain.KnifeEdgeLow
	}
}

func classifyUncertainty(hoursVol float64, ke domain.KnifeEdgeRisk) domain.UncertaintyLevel {
	if ke == domain.KnifeEdgeHigh {
		return domain.UncertaintyHigh
	}
	if hoursVol > 4 {
		return domain.UncertaintyMed
	}
	return domain.UncertaintyLow
}

// volatilityWindow returns the hours left in which the daily extreme can
// still plausibly move: until sunrise+buffer for lows, peak+buffer for highs.
func (m *Modeler) volatilityWindow(mt domain.MarketType, localNow time.Time, sunrise *time.Time, peak time.Time) float64 {
	var end time.Time
	if mt == domain.LowTemp {
		if sunrise != nil {
			end = sunrise.Add(durationHours(m.cfg.LockIn.SunriseBufferHours))
		} else {
			end = time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 9, 0, 0, 0, localNow.Location())
		}
	} else {
		end = peak.Add(durationHours(m.cfg.LockIn.PeakBufferHours))
	}
	return math.Max(0, end.Sub(localNow).Hours())
}

// sigmaForWindow maps the remaining volatility window to a sigma band.
// Monotonic: less time remaining never widens the distribution.
func sigmaForWindow(hoursVol float64) float64 {
	switch {
	case hoursVol < 1:
		return sigmaNarrow
	case hoursVol < 3:
		return sigmaMedium
	default:
		return sigmaWide
	}
}

func forecastFor(mt domain.MarketType, fc *domain.Forecast) (float64, bool) {
	if fc == nil {
		return 0, false
	}
	if mt == domain.LowTemp {
		return fc.LowF, true
	}
	return fc.HighF, true
}

func (m *Modeler) location(spec domain.SettlementSpec) *time.Location {
	if spec.Timezone != "" {
		if loc, err := time.LoadLocation(spec.Timezone); err == nil {
			return loc
		}
	}
	loc, _ := time.LoadLocation("America/New_York")
	return loc
}

func durationHours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
