// Package risk agrupa candidatos por correlación regional, aplica los caps
// de grupo y metro, agrega flags de riesgo y reparte el bankroll entre los
// picks sobrevivientes.
package risk

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/jmorales/wxslate/config"
	"github.com/jmorales/wxslate/internal/domain"
)

type Manager struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Manager {
	return &Manager{cfg: cfg}
}

// multiplierFloor evita que un pick válido quede con asignación cero.
const multiplierFloor = 0.1

// Multiplier calcula el multiplicador de stake en (0,1]: cada flag activo
// de riesgo lo reduce, con piso en multiplierFloor.
func Multiplier(model *domain.ModelOutput, confidence domain.MappingConfidence, thinLiquidity bool) float64 {
	mult := 1.0
	if model != nil {
		switch model.Uncertainty {
		case domain.UncertaintyHigh:
			mult *= 0.5
		case domain.UncertaintyMed:
			mult *= 0.8
		}
		switch model.KnifeEdge {
		case domain.KnifeEdgeHigh:
			mult *= 0.4
		case domain.KnifeEdgeMed:
			mult *= 0.7
		}
		if model.HoursVolWindow > 8 {
			mult *= 0.8
		}
		if model.LockIn == domain.NotLocked && model.HoursVolWindow < 1 {
			mult *= 0.9 // el extremo todavía puede moverse justo antes del cierre
		}
	}
	if confidence != domain.ConfidenceHigh {
		mult *= 0.7
	}
	if thinLiquidity {
		mult *= 0.6
	}
	return math.Round(math.Max(multiplierFloor, mult)*100) / 100
}

// Flags junta todos los flags de riesgo activos de un candidato.
func Flags(model *domain.ModelOutput, acct *domain.Accounting, thinLiquidity, wideSpread bool) []string {
	var flags []string

	if model != nil {
		if model.Uncertainty == domain.UncertaintyHigh {
			flags = append(flags, "HIGH_UNCERTAINTY")
		}
		switch model.KnifeEdge {
		case domain.KnifeEdgeHigh:
			flags = append(flags, "KNIFE_EDGE_HIGH")
		case domain.KnifeEdgeMed:
			flags = append(flags, "KNIFE_EDGE_MED")
		}
		if model.LockIn == domain.Locking {
			flags = append(flags, "LOCKING")
		}
		if model.HoursVolWindow > 8 {
			flags = append(flags, "LONG_VOL_WINDOW")
		}
		if model.HoursVolWindow < 1 {
			flags = append(flags, "VOL_WINDOW_CLOSING")
		}
	}
	if thinLiquidity {
		flags = append(flags, "THIN_LIQUIDITY")
	}
	if wideSpread {
		flags = append(flags, "WIDE_SPREAD")
	}
	if acct != nil {
		if acct.NoTradeReason != "" {
			flags = append(flags, "NEGATIVE_EV")
		}
		if acct.EdgeVsImpliedPct < 1.0 {
			flags = append(flags, "MINIMAL_EDGE")
		}
	}
	return flags
}

// Assess produce la RiskRecommendation de un candidato. El stake definitivo
// lo asigna AllocateStakes después de aplicar los caps de correlación.
func (m *Manager) Assess(raw domain.RawCandidate, spec domain.SettlementSpec, model *domain.ModelOutput, acct *domain.Accounting, plan *domain.ExecutionPlan) domain.RiskRecommendation {
	thin := plan != nil && plan.Liquidity == domain.LiquidityThin
	wide := plan != nil && plan.Liquidity == domain.WideException

	return domain.RiskRecommendation{
		MarketTicker:     raw.MarketTicker,
		RiskMultiplier:   Multiplier(model, spec.Confidence, thin),
		RiskFlags:        Flags(model, acct, thin, wide),
		CorrelationGroup: CorrelationGroup(raw.City),
		MetroCluster:     MetroCluster(raw.City),
	}
}

// EnforceCaps aplica los caps de grupo de correlación y cluster metro sobre
// picks ya ordenados de mejor a peor. Los que exceden un cap se devuelven
// como NoTradeEntry con su razón explícita, nunca se descartan en silencio.
func (m *Manager) EnforceCaps(picks []domain.UnifiedCandidate) (kept, demoted []domain.UnifiedCandidate, entries []domain.NoTradeEntry) {
	corrCounts := make(map[string]int)
	metroCounts := make(map[string]int)

	for _, pick := range picks {
		group := CorrelationGroup(pick.Raw.City)
		metro := MetroCluster(pick.Raw.City)

		if corrCounts[group] >= m.cfg.Correlation.MaxPerGroup {
			reason := fmt.Sprintf("correlation cap: %s already has %d picks", group, m.cfg.Correlation.MaxPerGroup)
			entries = append(entries, domain.NoTradeEntry{MarketTicker: pick.Ticker(), Reason: reason})
			pick.RejectReasons = append(pick.RejectReasons, reason)
			demoted = append(demoted, pick)
			slog.Info("correlation cap demotes pick", "ticker", pick.Ticker(), "group", group)
			continue
		}
		// "Standalone" no es un cluster: ciudades sin metro no comparten cap.
		if metro != MetroStandalone && metroCounts[metro] >= m.cfg.Correlation.MaxPerMetro {
			reason := fmt.Sprintf("metro cap: %s already has %d picks", metro, m.cfg.Correlation.MaxPerMetro)
			entries = append(entries, domain.NoTradeEntry{MarketTicker: pick.Ticker(), Reason: reason})
			pick.RejectReasons = append(pick.RejectReasons, reason)
			demoted = append(demoted, pick)
			slog.Info("metro cap demotes pick", "ticker", pick.Ticker(), "metro", metro)
			continue
		}

		corrCounts[group]++
		metroCounts[metro]++
		kept = append(kept, pick)
	}
	return kept, demoted, entries
}

// AllocateStakes reparte el bankroll: base equal-weight escalada por el
// multiplicador de riesgo de cada pick, con tope por pick en la fracción
// máxima del bankroll y la suma clampeada al bankroll total.
func (m *Manager) AllocateStakes(picks []domain.UnifiedCandidate) []domain.UnifiedCandidate {
	if len(picks) == 0 {
		return picks
	}

	bankroll := m.cfg.Bankroll.TotalUSD
	perPickCap := bankroll * m.cfg.Bankroll.MaxPickFraction
	base := bankroll / float64(len(picks))

	total := 0.0
	for i := range picks {
		if picks[i].Risk == nil {
			continue
		}
		stake := base * picks[i].Risk.RiskMultiplier
		stake = math.Min(stake, perPickCap)
		stake = math.Max(stake, 0.01)
		picks[i].Risk.StakeUSD = round2(stake)
		total += picks[i].Risk.StakeUSD
	}

	// La suma nunca excede el bankroll; si lo hace, se escala todo por igual.
	if total > bankroll {
		scale := bankroll / total
		for i := range picks {
			if picks[i].Risk == nil {
				continue
			}
			picks[i].Risk.StakeUSD = round2(picks[i].Risk.StakeUSD * scale)
		}
	}

	for i := range picks {
		if picks[i].Risk != nil {
			// La pérdida máxima es el stake completo: comprar NO y que gane YES.
			picks[i].Risk.MaxLossUSD = picks[i].Risk.StakeUSD
		}
	}
	return picks
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
