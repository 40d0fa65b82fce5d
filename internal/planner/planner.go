// Package planner evalúa la microestructura de cada candidato: veredicto de
// liquidez, sanity del spread, precio límite recomendado y el plan manual de
// ejecución con sus reglas de cancel/replace.
package planner

import (
	"fmt"

	"github.com/jmorales/wxslate/config"
	"github.com/jmorales/wxslate/internal/domain"
)

type Planner struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Planner {
	return &Planner{cfg: cfg}
}

// AssessLiquidity evalúa la profundidad del book.
// REJECT si no hay bids en el top-of-book o la profundidad top-3 queda por
// debajo del mínimo duro; THIN por debajo del mínimo secundario.
func (p *Planner) AssessLiquidity(ob domain.OrderbookSnapshot) (domain.LiquidityVerdict, string) {
	top := ob.TopOfBookDepth()
	top3 := ob.Top3Depth()

	switch {
	case top == 0:
		return domain.LiquidityReject, "no bids on either side, book is empty"
	case top3 < p.cfg.Spread.MinTop3Depth:
		return domain.LiquidityReject, fmt.Sprintf("top-3 depth too thin (%d contracts)", top3)
	case top3 < p.cfg.Spread.ThinTop3Depth:
		return domain.LiquidityThin, fmt.Sprintf("thin liquidity, top-3 depth %d contracts", top3)
	default:
		return domain.LiquidityOK, fmt.Sprintf("adequate liquidity, top-3 depth %d contracts", top3)
	}
}

// AssessSpread valida el spread contra el umbral duro. Un spread ancho solo
// pasa como WIDE_EXCEPTION cuando la profundidad es OK y el edge modelado
// supera el mínimo configurado. Campos faltantes del book son REJECT,
// nunca un valor por defecto.
func (p *Planner) AssessSpread(ob domain.OrderbookSnapshot, edgePct float64, liquidity domain.LiquidityVerdict) (reject bool, wide bool, note string) {
	if ob.BidRoomCents == nil {
		return true, false, "cannot compute spread, missing bid data"
	}
	spread := *ob.BidRoomCents

	if spread <= p.cfg.Spread.MaxSpreadCents {
		return false, false, fmt.Sprintf("spread %dc within limit (%dc)", spread, p.cfg.Spread.MaxSpreadCents)
	}

	if liquidity == domain.LiquidityOK && edgePct > p.cfg.Spread.WideExceptionEdge {
		return false, true, fmt.Sprintf(
			"wide-spread exception: spread %dc > %dc but depth is strong and edge is %.1f%%",
			spread, p.cfg.Spread.MaxSpreadCents, edgePct)
	}

	return true, false, fmt.Sprintf(
		"spread %dc exceeds limit (%dc) without qualifying for exception",
		spread, p.cfg.Spread.MaxSpreadCents)
}

// RecommendedLimit calcula el precio límite NO recomendado.
// Con bid-room amplio mejora 2–6c hacia el midpoint; con room chico solo
// 1–3c. Una mejora por encima del máximo ancho marca LOW_FILL_PROBABILITY.
// El resultado siempre queda dentro del dominio válido 1–99c.
func (p *Planner) RecommendedLimit(ob domain.OrderbookSnapshot) (limit int, rationale string, lowFill bool) {
	ask := ob.ImpliedNoAskCents
	if ask == nil {
		if ob.BestNoBidCents != nil {
			return clampPrice(*ob.BestNoBidCents), "no implied ask available, using best NO bid", true
		}
		return 90, "no implied ask or bid available, using default", true
	}

	room := 0
	if ob.BidRoomCents != nil {
		room = *ob.BidRoomCents
	}

	var improvement int
	if room >= p.cfg.Spread.MinBidRoomPrimary {
		improvement = min(max(room/2, 2), 6)
		rationale = fmt.Sprintf("bid_room=%dc: improving %dc below implied ask %dc", room, improvement, *ask)
	} else {
		improvement = min(max(1, room), 3)
		rationale = fmt.Sprintf("tight: bid_room=%dc: improving %dc below implied ask %dc", room, improvement, *ask)
	}

	lowFill = improvement > p.cfg.Spread.WideImprovementMax
	return clampPrice(*ask - improvement), rationale, lowFill
}

func clampPrice(c int) int {
	return min(max(c, 1), 99)
}

// manualSteps genera la lista ordenada de pasos de colocación manual.
func manualSteps(raw domain.RawCandidate, limitCents int, stakeUSD float64) []string {
	sizing := "set quantity"
	if stakeUSD > 0 && limitCents > 0 {
		contracts := int(stakeUSD * 100 / float64(limitCents))
		sizing = fmt.Sprintf("set quantity (%d contracts at %dc)", contracts, limitCents)
	}
	return []string{
		fmt.Sprintf("navigate to %s", raw.MarketURL),
		"select the NO side",
		"set order type to LIMIT",
		fmt.Sprintf("set limit price to %dc ($0.%02d)", limitCents, limitCents),
		sizing,
		fmt.Sprintf("review order summary, verify ticker is %s", raw.MarketTicker),
		"submit order",
		"wait 5-10 minutes, then check fill status",
	}
}

// cancelReplaceRules define cuándo el humano debe cancelar o ajustar:
// drift de precio, chase de a 1c con tope duro, y nunca órdenes a mercado.
func cancelReplaceRules(limitCents int, impliedAsk *int) []string {
	rules := []string{
		fmt.Sprintf("CANCEL if implied NO ask moves above %dc (edge has evaporated)", limitCents+3),
		"CANCEL if market status changes to closed/halted",
		"CANCEL if not filled within 15 minutes and edge is shrinking",
	}
	if impliedAsk != nil {
		rules = append(rules,
			fmt.Sprintf("ADJUST +1c toward ask (to %dc) if not filled after 10 min and ask is still at %dc",
				limitCents+1, *impliedAsk),
			fmt.Sprintf("DO NOT chase above %dc", min(limitCents+2, *impliedAsk)),
		)
	}
	return append(rules, "NEVER place market orders, always use limits")
}

// Plan arma el ExecutionPlan completo de un candidato. El edge modelado entra
// solo para decidir la excepción de spread ancho; el EV definitivo al límite
// propuesto lo recalcula el accountant después.
func (p *Planner) Plan(raw domain.RawCandidate, edgePct float64, stakeUSD float64) domain.ExecutionPlan {
	ob := raw.Orderbook

	liquidity, liqNote := p.AssessLiquidity(ob)
	spreadReject, wide, spreadNote := p.AssessSpread(ob, edgePct, liquidity)
	if wide {
		liquidity = domain.WideException
	}
	limit, rationale, lowFill := p.RecommendedLimit(ob)

	return domain.ExecutionPlan{
		MarketTicker:       raw.MarketTicker,
		Liquidity:          liquidity,
		SpreadReject:       spreadReject,
		SpreadCents:        ob.BidRoomCents,
		RecommendedCents:   limit,
		LimitRationale:     fmt.Sprintf("%s; %s; %s", rationale, liqNote, spreadNote),
		LowFillProb:        lowFill,
		ManualSteps:        manualSteps(raw, limit, stakeUSD),
		CancelReplaceRules: cancelReplaceRules(limit, ob.ImpliedNoAskCents),
	}
}
