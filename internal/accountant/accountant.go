// Package accountant computes fee-aware expected value, the maximum
// acceptable NO buy price and the edge versus the market-implied probability.
package accountant

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/jmorales/wxslate/config"
	"github.com/jmorales/wxslate/internal/domain"
)

// Accountant evalúa el EV neto de comprar NO a un precio dado, descontando
// el fee schedule del exchange.
type Accountant struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Accountant {
	return &Accountant{cfg: cfg}
}

// feeCents aplica la fórmula del exchange: ceil(rate × C × P × (1−P)),
// con P en dólares, devuelta en cents.
func feeCents(rate float64, priceCents, contracts int) int {
	p := float64(priceCents) / 100.0
	raw := rate * float64(contracts) * p * (1 - p)
	return int(math.Ceil(raw * 100))
}

// TakerFeeCents devuelve el fee taker por ejecutar contra el book.
// Solo se usa para chequeos de sensibilidad: la estrategia nunca ejecuta taker.
func (a *Accountant) TakerFeeCents(priceCents, contracts int) int {
	return feeCents(a.cfg.Fees.TakerRate, priceCents, contracts)
}

// MakerFeeCents devuelve el fee maker por una orden límite en reposo.
func (a *Accountant) MakerFeeCents(priceCents, contracts int) int {
	return feeCents(a.cfg.Fees.MakerRate, priceCents, contracts)
}

// EVNoCents calcula el EV neto en cents por contrato de comprar NO a un
// precio dado:
//
//	EV = P(NO) × (100 − precio) − P(YES) × precio − fee
//
// El fee pasado decide maker versus taker.
func EVNoCents(buyPriceCents int, pNo float64, fee int) float64 {
	payout := 100.0 - float64(buyPriceCents)
	ev := pNo*payout - (1-pNo)*float64(buyPriceCents) - float64(fee)
	return math.Round(ev*100) / 100
}

// MaxBuyPriceNo busca hacia abajo desde 99c el precio NO más alto con
// EV ≥ 0 después del fee taker. Es el primer pase del loop con el planner:
// el límite final se propone con este tope y el EV definitivo se recalcula
// después, una sola vez.
func (a *Accountant) MaxBuyPriceNo(pNo float64) int {
	for price := 99; price > 0; price-- {
		if EVNoCents(price, pNo, a.TakerFeeCents(price, 1)) >= 0 {
			return price
		}
	}
	return 0
}

// EdgeVsImpliedPct devuelve (p_modelo − p_implícita) / p_implícita × 100.
// Solo es señal de ranking y display, nunca un gate.
func EdgeVsImpliedPct(pNoModel, impliedPNo float64) float64 {
	if impliedPNo <= 0 {
		return 0
	}
	return math.Round((pNoModel-impliedPNo)/impliedPNo*100*100) / 100
}

// Assess produce el Accounting completo de un candidato, evaluado al precio
// límite que el planner propuso. EV ≤ 0 al límite recomendado es condición
// dura de no-trade: la razón queda registrada y el candidato va a REJECTED
// sin importar sus otros méritos.
func (a *Accountant) Assess(raw domain.RawCandidate, model domain.ModelOutput, recommendedLimitCents int) domain.Accounting {
	impliedPNo := 0.0
	if ask := raw.Orderbook.ImpliedNoAskCents; ask != nil {
		impliedPNo = float64(*ask) / 100.0
	}

	makerFee := a.MakerFeeCents(recommendedLimitCents, 1)
	takerFee := a.TakerFeeCents(recommendedLimitCents, 1)

	// La orden descansa en el book, así que el EV definitivo usa el fee maker.
	evNet := EVNoCents(recommendedLimitCents, model.PNo, makerFee)

	acct := domain.Accounting{
		MarketTicker:     raw.MarketTicker,
		ImpliedPNo:       impliedPNo,
		MakerFeeCents:    makerFee,
		TakerFeeCents:    takerFee,
		EVNetCents:       evNet,
		MaxBuyPriceCents: a.MaxBuyPriceNo(model.PNo),
		EdgeVsImpliedPct: EdgeVsImpliedPct(model.PNo, impliedPNo),
	}

	if evNet <= 0 {
		acct.NoTradeReason = fmt.Sprintf("EV non-positive at limit %dc: EV=%.1fc", recommendedLimitCents, evNet)
		slog.Debug("no-trade", "ticker", raw.MarketTicker, "reason", acct.NoTradeReason)
	}
	return acct
}
