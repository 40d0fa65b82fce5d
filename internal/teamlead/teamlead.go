// Package teamlead fusiona las salidas de todos los módulos en candidatos
// unificados, aplica la secuencia de gates de rechazo duro, clasifica en
// buckets, rankea y aplica los límites de picks y de correlación.
package teamlead

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/jmorales/wxslate/config"
	"github.com/jmorales/wxslate/internal/domain"
	"github.com/jmorales/wxslate/internal/risk"
)

type Lead struct {
	cfg  *config.Config
	risk *risk.Manager
}

func New(cfg *config.Config, riskMgr *risk.Manager) *Lead {
	return &Lead{cfg: cfg, risk: riskMgr}
}

// Result agrupa los buckets finales de un run ya rankeados.
type Result struct {
	Primary  []domain.UnifiedCandidate
	Tight    []domain.UnifiedCandidate
	NearMiss []domain.UnifiedCandidate
	Rejected []domain.UnifiedCandidate
	NoTrade  []domain.NoTradeEntry
}

// Merge arma el UnifiedCandidate de un candidato crudo con las sub-salidas
// que estén disponibles. Cualquiera puede ser nil sin abortar el run: los
// gates tratan la ausencia como rechazo con razón, nunca como crash.
func Merge(
	raw domain.RawCandidate,
	settlement *domain.SettlementSpec,
	model *domain.ModelOutput,
	acct *domain.Accounting,
	plan *domain.ExecutionPlan,
	riskRec *domain.RiskRecommendation,
) domain.UnifiedCandidate {
	return domain.UnifiedCandidate{
		Raw:        raw,
		Settlement: settlement,
		Model:      model,
		Accounting: acct,
		Plan:       plan,
		Risk:       riskRec,
		Bucket:     domain.BucketRejected,
	}
}

// HardReject aplica los gates de rechazo duro en orden. El primer gate que
// falla gana y su razón queda registrada; los siguientes no se evalúan.
func (l *Lead) HardReject(c domain.UnifiedCandidate) (bool, string) {
	// 1. La confianza del mapping de settlement debe ser HIGH.
	if c.Settlement == nil {
		return true, "missing settlement spec"
	}
	if c.Settlement.Confidence != domain.ConfidenceHigh {
		return true, fmt.Sprintf("mapping confidence %s != HIGH", c.Settlement.Confidence)
	}

	// 2. Sin implied NO ask no hay precio que evaluar.
	if c.Raw.Orderbook.ImpliedNoAskCents == nil {
		return true, "cannot compute implied NO ask, missing best YES bid"
	}

	// 3. Rechazo por spread o liquidez.
	if c.Plan == nil {
		return true, "missing execution plan"
	}
	if c.Plan.SpreadReject {
		return true, "spread reject: " + c.Plan.LimitRationale
	}
	if c.Plan.Liquidity == domain.LiquidityReject {
		return true, "liquidity reject: " + c.Plan.LimitRationale
	}

	// 4. El EV al límite recomendado debe ser positivo.
	if c.Accounting == nil {
		return true, "missing accounting"
	}
	if c.Accounting.NoTradeReason != "" {
		return true, "EV reject: " + c.Accounting.NoTradeReason
	}

	if c.Model == nil {
		return true, "missing model output"
	}

	// 5. Lock-in del LOW: pasado sunrise+buffer con P(nuevo low) bajo el umbral.
	if c.Raw.MarketType == domain.LowTemp &&
		c.Model.LockIn == domain.Locking &&
		c.Model.PNewExtreme != nil && *c.Model.PNewExtreme < l.cfg.LockIn.RejectThreshold {
		return true, fmt.Sprintf("LOW lock-in: past sunrise+%.0fh and P(new low) < %.0f%%",
			l.cfg.LockIn.SunriseBufferHours, l.cfg.LockIn.RejectThreshold*100)
	}

	// 6. Lock-in del HIGH: pasado el peak+buffer con P(nuevo high) bajo el umbral.
	if c.Raw.MarketType == domain.HighTemp &&
		c.Model.LockIn == domain.Locking &&
		c.Model.PNewExtreme != nil && *c.Model.PNewExtreme < l.cfg.LockIn.RejectThreshold {
		return true, fmt.Sprintf("HIGH lock-in: past peak+%.0fh and P(new high) < %.0f%%",
			l.cfg.LockIn.PeakBufferHours, l.cfg.LockIn.RejectThreshold*100)
	}

	return false, ""
}

// Classify asigna bucket a un candidato que ya pasó los gates duros.
func (l *Lead) Classify(c domain.UnifiedCandidate) (domain.Bucket, string) {
	ask := c.Raw.Orderbook.ImpliedNoAskCents
	if ask == nil {
		return domain.BucketRejected, "no implied NO ask price"
	}

	room := 0
	if c.Raw.Orderbook.BidRoomCents != nil {
		room = *c.Raw.Orderbook.BidRoomCents
	}

	pw := l.cfg.PriceWindow
	minRoom := l.cfg.Spread.MinBidRoomPrimary

	if *ask >= pw.PrimaryLow && *ask <= pw.PrimaryHigh {
		if room >= minRoom {
			return domain.BucketPrimary, fmt.Sprintf("ask=%dc in [%d,%d], room=%dc >= %d",
				*ask, pw.PrimaryLow, pw.PrimaryHigh, room, minRoom)
		}
		return domain.BucketTight, fmt.Sprintf("insufficient bid room for PRIMARY: room=%dc < %d", room, minRoom)
	}

	if (*ask >= pw.ScanLow && *ask < pw.PrimaryLow) || (*ask > pw.PrimaryHigh && *ask <= pw.ScanHigh) {
		return domain.BucketNearMiss, fmt.Sprintf("ask=%dc just outside primary window [%d,%d]",
			*ask, pw.PrimaryLow, pw.PrimaryHigh)
	}

	return domain.BucketRejected, fmt.Sprintf("ask=%dc outside scan window [%d,%d]", *ask, pw.ScanLow, pw.ScanHigh)
}

// compare es el comparador de orden total del ranking. Claves en orden:
//
//	1) EV neto, descendente
//	2) incertidumbre, ascendente (LOW primero)
//	3) knife-edge, ascendente
//	4) veredicto de liquidez, ascendente (OK antes que THIN)
//	5) profundidad top-3, descendente (desempate por diversificación de book)
//	6) horas restantes de volatilidad, descendente
//	7) ticker, ascendente (desempate final determinístico)
func compare(a, b domain.UnifiedCandidate) int {
	if a.EVCents() != b.EVCents() {
		if a.EVCents() > b.EVCents() {
			return -1
		}
		return 1
	}

	au, bu := uncertaintyRank(a), uncertaintyRank(b)
	if au != bu {
		return au - bu
	}

	ak, bk := knifeRank(a), knifeRank(b)
	if ak != bk {
		return ak - bk
	}

	al, bl := liquidityRank(a), liquidityRank(b)
	if al != bl {
		return al - bl
	}

	ad, bd := a.Raw.Orderbook.Top3Depth(), b.Raw.Orderbook.Top3Depth()
	if ad != bd {
		return bd - ad
	}

	ah, bh := hoursVol(a), hoursVol(b)
	if ah != bh {
		if ah > bh {
			return -1
		}
		return 1
	}

	if a.Ticker() < b.Ticker() {
		return -1
	}
	if a.Ticker() > b.Ticker() {
		return 1
	}
	return 0
}

func uncertaintyRank(c domain.UnifiedCandidate) int {
	if c.Model == nil {
		return domain.UncertaintyMed.RankValue()
	}
	return c.Model.Uncertainty.RankValue()
}

func knifeRank(c domain.UnifiedCandidate) int {
	if c.Model == nil {
		return domain.KnifeEdgeMed.RankValue()
	}
	return c.Model.KnifeEdge.RankValue()
}

func liquidityRank(c domain.UnifiedCandidate) int {
	if c.Plan == nil {
		return domain.LiquidityReject.RankValue()
	}
	return c.Plan.Liquidity.RankValue()
}

func hoursVol(c domain.UnifiedCandidate) float64 {
	if c.Model == nil {
		return 0
	}
	return c.Model.HoursVolWindow
}

// Rank ordena candidatos con el comparador compuesto y asigna rank 1..N.
// Idempotente: re-rankear un slate ya rankeado con los mismos inputs
// produce exactamente la misma asignación.
func Rank(candidates []domain.UnifiedCandidate) []domain.UnifiedCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return compare(candidates[i], candidates[j]) < 0
	})
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
	return candidates
}

// Run ejecuta la secuencia completa: gates, clasificación, ranking, límite
// de picks PRIMARY y caps de correlación, y asignación de stakes.
func (l *Lead) Run(candidates []domain.UnifiedCandidate) Result {
	var res Result

	for _, c := range candidates {
		if rejected, reason := l.HardReject(c); rejected {
			c.Bucket = domain.BucketRejected
			c.RejectReasons = append(c.RejectReasons, reason)
			res.Rejected = append(res.Rejected, c)
			continue
		}

		bucket, reason := l.Classify(c)
		c.Bucket = bucket
		switch bucket {
		case domain.BucketPrimary:
			c.Warnings = append(c.Warnings, reason)
			res.Primary = append(res.Primary, c)
		case domain.BucketTight:
			c.Warnings = append(c.Warnings, reason)
			res.Tight = append(res.Tight, c)
		case domain.BucketNearMiss:
			c.Warnings = append(c.Warnings, reason)
			res.NearMiss = append(res.NearMiss, c)
		default:
			c.RejectReasons = append(c.RejectReasons, reason)
			res.Rejected = append(res.Rejected, c)
		}
	}

	res.Primary = Rank(res.Primary)
	res.Tight = Rank(res.Tight)
	res.NearMiss = Rank(res.NearMiss)

	// Límite de picks: el exceso de PRIMARY baja a TIGHT, nunca a REJECTED.
	// Siguen siendo accionables, solo dejan de ser headline picks.
	if limit := l.cfg.Picks.MaxPrimary; len(res.Primary) > limit {
		demoted := res.Primary[limit:]
		res.Primary = res.Primary[:limit]
		for i := range demoted {
			demoted[i].Bucket = domain.BucketTight
			demoted[i].Warnings = append(demoted[i].Warnings, "demoted: exceeded PRIMARY pick limit")
		}
		slog.Info("pick limit demotes excess PRIMARY picks", "demoted", len(demoted), "max", limit)
		res.Tight = Rank(append(demoted, res.Tight...))
	}

	// Caps de correlación sobre los picks accionables, mejor rank primero.
	actionable := append(append([]domain.UnifiedCandidate{}, res.Primary...), res.Tight...)
	kept, capDemoted, entries := l.risk.EnforceCaps(actionable)
	res.NoTrade = append(res.NoTrade, entries...)
	for i := range capDemoted {
		capDemoted[i].Bucket = domain.BucketRejected
		res.Rejected = append(res.Rejected, capDemoted[i])
	}

	kept = l.risk.AllocateStakes(kept)

	res.Primary = res.Primary[:0]
	res.Tight = res.Tight[:0]
	for _, c := range kept {
		if c.Bucket == domain.BucketPrimary {
			res.Primary = append(res.Primary, c)
		} else {
			res.Tight = append(res.Tight, c)
		}
	}
	res.Primary = Rank(res.Primary)
	res.Tight = Rank(res.Tight)

	return res
}
