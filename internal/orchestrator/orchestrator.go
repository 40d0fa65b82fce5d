// Package orchestrator arma el DailySlate final de un run: carga el slate
// anterior de la misma fecha, aplica las reglas de estabilidad entre runs,
// calcula el bloque delta y persiste el resultado exactamente una vez.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jmorales/wxslate/config"
	"github.com/jmorales/wxslate/internal/domain"
	"github.com/jmorales/wxslate/internal/ports"
	"github.com/jmorales/wxslate/internal/teamlead"
)

type Orchestrator struct {
	cfg   *config.Config
	store ports.SlateStore
}

func New(cfg *config.Config, store ports.SlateStore) *Orchestrator {
	return &Orchestrator{cfg: cfg, store: store}
}

// BuildSlate construye el DailySlate a partir del resultado del teamlead.
func (o *Orchestrator) BuildSlate(res teamlead.Result, stats domain.ScanStats, runTime time.Time, targetDate string) domain.DailySlate {
	stats.PrimaryCount = len(res.Primary)
	stats.TightCount = len(res.Tight)
	stats.NearMissCount = len(res.NearMiss)
	stats.RejectedCount = len(res.Rejected)

	return domain.DailySlate{
		RunID:           uuid.NewString(),
		RunTime:         runTime,
		TargetDateLocal: targetDate,
		BankrollUSD:     o.cfg.Bankroll.TotalUSD,
		Stats:           stats,
		Primary:         res.Primary,
		Tight:           res.Tight,
		NearMiss:        res.NearMiss,
		Rejected:        res.Rejected,
		NoTrade:         res.NoTrade,
	}
}

// shouldSuppress decide si un cambio de bucket se revierte por estabilidad.
// El cambio se mantiene solo si el precio se movió al menos el umbral, el
// signo del EV cambió, o la confianza del mapping cambió. Nada de eso:
// se suprime, para que el slate no oscile entre buckets vecinos por ruido.
func (o *Orchestrator) shouldSuppress(curr, prev domain.UnifiedCandidate) bool {
	currAsk, prevAsk := curr.ImpliedNoAsk(), prev.ImpliedNoAsk()
	if currAsk != nil && prevAsk != nil {
		move := *currAsk - *prevAsk
		if move < 0 {
			move = -move
		}
		if move >= o.cfg.Stability.MinPriceMoveCents {
			return false
		}
	}

	if curr.Accounting != nil && prev.Accounting != nil {
		if (curr.Accounting.EVNetCents > 0) != (prev.Accounting.EVNetCents > 0) {
			return false
		}
	}

	if curr.Settlement != nil && prev.Settlement != nil {
		if curr.Settlement.Confidence != prev.Settlement.Confidence {
			return false
		}
	}

	return true
}

// ApplyStability revierte al bucket del run anterior los cambios que no
// alcanzan los umbrales. Devuelve el slate ajustado y los tickers suprimidos.
func (o *Orchestrator) ApplyStability(slate domain.DailySlate, prior *domain.DailySlate) (domain.DailySlate, []string) {
	if prior == nil {
		return slate, nil
	}

	priorByTicker := make(map[string]domain.UnifiedCandidate)
	for _, c := range prior.All() {
		priorByTicker[c.Ticker()] = c
	}

	var suppressed []string
	adjusted := make([]domain.UnifiedCandidate, 0)

	for _, curr := range slate.All() {
		prev, seen := priorByTicker[curr.Ticker()]
		if seen && curr.Bucket != prev.Bucket && o.shouldSuppress(curr, prev) {
			slog.Info("stability suppresses bucket change",
				"ticker", curr.Ticker(), "from", prev.Bucket, "to", curr.Bucket)
			curr.Bucket = prev.Bucket
			curr.Warnings = append(curr.Warnings,
				fmt.Sprintf("stability: kept %s, change suppressed below thresholds", prev.Bucket))
			suppressed = append(suppressed, curr.Ticker())
		}
		adjusted = append(adjusted, curr)
	}

	// Redistribuir en buckets tras los reverts, preservando el orden de rank.
	slate.Primary = slate.Primary[:0]
	slate.Tight = slate.Tight[:0]
	slate.NearMiss = slate.NearMiss[:0]
	slate.Rejected = slate.Rejected[:0]
	for _, c := range adjusted {
		switch c.Bucket {
		case domain.BucketPrimary:
			slate.Primary = append(slate.Primary, c)
		case domain.BucketTight:
			slate.Tight = append(slate.Tight, c)
		case domain.BucketNearMiss:
			slate.NearMiss = append(slate.NearMiss, c)
		default:
			slate.Rejected = append(slate.Rejected, c)
		}
	}
	slate.Primary = teamlead.Rank(slate.Primary)
	slate.Tight = teamlead.Rank(slate.Tight)
	slate.NearMiss = teamlead.Rank(slate.NearMiss)

	slate.Stats.PrimaryCount = len(slate.Primary)
	slate.Stats.TightCount = len(slate.Tight)
	slate.Stats.NearMissCount = len(slate.NearMiss)
	slate.Stats.RejectedCount = len(slate.Rejected)

	return slate, suppressed
}

// ComputeDelta clasifica los cambios por ticker respecto al run anterior.
func (o *Orchestrator) ComputeDelta(current domain.DailySlate, prior *domain.DailySlate, suppressed []string) *domain.Delta {
	if prior == nil {
		return nil
	}

	delta := &domain.Delta{PriorRunID: prior.RunID, Suppressed: suppressed}

	priorByTicker := make(map[string]domain.UnifiedCandidate)
	for _, c := range prior.All() {
		priorByTicker[c.Ticker()] = c
	}
	seen := make(map[string]bool)

	for _, curr := range current.All() {
		seen[curr.Ticker()] = true
		prev, ok := priorByTicker[curr.Ticker()]
		if !ok {
			delta.Entries = append(delta.Entries, domain.DeltaEntry{
				MarketTicker: curr.Ticker(),
				Kind:         domain.ChangeNew,
				Detail:       fmt.Sprintf("appeared in bucket %s", curr.Bucket),
			})
			continue
		}
		delta.Entries = append(delta.Entries, compareCandidates(curr, prev, o.cfg.Stability.MinPriceMoveCents)...)
	}

	for ticker, prev := range priorByTicker {
		if !seen[ticker] {
			delta.Entries = append(delta.Entries, domain.DeltaEntry{
				MarketTicker: ticker,
				Kind:         domain.ChangeRemoved,
				Detail:       fmt.Sprintf("was in bucket %s", prev.Bucket),
			})
		}
	}

	return delta
}

func compareCandidates(curr, prev domain.UnifiedCandidate, minMove int) []domain.DeltaEntry {
	var entries []domain.DeltaEntry
	ticker := curr.Ticker()

	if currAsk, prevAsk := curr.ImpliedNoAsk(), prev.ImpliedNoAsk(); currAsk != nil && prevAsk != nil {
		move := *currAsk - *prevAsk
		if move < 0 {
			move = -move
		}
		if move >= minMove {
			entries = append(entries, domain.DeltaEntry{
				MarketTicker: ticker,
				Kind:         domain.ChangePriceMoved,
				Detail:       fmt.Sprintf("implied NO ask %dc -> %dc", *prevAsk, *currAsk),
			})
		}
	}

	if curr.Accounting != nil && prev.Accounting != nil {
		if (curr.Accounting.EVNetCents > 0) != (prev.Accounting.EVNetCents > 0) {
			entries = append(entries, domain.DeltaEntry{
				MarketTicker: ticker,
				Kind:         domain.ChangeEVFlipped,
				Detail:       fmt.Sprintf("EV %.1fc -> %.1fc", prev.Accounting.EVNetCents, curr.Accounting.EVNetCents),
			})
		}
	}

	if curr.Bucket != prev.Bucket {
		entries = append(entries, domain.DeltaEntry{
			MarketTicker: ticker,
			Kind:         domain.ChangeBucketChanged,
			Detail:       fmt.Sprintf("%s -> %s", prev.Bucket, curr.Bucket),
		})
	} else if curr.Rank != prev.Rank {
		entries = append(entries, domain.DeltaEntry{
			MarketTicker: ticker,
			Kind:         domain.ChangeRankChanged,
			Detail:       fmt.Sprintf("rank %d -> %d", prev.Rank, curr.Rank),
		})
	}

	return entries
}

// Run ejecuta el cierre del pipeline: slate, estabilidad, delta, persistencia.
// El slate es propiedad exclusiva del orchestrator y se escribe una sola vez.
func (o *Orchestrator) Run(ctx context.Context, res teamlead.Result, stats domain.ScanStats, runTime time.Time, targetDate string) (domain.DailySlate, error) {
	slate := o.BuildSlate(res, stats, runTime, targetDate)

	prior, err := o.store.LatestPrior(ctx, targetDate, slate)
	if err != nil {
		// Un prior ilegible degrada a "sin delta", nunca es fatal.
		slog.Warn("prior slate unavailable, delta degraded", "error", err)
		prior = nil
	}

	var suppressed []string
	slate, suppressed = o.ApplyStability(slate, prior)
	slate.Delta = o.ComputeDelta(slate, prior, suppressed)

	if err := o.store.SaveSlate(ctx, slate); err != nil {
		return slate, fmt.Errorf("orchestrator.Run: save slate: %w", err)
	}
	return slate, nil
}
