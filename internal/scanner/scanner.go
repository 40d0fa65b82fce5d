// Package scanner ejecuta un run completo del pipeline: fetch de candidatos,
// enriquecimiento por candidato en paralelo, bucketing y cierre del slate.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmorales/wxslate/config"
	"github.com/jmorales/wxslate/internal/accountant"
	"github.com/jmorales/wxslate/internal/domain"
	"github.com/jmorales/wxslate/internal/modeler"
	"github.com/jmorales/wxslate/internal/orchestrator"
	"github.com/jmorales/wxslate/internal/planner"
	"github.com/jmorales/wxslate/internal/ports"
	"github.com/jmorales/wxslate/internal/risk"
	"github.com/jmorales/wxslate/internal/rules"
	"github.com/jmorales/wxslate/internal/teamlead"
)

type Scanner struct {
	cfg      *config.Config
	market   ports.MarketProvider
	weather  ports.WeatherProvider
	writer   ports.ArtifactWriter
	notifier ports.Notifier

	resolver *rules.Resolver
	modeler  *modeler.Modeler
	acct     *accountant.Accountant
	planner  *planner.Planner
	riskMgr  *risk.Manager
	lead     *teamlead.Lead
	orch     *orchestrator.Orchestrator

	workers int
}

func New(
	cfg *config.Config,
	market ports.MarketProvider,
	weather ports.WeatherProvider,
	store ports.SlateStore,
	writer ports.ArtifactWriter,
	notifier ports.Notifier,
	workers int,
) *Scanner {
	riskMgr := risk.New(cfg)
	return &Scanner{
		cfg:      cfg,
		market:   market,
		weather:  weather,
		writer:   writer,
		notifier: notifier,
		resolver: rules.NewResolver(),
		modeler:  modeler.New(cfg),
		acct:     accountant.New(cfg),
		planner:  planner.New(cfg),
		riskMgr:  riskMgr,
		lead:     teamlead.New(cfg, riskMgr),
		orch:     orchestrator.New(cfg, store),
		workers:  workers,
	}
}

// ShouldRun indica si la hora ET actual coincide con una hora programada.
func (s *Scanner) ShouldRun(now time.Time) bool {
	et, err := time.LoadLocation("America/New_York")
	if err != nil {
		return true
	}
	hour := now.In(et).Hour()
	for _, h := range s.cfg.Schedule.RunHoursET {
		if h == hour {
			return true
		}
	}
	return false
}

// Scan ejecuta un run completo y devuelve el slate final.
func (s *Scanner) Scan(ctx context.Context, now time.Time) (domain.DailySlate, error) {
	start := time.Now()

	raws, stats, err := s.market.FetchCandidates(ctx)
	if err != nil {
		return domain.DailySlate{}, fmt.Errorf("scanner.Scan: fetch candidates: %w", err)
	}
	slog.Info("candidates fetched",
		"events", stats.EventsScanned,
		"brackets", stats.BracketsScanned,
		"in_window", stats.CandidatesInWindow,
	)

	unified := s.enrichConcurrent(ctx, raws, now)

	res := s.lead.Run(unified)

	targetDate := s.targetDate(now)
	slate, err := s.orch.Run(ctx, res, stats, now, targetDate)
	if err != nil {
		return slate, fmt.Errorf("scanner.Scan: %w", err)
	}

	if s.writer != nil {
		jsonPath, reportPath, werr := s.writer.WriteSlate(slate)
		if werr != nil {
			slog.Error("artifact write failed", "error", werr)
		} else {
			slog.Info("artifacts written", "json", jsonPath, "report", reportPath)
		}
	}

	if s.notifier != nil {
		if nerr := s.notifier.Notify(ctx, slate); nerr != nil {
			slog.Error("notify failed", "error", nerr)
		}
	}

	slog.Info("scan complete",
		"primary", len(slate.Primary),
		"tight", len(slate.Tight),
		"near_miss", len(slate.NearMiss),
		"rejected", len(slate.Rejected),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return slate, nil
}

// enrichConcurrent corre las etapas por candidato en un worker pool.
// Cada candidato es una unidad aislada sin estado compartido; el risk manager
// y el teamlead necesitan el set completo, así que actúan como puntos de
// sincronización después del pool.
func (s *Scanner) enrichConcurrent(ctx context.Context, raws []domain.RawCandidate, now time.Time) []domain.UnifiedCandidate {
	workers := s.workers
	if workers <= 0 {
		workers = 4
	}

	workCh := make(chan domain.RawCandidate, len(raws))
	resultCh := make(chan domain.UnifiedCandidate, len(raws))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for raw := range workCh {
				resultCh <- s.enrich(ctx, raw, now)
			}
		}()
	}

	for _, raw := range raws {
		workCh <- raw
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	unified := make([]domain.UnifiedCandidate, 0, len(raws))
	for c := range resultCh {
		unified = append(unified, c)
	}
	return unified
}

// enrich corre resolver, clima, modeler, planner, accountant y risk para un
// candidato. Un fetch fallido degrada a sub-salida ausente o a modelo
// market-implied; los gates del teamlead ya toleran ambos.
func (s *Scanner) enrich(ctx context.Context, raw domain.RawCandidate, now time.Time) domain.UnifiedCandidate {
	spec := s.resolver.Resolve(raw.City, raw.MarketType, raw.TargetDateLocal)

	var obs *domain.Observation
	var fc *domain.Forecast
	if spec.StationICAO != "" {
		var err error
		obs, err = s.weather.LatestObservation(ctx, spec.StationICAO)
		if err != nil {
			slog.Warn("observation fetch failed", "station", spec.StationICAO, "error", err)
			obs = nil
		}
		fc, err = s.weather.Forecast(ctx, spec.StationICAO)
		if err != nil {
			slog.Warn("forecast fetch failed", "station", spec.StationICAO, "error", err)
			fc = nil
		}
	}

	model := s.modeler.Model(raw, spec, obs, fc, now)

	impliedPNo := 0.0
	if ask := raw.Orderbook.ImpliedNoAskCents; ask != nil {
		impliedPNo = float64(*ask) / 100.0
	}
	edgePct := accountant.EdgeVsImpliedPct(model.PNo, impliedPNo)

	// Un solo pase de feedback: el planner propone el límite con el edge del
	// primer pase y el accountant recalcula el EV definitivo a ese precio.
	plan := s.planner.Plan(raw, edgePct, 0)
	acct := s.acct.Assess(raw, model, plan.RecommendedCents)
	riskRec := s.riskMgr.Assess(raw, spec, &model, &acct, &plan)

	return teamlead.Merge(raw, &spec, &model, &acct, &plan, &riskRec)
}

// targetDate devuelve la fecha objetivo (hoy en ET) como YYYY-MM-DD.
func (s *Scanner) targetDate(now time.Time) string {
	et, err := time.LoadLocation("America/New_York")
	if err != nil {
		return now.Format("2006-01-02")
	}
	return now.In(et).Format("2006-01-02")
}
