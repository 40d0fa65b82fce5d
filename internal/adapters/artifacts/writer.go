package artifacts

// writer.go — artifacts por run: DAILY_SLATE json (máquina) + REPORT md (humano).
// Un par de archivos por run bajo <dir>/<target-date>/, con tag por hora de run
// para que los runs del mismo día ordenen lexicográficamente.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmorales/wxslate/internal/domain"
)

// Writer implementa ports.ArtifactWriter escribiendo al filesystem local.
type Writer struct {
	dir string
}

// NewWriter crea un writer con el directorio base de salida.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// WriteSlate escribe DAILY_SLATE_<tag>.json + REPORT_<tag>.md y devuelve sus rutas.
// El JSON es el slate completo: deserializarlo reproduce cada candidato rankeado.
func (w *Writer) WriteSlate(slate domain.DailySlate) (jsonPath, reportPath string, err error) {
	runDir := filepath.Join(w.dir, slate.TargetDateLocal)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", "", fmt.Errorf("artifacts.WriteSlate: mkdir %q: %w", runDir, err)
	}

	tag := slate.RunTime.Format("1504")
	jsonPath = filepath.Join(runDir, fmt.Sprintf("DAILY_SLATE_%s.json", tag))
	reportPath = filepath.Join(runDir, fmt.Sprintf("REPORT_%s.md", tag))

	payload, err := json.MarshalIndent(slate, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("artifacts.WriteSlate: marshal %s: %w", slate.RunID, err)
	}
	if err := os.WriteFile(jsonPath, payload, 0o644); err != nil {
		return "", "", fmt.Errorf("artifacts.WriteSlate: write %q: %w", jsonPath, err)
	}

	if err := os.WriteFile(reportPath, []byte(renderReport(slate)), 0o644); err != nil {
		return "", "", fmt.Errorf("artifacts.WriteSlate: write %q: %w", reportPath, err)
	}

	return jsonPath, reportPath, nil
}

// renderReport genera el markdown legible del slate.
func renderReport(slate domain.DailySlate) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Temperature \"Unlikely NO\" Slate — %s\n\n", slate.TargetDateLocal)

	fmt.Fprintf(&sb, "## Run Metadata\n")
	fmt.Fprintf(&sb, "- **run_id:** %s\n", slate.RunID)
	fmt.Fprintf(&sb, "- **run_time:** %s\n", slate.RunTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "- **bankroll_usd:** $%.2f\n\n", slate.BankrollUSD)

	st := slate.Stats
	fmt.Fprintf(&sb, "## Scan Coverage\n")
	fmt.Fprintf(&sb, "- **events_scanned:** %d\n", st.EventsScanned)
	fmt.Fprintf(&sb, "- **brackets_scanned:** %d\n", st.BracketsScanned)
	fmt.Fprintf(&sb, "- **candidates_in_window:** %d\n", st.CandidatesInWindow)
	fmt.Fprintf(&sb, "- **primary:** %d — **tight:** %d — **near_miss:** %d — **rejected:** %d\n\n",
		st.PrimaryCount, st.TightCount, st.NearMissCount, st.RejectedCount)

	renderPickTable(&sb, "PRIMARY Picks (Recommended)", slate.Primary)
	renderPickTable(&sb, "TIGHT Picks", slate.Tight)
	renderPickTable(&sb, "NEAR-MISS Watchlist", slate.NearMiss)

	fmt.Fprintf(&sb, "## REJECTED Summary\n")
	if len(slate.Rejected) == 0 {
		fmt.Fprintf(&sb, "_None._\n\n")
	} else {
		for _, r := range slate.Rejected {
			reason := "no reason recorded"
			if len(r.RejectReasons) > 0 {
				reason = strings.Join(r.RejectReasons, "; ")
			}
			fmt.Fprintf(&sb, "- `%s` — %s\n", r.Ticker(), reason)
		}
		fmt.Fprintln(&sb)
	}

	if len(slate.NoTrade) > 0 {
		fmt.Fprintf(&sb, "## No-Trade (demoted)\n")
		for _, e := range slate.NoTrade {
			fmt.Fprintf(&sb, "- `%s` — %s\n", e.MarketTicker, e.Reason)
		}
		fmt.Fprintln(&sb)
	}

	renderChecklist(&sb, slate)
	renderDelta(&sb, slate.Delta)

	for _, note := range slate.Notes {
		fmt.Fprintf(&sb, "> %s\n", note)
	}

	return sb.String()
}

func renderPickTable(sb *strings.Builder, title string, picks []domain.UnifiedCandidate) {
	fmt.Fprintf(sb, "## %s\n", title)
	if len(picks) == 0 {
		fmt.Fprintf(sb, "_No picks this run._\n\n")
		return
	}

	fmt.Fprintf(sb, "| Rank | City | High/Low | Bracket | NO ask | NO bid | Room | p(NO) | Edge %% | Limit | Max Buy | Stake | Notes |\n")
	fmt.Fprintf(sb, "|------|------|----------|---------|--------|--------|------|-------|--------|-------|---------|-------|-------|\n")

	for _, p := range picks {
		fmt.Fprintf(sb, "| %d | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			p.Rank, p.Raw.City, p.Raw.MarketType, p.Raw.BracketDef,
			centCell(p.Raw.Orderbook.ImpliedNoAskCents),
			centCell(p.Raw.Orderbook.BestNoBidCents),
			centCell(p.Raw.Orderbook.BidRoomCents),
			pNoCell(p), edgeCell(p), limitCell(p), maxBuyCell(p), stakeCell(p),
			notesShort(p),
		)
	}
	fmt.Fprintln(sb)
}

// renderChecklist escribe los pasos manuales del primer pick accionable.
// Cada plan lleva los suyos en el JSON; el report muestra uno como guía.
func renderChecklist(sb *strings.Builder, slate domain.DailySlate) {
	var plan *domain.ExecutionPlan
	for _, p := range slate.Primary {
		if p.Plan != nil {
			plan = p.Plan
			break
		}
	}
	if plan == nil {
		return
	}

	fmt.Fprintf(sb, "## Manual Placement Checklist\n")
	for i, step := range plan.ManualSteps {
		fmt.Fprintf(sb, "%d. %s\n", i+1, step)
	}
	for _, rule := range plan.CancelReplaceRules {
		fmt.Fprintf(sb, "- %s\n", rule)
	}
	fmt.Fprintln(sb)
}

func renderDelta(sb *strings.Builder, delta *domain.Delta) {
	fmt.Fprintf(sb, "## Delta vs Previous Run\n")
	if delta == nil {
		fmt.Fprintf(sb, "_No prior run available for comparison._\n\n")
		return
	}
	if len(delta.Entries) == 0 {
		fmt.Fprintf(sb, "- no changes vs `%s`\n", delta.PriorRunID)
	}
	for _, e := range delta.Entries {
		fmt.Fprintf(sb, "- **%s** `%s` — %s\n", e.Kind, e.MarketTicker, e.Detail)
	}
	if len(delta.Suppressed) > 0 {
		fmt.Fprintf(sb, "- suppressed below stability thresholds: %s\n",
			strings.Join(delta.Suppressed, ", "))
	}
	fmt.Fprintln(sb)
}

// --- celdas ---

func centCell(v *int) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%dc", *v)
}

func pNoCell(p domain.UnifiedCandidate) string {
	if p.Model == nil {
		return "—"
	}
	return fmt.Sprintf("%.3f", p.Model.PNo)
}

func edgeCell(p domain.UnifiedCandidate) string {
	if p.Accounting == nil {
		return "—"
	}
	return fmt.Sprintf("%+.1f", p.Accounting.EdgeVsImpliedPct)
}

func limitCell(p domain.UnifiedCandidate) string {
	if p.Plan == nil {
		return "—"
	}
	return fmt.Sprintf("%dc", p.Plan.RecommendedCents)
}

func maxBuyCell(p domain.UnifiedCandidate) string {
	if p.Accounting == nil {
		return "—"
	}
	return fmt.Sprintf("%dc", p.Accounting.MaxBuyPriceCents)
}

func stakeCell(p domain.UnifiedCandidate) string {
	if p.Risk == nil {
		return "—"
	}
	return fmt.Sprintf("$%.2f", p.Risk.StakeUSD)
}

func notesShort(p domain.UnifiedCandidate) string {
	if len(p.Warnings) == 0 {
		return ""
	}
	note := p.Warnings[0]
	if len(p.Warnings) > 1 {
		note += fmt.Sprintf(" (+%d)", len(p.Warnings)-1)
	}
	return note
}
