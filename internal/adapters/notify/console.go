package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jmorales/wxslate/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime el slate en el modo configurado.
func (c *Console) Notify(_ context.Context, slate domain.DailySlate) error {
	if c.table {
		c.printFull(slate)
	} else {
		c.printCompact(slate)
	}
	return nil
}

// Alert emite una alerta puntual del spike monitor.
func (c *Console) Alert(_ context.Context, subject, body string) error {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] *** ALERT: %s ***\n%s\n\n", now, subject, body)
	return nil
}

// printCompact imprime lo esencial en 2-3 líneas.
func (c *Console) printCompact(slate domain.DailySlate) {
	now := slate.RunTime.Format("15:04:05")
	st := slate.Stats

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s — %d evts %d brks → P:%d T:%d NM:%d R:%d",
		now, slate.TargetDateLocal, st.EventsScanned, st.BracketsScanned,
		st.PrimaryCount, st.TightCount, st.NearMissCount, st.RejectedCount)

	shown := 0
	for _, pick := range slate.Primary {
		if shown >= 4 {
			break
		}
		fmt.Fprintf(&sb, " | #%d %s %s EV%+.1fc $%.2f",
			pick.Rank, compactName(pick.Raw.City, 12), askLabel(pick),
			pick.EVCents(), stakeOf(pick))
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla completa por bucket, el delta y los demovidos.
func (c *Console) printFull(slate domain.DailySlate) {
	st := slate.Stats
	fmt.Fprintf(c.out, "\n[%s] DAILY SLATE %s — bankroll $%.0f\n",
		slate.RunTime.Format("15:04:05"), slate.TargetDateLocal, slate.BankrollUSD)
	fmt.Fprintf(c.out, "Scanned %d events / %d brackets — P:%d T:%d NM:%d R:%d\n",
		st.EventsScanned, st.BracketsScanned,
		st.PrimaryCount, st.TightCount, st.NearMissCount, st.RejectedCount)

	c.printBucket("PRIMARY", slate.Primary)
	c.printBucket("TIGHT", slate.Tight)
	c.printBucket("NEAR MISS", slate.NearMiss)
	c.printRejected(slate.Rejected)
	c.printNoTrade(slate.NoTrade)
	c.printDelta(slate.Delta)

	for _, note := range slate.Notes {
		fmt.Fprintf(c.out, "  note: %s\n", note)
	}
	fmt.Fprintln(c.out)
}

// printBucket imprime la tabla de picks accionables de un bucket.
func (c *Console) printBucket(name string, picks []domain.UnifiedCandidate) {
	if len(picks) == 0 {
		return
	}

	fmt.Fprintf(c.out, "\n=== %s (%d) ===\n", name, len(picks))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "City", "Bracket", "Ask", "Room", "EV", "Edge%", "Limit", "Stake", "Liq", "Flags")

	for _, pick := range picks {
		table.Append(
			fmt.Sprintf("%d", pick.Rank),
			pick.Raw.City,
			compactName(pick.Raw.BracketDef, 18),
			askLabel(pick),
			roomLabel(pick),
			fmt.Sprintf("%+.1fc", pick.EVCents()),
			edgeLabel(pick),
			limitLabel(pick),
			fmt.Sprintf("$%.2f", stakeOf(pick)),
			liquidityLabel(pick),
			flagsLabel(pick),
		)
	}

	table.Render()

	for _, pick := range picks {
		for _, w := range pick.Warnings {
			fmt.Fprintf(c.out, "  ⚠ %s: %s\n", pick.Ticker(), w)
		}
	}
}

// printRejected lista los rechazados con su primera razón — sin tabla,
// suelen ser muchos y la razón es lo único que importa.
func (c *Console) printRejected(rejected []domain.UnifiedCandidate) {
	if len(rejected) == 0 {
		return
	}

	fmt.Fprintf(c.out, "\n=== REJECTED (%d) ===\n", len(rejected))
	for _, r := range rejected {
		reason := "no reason recorded"
		if len(r.RejectReasons) > 0 {
			reason = r.RejectReasons[0]
		}
		fmt.Fprintf(c.out, "  %-28s %s %s\n", r.Ticker(), askLabel(r), reason)
	}
}

// printNoTrade lista los demovidos por caps de correlación.
func (c *Console) printNoTrade(entries []domain.NoTradeEntry) {
	if len(entries) == 0 {
		return
	}

	fmt.Fprintf(c.out, "\n=== NO TRADE (%d) ===\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(c.out, "  %-28s %s\n", e.MarketTicker, e.Reason)
	}
}

// printDelta imprime el bloque de cambios respecto al run anterior.
func (c *Console) printDelta(delta *domain.Delta) {
	if delta == nil {
		fmt.Fprintln(c.out, "\n(first run of the day — no delta)")
		return
	}

	fmt.Fprintf(c.out, "\n=== DELTA vs %s ===\n", delta.PriorRunID)
	if len(delta.Entries) == 0 {
		fmt.Fprintln(c.out, "  no changes")
	}
	for _, e := range delta.Entries {
		fmt.Fprintf(c.out, "  [%s] %-28s %s\n", e.Kind, e.MarketTicker, e.Detail)
	}
	if len(delta.Suppressed) > 0 {
		fmt.Fprintf(c.out, "  suppressed (below stability thresholds): %s\n",
			strings.Join(delta.Suppressed, ", "))
	}
}

// --- helpers ---

func askLabel(c domain.UnifiedCandidate) string {
	if ask := c.ImpliedNoAsk(); ask != nil {
		return fmt.Sprintf("%dc", *ask)
	}
	return "—"
}

func roomLabel(c domain.UnifiedCandidate) string {
	if room := c.Raw.Orderbook.BidRoomCents; room != nil {
		return fmt.Sprintf("%dc", *room)
	}
	return "—"
}

func edgeLabel(c domain.UnifiedCandidate) string {
	if c.Accounting == nil {
		return "—"
	}
	return fmt.Sprintf("%+.1f", c.Accounting.EdgeVsImpliedPct)
}

func limitLabel(c domain.UnifiedCandidate) string {
	if c.Plan == nil {
		return "—"
	}
	return fmt.Sprintf("%dc", c.Plan.RecommendedCents)
}

func liquidityLabel(c domain.UnifiedCandidate) string {
	if c.Plan == nil {
		return "—"
	}
	return string(c.Plan.Liquidity)
}

func flagsLabel(c domain.UnifiedCandidate) string {
	var flags []string
	if c.Model != nil && c.Model.Degraded() {
		flags = append(flags, "DEGRADED")
	}
	if c.Risk != nil {
		flags = append(flags, c.Risk.RiskFlags...)
	}
	return strings.Join(flags, ",")
}

func stakeOf(c domain.UnifiedCandidate) float64 {
	if c.Risk == nil {
		return 0
	}
	return c.Risk.StakeUSD
}

func compactName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-1] + "…"
}
