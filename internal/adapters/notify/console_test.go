package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jmorales/wxslate/internal/adapters/notify"
	"github.com/jmorales/wxslate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePick(ticker, city string, rank, ask int, ev, stake float64) domain.UnifiedCandidate {
	room := 3
	return domain.UnifiedCandidate{
		Raw: domain.RawCandidate{
			MarketTicker: ticker,
			City:         city,
			BracketDef:   "92°F or above",
			Orderbook: domain.OrderbookSnapshot{
				ImpliedNoAskCents: &ask,
				BidRoomCents:      &room,
			},
		},
		Accounting: &domain.Accounting{EVNetCents: ev, EdgeVsImpliedPct: 4.3},
		Plan: &domain.ExecutionPlan{
			Liquidity:        domain.LiquidityOK,
			RecommendedCents: ask - 2,
		},
		Risk:   &domain.RiskRecommendation{StakeUSD: stake, RiskFlags: []string{"LOCKING"}},
		Bucket: domain.BucketPrimary,
		Rank:   rank,
	}
}

func makeTestSlate() domain.DailySlate {
	return domain.DailySlate{
		RunID:           "run-1",
		RunTime:         time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC),
		TargetDateLocal: "2026-08-30",
		BankrollUSD:     42,
		Stats:           domain.ScanStats{EventsScanned: 12, BracketsScanned: 96, PrimaryCount: 2},
		Primary: []domain.UnifiedCandidate{
			makePick("KXHIGHNY-26AUG30-B92", "New York", 1, 92, 4.2, 10.50),
			makePick("KXHIGHCHI-26AUG30-B91", "Chicago", 2, 91, 2.1, 8.40),
		},
		Rejected: []domain.UnifiedCandidate{
			{
				Raw:           domain.RawCandidate{MarketTicker: "KXHIGHMIA-26AUG30-B88"},
				Bucket:        domain.BucketRejected,
				RejectReasons: []string{"EV non-positive at limit 90c"},
			},
		},
		NoTrade: []domain.NoTradeEntry{
			{MarketTicker: "KXHIGHPHIL-26AUG30-B90", Reason: "correlation cap: Northeast already has 3 picks"},
		},
	}
}

func TestConsole_Notify_FullTable(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	err := n.Notify(context.Background(), makeTestSlate())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "DAILY SLATE 2026-08-30")
	assert.Contains(t, out, "PRIMARY (2)")
	assert.Contains(t, out, "New York")
	assert.Contains(t, out, "Chicago")
	assert.Contains(t, out, "$10.50")
	assert.Contains(t, out, "REJECTED (1)")
	assert.Contains(t, out, "EV non-positive at limit 90c")
	assert.Contains(t, out, "NO TRADE (1)")
	assert.Contains(t, out, "correlation cap")
	assert.Contains(t, out, "first run of the day")
}

func TestConsole_Notify_DegradedModelFlagged(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	slate := makeTestSlate()
	slate.Primary[0].Model = &domain.ModelOutput{
		PNo: 0.92, Method: domain.MethodMarketImplied,
		Uncertainty: domain.UncertaintyHigh,
	}

	err := n.Notify(context.Background(), slate)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "DEGRADED")
}

func TestConsole_Notify_Compact(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	err := n.Notify(context.Background(), makeTestSlate())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "P:2")
	assert.Contains(t, out, "New York")
	assert.NotContains(t, out, "REJECTED", "el modo compacto no lista rechazados")
}

func TestConsole_Notify_DeltaBlock(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	slate := makeTestSlate()
	slate.Delta = &domain.Delta{
		PriorRunID: "run-0",
		Entries: []domain.DeltaEntry{
			{MarketTicker: "KXHIGHNY-26AUG30-B92", Kind: domain.ChangePriceMoved, Detail: "ask 90c → 92c"},
		},
		Suppressed: []string{"KXHIGHCHI-26AUG30-B91"},
	}

	err := n.Notify(context.Background(), slate)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "DELTA vs run-0")
	assert.Contains(t, out, "PRICE_MOVED")
	assert.Contains(t, out, "ask 90c → 92c")
	assert.Contains(t, out, "suppressed")
	assert.Contains(t, out, "KXHIGHCHI-26AUG30-B91")
}

func TestConsole_Alert(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	err := n.Alert(context.Background(), "price spike KXHIGHNY-26AUG30-B92", "implied NO ask moved 18c in 240s")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "ALERT")
	assert.Contains(t, out, "price spike")
	assert.Contains(t, out, "18c in 240s")
}
