package teamlead

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorales/wxslate/config"
	"github.com/jmorales/wxslate/internal/domain"
	"github.com/jmorales/wxslate/internal/risk"
)

func newLead() *Lead {
	cfg := config.Default()
	return New(cfg, risk.New(cfg))
}

// goodCandidate construye un candidato que pasa todos los gates:
// ask=92 en la ventana primaria, room=3, EV positivo, liquidez OK.
func goodCandidate(city, ticker string) domain.UnifiedCandidate {
	ev := 4.0
	return Merge(
		domain.RawCandidate{
			City:         city,
			MarketType:   domain.HighTemp,
			MarketTicker: ticker,
			Orderbook: domain.OrderbookSnapshot{
				ImpliedNoAskCents: domain.IntPtr(92),
				BestNoBidCents:    domain.IntPtr(89),
				BidRoomCents:      domain.IntPtr(3),
				Top3YesBids:       []domain.BookLevel{{PriceCents: 8, Quantity: 15}},
				Top3NoBids:        []domain.BookLevel{{PriceCents: 89, Quantity: 15}},
			},
		},
		&domain.SettlementSpec{City: city, Confidence: domain.ConfidenceHigh},
		&domain.ModelOutput{
			MarketTicker:   ticker,
			PNo:            0.96,
			Uncertainty:    domain.UncertaintyLow,
			KnifeEdge:      domain.KnifeEdgeLow,
			LockIn:         domain.NotLocked,
			HoursVolWindow: 3,
		},
		&domain.Accounting{MarketTicker: ticker, EVNetCents: ev, EdgeVsImpliedPct: 4.0},
		&domain.ExecutionPlan{MarketTicker: ticker, Liquidity: domain.LiquidityOK, RecommendedCents: 90},
		&domain.RiskRecommendation{MarketTicker: ticker, RiskMultiplier: 1.0},
	)
}

func TestRun_PrimaryScenario(t *testing.T) {
	l := newLead()

	res := l.Run([]domain.UnifiedCandidate{goodCandidate("New York", "T1")})

	require.Len(t, res.Primary, 1)
	assert.Equal(t, domain.BucketPrimary, res.Primary[0].Bucket)
	assert.Equal(t, 1, res.Primary[0].Rank)
	assert.Empty(t, res.Rejected)
}

func TestRun_TightWhenBidRoomInsufficient(t *testing.T) {
	l := newLead()
	c := goodCandidate("New York", "T1")
	c.Raw.Orderbook.BidRoomCents = domain.IntPtr(1)

	res := l.Run([]domain.UnifiedCandidate{c})

	require.Len(t, res.Tight, 1)
	assert.Empty(t, res.Primary)
	assert.Contains(t, res.Tight[0].Warnings[0], "insufficient bid room for PRIMARY")
}

func TestRun_NearMissJustOutsideWindow(t *testing.T) {
	l := newLead()
	c := goodCandidate("New York", "T1")
	c.Raw.Orderbook.ImpliedNoAskCents = domain.IntPtr(89)

	res := l.Run([]domain.UnifiedCandidate{c})

	require.Len(t, res.NearMiss, 1)
	assert.Equal(t, domain.BucketNearMiss, res.NearMiss[0].Bucket)
}

func TestRun_ZeroEVIsRejected(t *testing.T) {
	l := newLead()
	c := goodCandidate("New York", "T1")
	c.Accounting.EVNetCents = 0
	c.Accounting.NoTradeReason = "EV non-positive at limit 90c: EV=0.0c"

	res := l.Run([]domain.UnifiedCandidate{c})

	require.Len(t, res.Rejected, 1)
	assert.Contains(t, res.Rejected[0].RejectReasons[0], "EV reject")
}

func TestHardReject_GateOrder(t *testing.T) {
	l := newLead()

	// Gate 1 fires before anything else even with a broken book.
	c := goodCandidate("Washington", "T1")
	c.Settlement.Confidence = domain.ConfidenceMed
	c.Raw.Orderbook.ImpliedNoAskCents = nil
	rejected, reason := l.HardReject(c)
	assert.True(t, rejected)
	assert.Contains(t, reason, "mapping confidence MED != HIGH")

	// Gate 2: missing ask.
	c = goodCandidate("New York", "T2")
	c.Raw.Orderbook.ImpliedNoAskCents = nil
	_, reason = l.HardReject(c)
	assert.Contains(t, reason, "implied NO ask")

	// Gate 3: spread reject.
	c = goodCandidate("New York", "T3")
	c.Plan.SpreadReject = true
	_, reason = l.HardReject(c)
	assert.Contains(t, reason, "spread reject")

	// Gate 5: LOW lock-in.
	c = goodCandidate("New York", "T4")
	c.Raw.MarketType = domain.LowTemp
	c.Model.LockIn = domain.Locking
	low := 0.01
	c.Model.PNewExtreme = &low
	_, reason = l.HardReject(c)
	assert.Contains(t, reason, "LOW lock-in")

	// Gate 6: HIGH lock-in.
	c = goodCandidate("New York", "T5")
	c.Model.LockIn = domain.Locking
	c.Model.PNewExtreme = &low
	_, reason = l.HardReject(c)
	assert.Contains(t, reason, "HIGH lock-in")
}

func TestHardReject_MissingSubOutputsAreNamedRejects(t *testing.T) {
	l := newLead()

	c := goodCandidate("New York", "T1")
	c.Settlement = nil
	_, reason := l.HardReject(c)
	assert.Equal(t, "missing settlement spec", reason)

	c = goodCandidate("New York", "T2")
	c.Plan = nil
	_, reason = l.HardReject(c)
	assert.Equal(t, "missing execution plan", reason)

	c = goodCandidate("New York", "T3")
	c.Accounting = nil
	_, reason = l.HardReject(c)
	assert.Equal(t, "missing accounting", reason)

	c = goodCandidate("New York", "T4")
	c.Model = nil
	_, reason = l.HardReject(c)
	assert.Equal(t, "missing model output", reason)
}

func TestRank_Idempotent(t *testing.T) {
	a := goodCandidate("New York", "A")
	b := goodCandidate("Chicago", "B")
	b.Accounting.EVNetCents = 6.0
	c := goodCandidate("Miami", "C")
	c.Model.Uncertainty = domain.UncertaintyMed

	first := Rank([]domain.UnifiedCandidate{a, b, c})
	second := Rank(append([]domain.UnifiedCandidate{}, first...))

	require.Len(t, second, 3)
	for i := range first {
		assert.Equal(t, first[i].Ticker(), second[i].Ticker())
		assert.Equal(t, first[i].Rank, second[i].Rank)
	}
	// B has the highest EV, A beats C on uncertainty.
	assert.Equal(t, "B", first[0].Ticker())
	assert.Equal(t, "A", first[1].Ticker())
	assert.Equal(t, "C", first[2].Ticker())
}

func TestRun_PickLimitDemotesToTight(t *testing.T) {
	l := newLead()

	// Twelve qualifying candidates across uncorrelated cities; only ten
	// may stay PRIMARY, the two lowest-ranked drop to TIGHT.
	cities := []string{
		"New York", "Chicago", "Miami", "Austin", "Los Angeles", "Denver",
		"Las Vegas", "Seattle", "Atlanta", "Boston", "Minneapolis", "Phoenix",
	}
	var candidates []domain.UnifiedCandidate
	for i, city := range cities {
		c := goodCandidate(city, fmt.Sprintf("T%02d", i))
		// Spread EV so the ranking is unambiguous.
		c.Accounting.EVNetCents = float64(20 - i)
		candidates = append(candidates, c)
	}

	res := l.Run(candidates)

	assert.Len(t, res.Primary, 10)
	require.Len(t, res.Tight, 2)
	for _, c := range res.Tight {
		assert.Equal(t, domain.BucketTight, c.Bucket)
		assert.Contains(t, c.Warnings[len(c.Warnings)-1], "exceeded PRIMARY pick limit")
	}
	assert.Empty(t, res.Rejected)
}

func TestRun_CorrelationCapProducesNoTradeEntries(t *testing.T) {
	l := newLead()

	// Four Northeast cities, group cap 3: the weakest goes to no-trade.
	candidates := []domain.UnifiedCandidate{
		goodCandidate("New York", "T1"),
		goodCandidate("Boston", "T2"),
		goodCandidate("Philadelphia", "T3"),
		goodCandidate("Philadelphia", "T4"),
	}
	for i := range candidates {
		candidates[i].Accounting.EVNetCents = float64(10 - i)
	}

	res := l.Run(candidates)

	assert.Len(t, res.Primary, 3)
	require.Len(t, res.NoTrade, 1)
	assert.Equal(t, "T4", res.NoTrade[0].MarketTicker)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "T4", res.Rejected[0].Ticker())
}

func TestRun_StakesAllocatedToSurvivors(t *testing.T) {
	l := newLead()

	res := l.Run([]domain.UnifiedCandidate{
		goodCandidate("New York", "T1"),
		goodCandidate("Chicago", "T2"),
	})

	require.Len(t, res.Primary, 2)
	total := 0.0
	for _, c := range res.Primary {
		require.NotNil(t, c.Risk)
		assert.Positive(t, c.Risk.StakeUSD)
		total += c.Risk.StakeUSD
	}
	assert.LessOrEqual(t, total, l.cfg.Bankroll.TotalUSD)
}
