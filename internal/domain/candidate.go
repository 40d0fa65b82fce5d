package domain

import "time"

// MarketType distingue mercados de temperatura máxima y mínima diaria.
type MarketType string

const (
	HighTemp MarketType = "HIGH_TEMP"
	LowTemp  MarketType = "LOW_TEMP"
)

// RawCandidate es un bracket escaneado con su snapshot de orderbook.
// Inmutable una vez capturado; uno por bracket por run.
type RawCandidate struct {
	RunTime         time.Time         `json:"run_time"`
	TargetDateLocal string            `json:"target_date_local"` // YYYY-MM-DD en hora local de la estación
	City            string            `json:"city"`
	MarketType      MarketType        `json:"market_type"`
	EventTicker     string            `json:"event_ticker"`
	MarketTicker    string            `json:"market_ticker"`
	MarketURL       string            `json:"market_url"`
	BracketDef      string            `json:"bracket_definition"` // e.g. "50°F or above"
	Orderbook       OrderbookSnapshot `json:"orderbook_snapshot"`
	Tradable        bool              `json:"tradable"`
	StatusNotes     string            `json:"status_notes,omitempty"`
}

// BookLevel es un nivel de precio del orderbook: [precio en cents, cantidad].
type BookLevel struct {
	PriceCents int `json:"price_cents"`
	Quantity   int `json:"quantity"`
}

// OrderbookSnapshot resume el estado del book en el momento del scan.
// Los campos opcionales son punteros: nil significa "dato ausente", que los
// gates tratan como caso con nombre propio, nunca como valor por defecto.
type OrderbookSnapshot struct {
	BestYesBidCents    *int        `json:"best_yes_bid_cents,omitempty"`
	BestNoBidCents     *int        `json:"best_no_bid_cents,omitempty"`
	ImpliedNoAskCents  *int        `json:"implied_no_ask_cents,omitempty"`  // 100 − best_yes_bid
	ImpliedYesAskCents *int        `json:"implied_yes_ask_cents,omitempty"` // 100 − best_no_bid
	BidRoomCents       *int        `json:"bid_room_cents,omitempty"`        // implied_no_ask − best_no_bid
	Top3YesBids        []BookLevel `json:"top3_yes_bids,omitempty"`
	Top3NoBids         []BookLevel `json:"top3_no_bids,omitempty"`
}

// TopOfBookDepth devuelve la cantidad total en el mejor nivel de cada lado.
func (ob OrderbookSnapshot) TopOfBookDepth() int {
	var total int
	if len(ob.Top3YesBids) > 0 {
		total += ob.Top3YesBids[0].Quantity
	}
	if len(ob.Top3NoBids) > 0 {
		total += ob.Top3NoBids[0].Quantity
	}
	return total
}

// Top3Depth devuelve la cantidad agregada de los tres mejores niveles de ambos lados.
func (ob OrderbookSnapshot) Top3Depth() int {
	var total int
	for _, lvl := range ob.Top3YesBids {
		total += lvl.Quantity
	}
	for _, lvl := range ob.Top3NoBids {
		total += lvl.Quantity
	}
	return total
}

// IntPtr es un helper para construir campos opcionales en cents.
func IntPtr(v int) *int { return &v }
