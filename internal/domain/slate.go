package domain

import "time"

// UnifiedCandidate agrupa el candidato crudo con las cinco salidas upstream.
// Cualquier sub-salida puede estar ausente (nil); la lógica de gates trata
// la ausencia como rechazo con razón explícita, nunca como crash.
// Después de asignar bucket/rank solo el pase de estabilidad del orchestrator
// puede revertir la asignación; nunca inventa datos nuevos.
type UnifiedCandidate struct {
	Raw        RawCandidate        `json:"raw"`
	Settlement *SettlementSpec     `json:"settlement,omitempty"`
	Model      *ModelOutput        `json:"model,omitempty"`
	Accounting *Accounting         `json:"accounting,omitempty"`
	Plan       *ExecutionPlan      `json:"plan,omitempty"`
	Risk       *RiskRecommendation `json:"risk,omitempty"`

	Bucket        Bucket   `json:"bucket"`
	Rank          int      `json:"rank,omitempty"` // 1..N, único dentro del run; 0 = sin rankear
	RejectReasons []string `json:"reject_reasons,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// Ticker devuelve el market ticker del candidato.
func (c UnifiedCandidate) Ticker() string { return c.Raw.MarketTicker }

// EVCents devuelve el EV neto en cents, o 0 si el accounting está ausente.
func (c UnifiedCandidate) EVCents() float64 {
	if c.Accounting == nil {
		return 0
	}
	return c.Accounting.EVNetCents
}

// ImpliedNoAsk devuelve el implied NO ask, o nil si falta en el book.
func (c UnifiedCandidate) ImpliedNoAsk() *int {
	return c.Raw.Orderbook.ImpliedNoAskCents
}

// ScanStats resume los conteos de un run.
type ScanStats struct {
	EventsScanned      int `json:"events_scanned"`
	BracketsScanned    int `json:"brackets_scanned"`
	CandidatesInWindow int `json:"candidates_in_window"`
	PrimaryCount       int `json:"primary_count"`
	TightCount         int `json:"tight_count"`
	NearMissCount      int `json:"near_miss_count"`
	RejectedCount      int `json:"rejected_count"`
}

// ChangeKind clasifica un cambio por ticker entre dos runs consecutivos.
type ChangeKind string

const (
	ChangeNew           ChangeKind = "NEW"
	ChangeRemoved       ChangeKind = "REMOVED"
	ChangePriceMoved    ChangeKind = "PRICE_MOVED"
	ChangeEVFlipped     ChangeKind = "EV_FLIPPED"
	ChangeBucketChanged ChangeKind = "BUCKET_CHANGED"
	ChangeRankChanged   ChangeKind = "RANK_CHANGED"
)

// DeltaEntry describe un cambio detectado respecto al run anterior.
type DeltaEntry struct {
	MarketTicker string     `json:"market_ticker"`
	Kind         ChangeKind `json:"kind"`
	Detail       string     `json:"detail"`
}

// Delta es el bloque de cambios del slate actual versus el anterior.
type Delta struct {
	PriorRunID string       `json:"prior_run_id"`
	Entries    []DeltaEntry `json:"entries,omitempty"`
	Suppressed []string     `json:"suppressed,omitempty"` // tickers con cambio revertido por estabilidad
}

// DailySlate es la salida completa de un run: candidatos rankeados por bucket,
// metadata y el bloque delta. Se escribe exactamente una vez por invocación.
type DailySlate struct {
	RunID           string    `json:"run_id"`
	RunTime         time.Time `json:"run_time"`
	TargetDateLocal string    `json:"target_date_local"`
	BankrollUSD     float64   `json:"bankroll_usd"`

	Stats    ScanStats          `json:"scan_stats"`
	Primary  []UnifiedCandidate `json:"picks_primary"`
	Tight    []UnifiedCandidate `json:"picks_tight"`
	NearMiss []UnifiedCandidate `json:"picks_near_miss"`
	Rejected []UnifiedCandidate `json:"rejected"`
	NoTrade  []NoTradeEntry     `json:"no_trade,omitempty"`

	Delta *Delta   `json:"delta,omitempty"`
	Notes []string `json:"notes,omitempty"`
}

// All devuelve todos los candidatos del slate en orden de bucket.
func (s DailySlate) All() []UnifiedCandidate {
	out := make([]UnifiedCandidate, 0,
		len(s.Primary)+len(s.Tight)+len(s.NearMiss)+len(s.Rejected))
	out = append(out, s.Primary...)
	out = append(out, s.Tight...)
	out = append(out, s.NearMiss...)
	out = append(out, s.Rejected...)
	return out
}

// Find busca un candidato por ticker en cualquier bucket.
func (s DailySlate) Find(ticker string) (UnifiedCandidate, bool) {
	for _, c := range s.All() {
		if c.Ticker() == ticker {
			return c, true
		}
	}
	return UnifiedCandidate{}, false
}
