package domain

import "time"

// SettlementSpec mapea la ciudad de un mercado a su estación canónica,
// la ventana de settlement y la confianza del mapeo.
type SettlementSpec struct {
	City           string            `json:"city"`
	MarketType     MarketType        `json:"market_type"`
	StationICAO    string            `json:"station_icao"`
	CLIProduct     string            `json:"cli_product"` // código issuedby del producto CLI de NWS
	CLIURL         string            `json:"cli_url"`
	Timezone       string            `json:"timezone"` // IANA
	WindowStartUTC time.Time         `json:"window_start_utc"`
	WindowEndUTC   time.Time         `json:"window_end_utc"`
	Confidence     MappingConfidence `json:"mapping_confidence"`
	RiskNotes      []string          `json:"risk_notes,omitempty"`
}

// ModelOutput es la salida del probability modeler para un candidato.
type ModelOutput struct {
	MarketTicker string      `json:"market_ticker"`
	PYes         float64     `json:"p_yes"`
	PNo          float64     `json:"p_no"`
	Method       ModelMethod `json:"method"`
	Sigma        float64     `json:"sigma"` // desviación usada en la CDF Normal

	Uncertainty UncertaintyLevel `json:"uncertainty_level"`
	KnifeEdge   KnifeEdgeRisk    `json:"knife_edge_risk"`

	// Lock-in: flag + probabilidad subyacente de un nuevo extremo diario.
	LockIn       LockInFlag `json:"lock_in_flag"`
	PNewExtreme  *float64   `json:"p_new_extreme,omitempty"`
	SunriseLocal *time.Time `json:"sunrise_local,omitempty"`
	PeakLocal    *time.Time `json:"peak_local,omitempty"`

	HoursToClose   float64  `json:"hours_to_close"`
	HoursVolWindow float64  `json:"hours_vol_window"` // horas restantes de volatilidad significativa
	Notes          []string `json:"notes,omitempty"`
}

// Degraded devuelve true si el modelo corrió sin datos de clima.
func (m ModelOutput) Degraded() bool { return m.Method == MethodMarketImplied }

// Accounting es la salida del fee & EV accountant.
type Accounting struct {
	MarketTicker     string  `json:"market_ticker"`
	ImpliedPNo       float64 `json:"implied_p_no"`
	MakerFeeCents    int     `json:"maker_fee_cents"`
	TakerFeeCents    int     `json:"taker_fee_cents"`
	EVNetCents       float64 `json:"ev_net_cents"` // EV al límite recomendado
	MaxBuyPriceCents int     `json:"max_buy_price_cents"`
	EdgeVsImpliedPct float64 `json:"edge_vs_implied_pct"`
	NoTradeReason    string  `json:"no_trade_reason,omitempty"` // no vacío ⇒ nunca PRIMARY/TIGHT
}

// HasPositiveEV devuelve true si el EV neto al límite recomendado es positivo.
func (a Accounting) HasPositiveEV() bool { return a.EVNetCents > 0 }

// ExecutionPlan es la salida del execution planner: veredicto de liquidez,
// precio límite recomendado y pasos manuales de ejecución.
type ExecutionPlan struct {
	MarketTicker       string           `json:"market_ticker"`
	Liquidity          LiquidityVerdict `json:"liquidity_verdict"`
	SpreadReject       bool             `json:"spread_reject"`
	SpreadCents        *int             `json:"spread_cents,omitempty"`
	RecommendedCents   int              `json:"recommended_limit_cents"`
	LimitRationale     string           `json:"limit_rationale"`
	LowFillProb        bool             `json:"low_fill_probability"`
	ManualSteps        []string         `json:"manual_steps"`
	CancelReplaceRules []string         `json:"cancel_replace_rules"`
}

// Actionable devuelve true si el plan no rechaza el candidato por microestructura.
func (p ExecutionPlan) Actionable() bool {
	return !p.SpreadReject && p.Liquidity != LiquidityReject
}

// RiskRecommendation es la salida del risk & portfolio manager.
type RiskRecommendation struct {
	MarketTicker     string   `json:"market_ticker"`
	RiskMultiplier   float64  `json:"risk_multiplier"` // ∈ (0,1], floor 0.1
	RiskFlags        []string `json:"risk_flags,omitempty"`
	CorrelationGroup string   `json:"correlation_group"`
	MetroCluster     string   `json:"metro_cluster"`
	StakeUSD         float64  `json:"stake_usd"`
	MaxLossUSD       float64  `json:"max_loss_usd"`
}

// NoTradeEntry registra un candidato demovido con su razón explícita.
// Nada se descarta en silencio: los demovidos siguen visibles en el slate.
type NoTradeEntry struct {
	MarketTicker string `json:"market_ticker"`
	Reason       string `json:"reason"`
}
