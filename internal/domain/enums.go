package domain

// MappingConfidence indica la confianza del mapeo ciudad → estación.
// Solo HIGH sobrevive el primer hard-reject gate.
type MappingConfidence string

const (
	ConfidenceHigh MappingConfidence = "HIGH"
	ConfidenceMed  MappingConfidence = "MED"
	ConfidenceLow  MappingConfidence = "LOW"
)

// UncertaintyLevel clasifica la incertidumbre global del modelo.
type UncertaintyLevel string

const (
	UncertaintyLow  UncertaintyLevel = "LOW"
	UncertaintyMed  UncertaintyLevel = "MED"
	UncertaintyHigh UncertaintyLevel = "HIGH"
)

// RankValue ordena los niveles de incertidumbre para el ranking (menor = mejor).
func (u UncertaintyLevel) RankValue() int {
	switch u {
	case UncertaintyLow:
		return 0
	case UncertaintyMed:
		return 1
	default:
		return 2
	}
}

// LockInFlag indica si el extremo diario ya quedó fijado.
type LockInFlag string

const (
	Locking     LockInFlag = "LOCKING"
	NotLocked   LockInFlag = "NOT_LOCKED"
	LockUnknown LockInFlag = "UNKNOWN"
)

// KnifeEdgeRisk mide la proximidad del estimado del modelo al borde del bracket.
type KnifeEdgeRisk string

const (
	KnifeEdgeLow  KnifeEdgeRisk = "LOW"
	KnifeEdgeMed  KnifeEdgeRisk = "MED"
	KnifeEdgeHigh KnifeEdgeRisk = "HIGH"
)

// RankValue ordena el riesgo knife-edge para el ranking (menor = mejor).
func (k KnifeEdgeRisk) RankValue() int {
	switch k {
	case KnifeEdgeLow:
		return 0
	case KnifeEdgeMed:
		return 1
	default:
		return 2
	}
}

// LiquidityVerdict es el veredicto de liquidez del planner.
type LiquidityVerdict string

const (
	LiquidityOK     LiquidityVerdict = "OK"
	LiquidityThin   LiquidityVerdict = "THIN"
	LiquidityReject LiquidityVerdict = "REJECT"
	WideException   LiquidityVerdict = "WIDE_EXCEPTION"
)

// RankValue ordena el veredicto para el ranking: OK antes que THIN.
func (v LiquidityVerdict) RankValue() int {
	switch v {
	case LiquidityOK, WideException:
		return 0
	case LiquidityThin:
		return 1
	default:
		return 2
	}
}

// Bucket es la clasificación final de un candidato dentro del slate.
type Bucket string

const (
	BucketPrimary  Bucket = "PRIMARY"
	BucketTight    Bucket = "TIGHT"
	BucketNearMiss Bucket = "NEAR_MISS"
	BucketRejected Bucket = "REJECTED"
)

// ModelMethod identifica el origen de la probabilidad del modelo.
type ModelMethod string

const (
	// MethodWeatherModel: probabilidad derivada del forecast con CDF Normal.
	MethodWeatherModel ModelMethod = "WEATHER_MODEL"
	// MethodMarketImplied: fallback sin datos de clima; deriva la probabilidad
	// del implied NO ask del mercado. Siempre lleva uncertainty HIGH.
	MethodMarketImplied ModelMethod = "MARKET_IMPLIED"
)
