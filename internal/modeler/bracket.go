package modeler

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// BracketKind is the comparison direction of a bracket definition.
type BracketKind int

const (
	BracketAbove BracketKind = iota
	BracketBelow
	BracketBetween
)

// Bracket is a parsed bracket boundary.
type Bracket struct {
	Kind BracketKind
	Lo   float64 // threshold for Above/Below; lower bound for Between
	Hi   float64 // upper bound for Between only
}

var (
	reThreshold = regexp.MustCompile(`(?i)(\d+)°?\s*F?\s+or\s+(above|below)`)
	reRange     = regexp.MustCompile(`(?i)(?:between\s+)?(\d+)°?\s*F?\s+(?:and|to)\s+(\d+)`)
	reNumber    = regexp.MustCompile(`(\d+)`)
)

// ParseBracket extracts the numeric threshold and comparison direction from a
// textual bracket definition such as "50°F or above", "40°F or below" or
// "Between 45°F and 49°F".
func ParseBracket(def string) (Bracket, error) {
	if m := reThreshold.FindStringSubmatch(def); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		if strings.EqualFold(m[2], "below") {
			return Bracket{Kind: BracketBelow, Lo: v}, nil
		}
		return Bracket{Kind: BracketAbove, Lo: v}, nil
	}
	if m := reRange.FindStringSubmatch(def); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		hi, _ := strconv.ParseFloat(m[2], 64)
		if hi < lo {
			lo, hi = hi, lo
		}
		return Bracket{Kind: BracketBetween, Lo: lo, Hi: hi}, nil
	}
	// Last resort: a bare number reads as "at or above".
	if m := reNumber.FindStringSubmatch(def); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return Bracket{Kind: BracketAbove, Lo: v}, nil
	}
	return Bracket{}, fmt.Errorf("modeler.ParseBracket: no threshold in %q", def)
}

// BoundaryDistance returns the distance from a temperature to the nearest
// bracket boundary, in native units (°F).
func (b Bracket) BoundaryDistance(temp float64) float64 {
	if b.Kind == BracketBetween {
		return math.Min(math.Abs(temp-b.Lo), math.Abs(temp-b.Hi))
	}
	return math.Abs(temp - b.Lo)
}

// PYes returns P(bracket settles YES) for a settlement temperature modelled
// as N(forecast, sigma²). Half-degree continuity correction on the integer
// boundaries, matching how the settlement value is rounded.
func (b Bracket) PYes(forecast, sigma float64) float64 {
	switch b.Kind {
	case BracketAbove:
		return 1 - normalCDF(b.Lo-0.5, forecast, sigma)
	case BracketBelow:
		return normalCDF(b.Lo+0.5, forecast, sigma)
	default:
		p := normalCDF(b.Hi+0.5, forecast, sigma) - normalCDF(b.Lo-0.5, forecast, sigma)
		return math.Max(p, 0.001)
	}
}

// normalCDF is the CDF of N(mu, sigma²) at x.
func normalCDF(x, mu, sigma float64) float64 {
	if sigma <= 0 {
		if x >= mu {
			return 1
		}
		return 0
	}
	z := (x - mu) / sigma
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}
