package modeler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBracket_Above(t *testing.T) {
	b, err := ParseBracket("50°F or above")
	require.NoError(t, err)
	assert.Equal(t, BracketAbove, b.Kind)
	assert.Equal(t, 50.0, b.Lo)
}

func TestParseBracket_Below(t *testing.T) {
	b, err := ParseBracket("40°F or below")
	require.NoError(t, err)
	assert.Equal(t, BracketBelow, b.Kind)
	assert.Equal(t, 40.0, b.Lo)
}

func TestParseBracket_Between(t *testing.T) {
	for _, def := range []string{"Between 45°F and 49°F", "45 to 49"} {
		b, err := ParseBracket(def)
		require.NoError(t, err, def)
		assert.Equal(t, BracketBetween, b.Kind, def)
		assert.Equal(t, 45.0, b.Lo, def)
		assert.Equal(t, 49.0, b.Hi, def)
	}
}

func TestParseBracket_BareNumberDefaultsToAbove(t *testing.T) {
	b, err := ParseBracket("72°F")
	require.NoError(t, err)
	assert.Equal(t, BracketAbove, b.Kind)
	assert.Equal(t, 72.0, b.Lo)
}

func TestParseBracket_NoNumber(t *testing.T) {
	_, err := ParseBracket("warmer than usual")
	assert.Error(t, err)
}

func TestPYes_AboveFarFromBoundary(t *testing.T) {
	b := Bracket{Kind: BracketAbove, Lo: 50}
	// Forecast 55 with sigma 3: comfortably above the boundary.
	p := b.PYes(55, 3)
	assert.InDelta(t, 0.967, p, 0.01)
}

func TestPYes_BelowSymmetry(t *testing.T) {
	above := Bracket{Kind: BracketAbove, Lo: 50}
	below := Bracket{Kind: BracketBelow, Lo: 50}
	// With the half-degree correction the two sides overlap slightly at the
	// boundary but still sum close to 1.
	sum := above.PYes(50, 3) + below.PYes(50, 3)
	assert.InDelta(t, 1.0, sum, 0.15)
}

func TestPYes_BetweenCentered(t *testing.T) {
	b := Bracket{Kind: BracketBetween, Lo: 45, Hi: 49}
	p := b.PYes(47, 2)
	assert.Greater(t, p, 0.5)
	assert.Less(t, p, 1.0)
}

func TestPYes_ZeroSigmaDegenerate(t *testing.T) {
	b := Bracket{Kind: BracketAbove, Lo: 50}
	assert.Equal(t, 1.0, b.PYes(55, 0))
	assert.Equal(t, 0.0, b.PYes(45, 0))
}

func TestBoundaryDistance(t *testing.T) {
	between := Bracket{Kind: BracketBetween, Lo: 45, Hi: 49}
	assert.Equal(t, 1.0, between.BoundaryDistance(46))
	assert.Equal(t, 1.0, between.BoundaryDistance(48))
	assert.Equal(t, 2.0, between.BoundaryDistance(51))

	above := Bracket{Kind: BracketAbove, Lo: 50}
	assert.Equal(t, 3.0, above.BoundaryDistance(53))
}
