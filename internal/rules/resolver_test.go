package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorales/wxslate/internal/domain"
)

func TestResolve_KnownCity(t *testing.T) {
	r := NewResolver()
	spec := r.Resolve("New York", domain.LowTemp, "2026-02-12")

	assert.Equal(t, "KNYC", spec.StationICAO)
	assert.Equal(t, "NYC", spec.CLIProduct)
	assert.Equal(t, domain.ConfidenceHigh, spec.Confidence)
	assert.Contains(t, spec.CLIURL, "issuedby=NYC")
	assert.False(t, spec.WindowStartUTC.IsZero())
}

func TestResolve_Alias(t *testing.T) {
	r := NewResolver()
	spec := r.Resolve("NYC", domain.HighTemp, "2026-02-12")
	assert.Equal(t, "KNYC", spec.StationICAO)
}

func TestResolve_CaseInsensitive(t *testing.T) {
	r := NewResolver()
	spec := r.Resolve("  los angeles ", domain.HighTemp, "2026-02-12")
	assert.Equal(t, "KLAX", spec.StationICAO)
}

func TestResolve_UnknownCity_LowConfidence(t *testing.T) {
	r := NewResolver()
	spec := r.Resolve("Gotham", domain.HighTemp, "2026-02-12")

	assert.Equal(t, domain.ConfidenceLow, spec.Confidence)
	assert.Empty(t, spec.StationICAO)
	require.NotEmpty(t, spec.RiskNotes)
	assert.Contains(t, spec.RiskNotes[0], "Gotham")
}

func TestDayWindowUTC_WinterEastern(t *testing.T) {
	start, end, err := DayWindowUTC("2026-02-12", "America/New_York")
	require.NoError(t, err)

	// EST is UTC-5: local midnight = 05:00Z.
	assert.Equal(t, time.Date(2026, 2, 12, 5, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestDayWindowUTC_DSTInvariant(t *testing.T) {
	// July is EDT (UTC-4) on the wall clock, but the climate day stays
	// anchored to standard time: still a 05:00Z start.
	start, _, err := DayWindowUTC("2026-07-15", "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, 5, start.Hour())
}

func TestDayWindowUTC_Phoenix(t *testing.T) {
	// MST year-round, UTC-7.
	start, _, err := DayWindowUTC("2026-07-15", "America/Phoenix")
	require.NoError(t, err)
	assert.Equal(t, 7, start.Hour())
}

func TestDayWindowUTC_BadDate(t *testing.T) {
	_, _, err := DayWindowUTC("not-a-date", "America/New_York")
	assert.Error(t, err)
}

func TestLookupStation_MedConfidence(t *testing.T) {
	st, ok := LookupStation("Washington")
	require.True(t, ok)
	assert.Equal(t, domain.ConfidenceMed, st.Confidence)
}
