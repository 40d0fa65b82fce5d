// Package rules implements the settlement resolver: it maps a market's city
// and bracket type to a canonical weather station, a settlement day window in
// the station's local standard time, and a mapping confidence level.
package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmorales/wxslate/internal/domain"
)

const cliURLTemplate = "https://forecast.weather.gov/product.php?site=NWS&product=CLI&issuedby=%s"

// Resolver derives SettlementSpecs from the static station table.
// Pure function of reference data; safe for concurrent use.
type Resolver struct{}

// NewResolver creates a Resolver.
func NewResolver() *Resolver { return &Resolver{} }

// Resolve builds the SettlementSpec for a city, market type and target date.
// An unmapped city yields a LOW-confidence spec with explicit risk notes; it
// never returns an error — gate 1 downstream handles the rejection.
func (r *Resolver) Resolve(city string, mt domain.MarketType, targetDate string) domain.SettlementSpec {
	st, ok := LookupStation(city)
	if !ok {
		return domain.SettlementSpec{
			City:       city,
			MarketType: mt,
			Confidence: domain.ConfidenceLow,
			RiskNotes: []string{
				fmt.Sprintf("city %q not found in station table — settlement source unknown", city),
			},
		}
	}

	start, end, err := DayWindowUTC(targetDate, st.Timezone)
	notes := append([]string(nil), st.Notes...)
	if err != nil {
		notes = append(notes, fmt.Sprintf("could not compute day window: %v", err))
	}

	return domain.SettlementSpec{
		City:           st.City,
		MarketType:     mt,
		StationICAO:    st.ICAO,
		CLIProduct:     st.CLIProduct,
		CLIURL:         fmt.Sprintf(cliURLTemplate, st.CLIProduct),
		Timezone:       st.Timezone,
		WindowStartUTC: start,
		WindowEndUTC:   end,
		Confidence:     st.Confidence,
		RiskNotes:      notes,
	}
}

// DayWindowUTC returns the settlement day window for a target date as UTC
// instants. The climate day runs midnight to midnight in the station's local
// STANDARD time, so the window is DST-invariant: the standard-time offset is
// taken from January 1st of the target year and applied year-round.
func DayWindowUTC(targetDate, tzName string) (start, end time.Time, err error) {
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("rules.DayWindowUTC: load %q: %w", tzName, err)
	}

	day, err := time.Parse("2006-01-02", targetDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("rules.DayWindowUTC: parse date %q: %w", targetDate, err)
	}

	// Standard offset: observed on Jan 1, when no US zone is on DST.
	jan1 := time.Date(day.Year(), time.January, 1, 12, 0, 0, 0, loc)
	_, stdOffset := jan1.Zone()
	std := time.FixedZone(tzName+" LST", stdOffset)

	start = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, std).UTC()
	end = start.Add(24 * time.Hour)
	return start, end, nil
}

// StationTimezone returns the IANA timezone for a city, or "" if unmapped.
func StationTimezone(city string) string {
	st, ok := LookupStation(city)
	if !ok {
		return ""
	}
	return st.Timezone
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
