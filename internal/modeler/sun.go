package modeler

import (
	"math"
	"time"
)

// Typical peak temperature hour, local time. Daily highs land between 2 and
// 5 PM; 3 PM is the anchor the lock-in gate buffers from.
const peakHour = 15

// sunriseEstimate computes an approximate sunrise instant for a coordinate on
// a given date using the standard solar declination / hour-angle formula.
// Accuracy is within a few minutes, which is plenty for a two-hour buffer.
// Returns false inside polar day/night where no sunrise occurs.
func sunriseEstimate(lat, lon float64, date time.Time, loc *time.Location) (time.Time, bool) {
	n := float64(date.YearDay())

	decl := -23.44 * math.Cos(2*math.Pi/365.0*(n+10)) // solar declination, degrees
	latR := lat * math.Pi / 180
	declR := decl * math.Pi / 180

	cosH := -math.Tan(latR) * math.Tan(declR)
	if cosH < -1 || cosH > 1 {
		return time.Time{}, false
	}
	hourAngle := math.Acos(cosH) * 180 / math.Pi // degrees

	// Solar noon in UTC hours, then back off by the hour angle.
	solarNoonUTC := 12 - lon/15
	sunriseUTC := solarNoonUTC - hourAngle/15

	base := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	t := base.Add(time.Duration(sunriseUTC * float64(time.Hour)))
	return t.In(loc), true
}

// peakEstimate returns the typical daily-high time for a date in a location.
func peakEstimate(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), peakHour, 0, 0, 0, loc)
}
