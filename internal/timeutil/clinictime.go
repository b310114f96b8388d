package timeutil

import (
	"time"
)

// ClinicTZ is the timezone all clinic-facing dates are interpreted in.
// Due-date and calendar comparisons are date-only in this zone.
var ClinicTZ *time.Location

func init() {
	var err error
	ClinicTZ, err = time.LoadLocation("Atlantic/Canary")
	if err != nil {
		// Fallback: WET/WEST without DST handling
		ClinicTZ = time.FixedZone("WET", 0)
	}
}

// Now returns the current time in the clinic timezone
func Now() time.Time {
	return time.Now().In(ClinicTZ)
}

// ToClinic converts any time to the clinic timezone
func ToClinic(t time.Time) time.Time {
	return t.In(ClinicTZ)
}

// StartOfDay returns midnight of the given time's day in the clinic timezone
func StartOfDay(t time.Time) time.Time {
	ct := t.In(ClinicTZ)
	return time.Date(ct.Year(), ct.Month(), ct.Day(), 0, 0, 0, 0, ClinicTZ)
}

// EndOfDay returns the last instant of the given time's day in the clinic timezone
func EndOfDay(t time.Time) time.Time {
	ct := t.In(ClinicTZ)
	return time.Date(ct.Year(), ct.Month(), ct.Day(), 23, 59, 59, 999999999, ClinicTZ)
}

// ParseDate parses a YYYY-MM-DD string in the clinic timezone
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, ClinicTZ)
}

// Common layouts
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02 Jan 2006, 03:04 PM"
)
