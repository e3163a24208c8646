package domain

import (
	"sync"
	"time"

	// Embedded zoneinfo so rules resolve on hosts without a system tz database.
	_ "time/tzdata"
)

var locations sync.Map // zone name -> *time.Location; nil value marks an unknown zone

// loadLocation returns the zone for tz, or false if it is not a known IANA name.
// "Local" is refused: it names the host's zone, not one stored with the rule.
func loadLocation(tz string) (*time.Location, bool) {
	if v, ok := locations.Load(tz); ok {
		loc, _ := v.(*time.Location)
		return loc, loc != nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil || tz == "" || tz == "Local" {
		locations.Store(tz, (*time.Location)(nil))
		return nil, false
	}
	locations.Store(tz, loc)
	return loc, true
}

// locationOrUTC mirrors the soft failure used everywhere in scheduling: unknown zones act as UTC.
func locationOrUTC(tz string) *time.Location {
	if loc, ok := loadLocation(tz); ok {
		return loc
	}
	return time.UTC
}

// Offset returns tz's UTC offset on the given date, sampled at local noon so the
// result never lands in the missing or repeated hour of a midnight-adjacent
// DST switch. Unknown zones report 0.
func Offset(tz string, year int, month time.Month, day int) time.Duration {
	loc, ok := loadLocation(tz)
	if !ok {
		return 0
	}
	_, secs := time.Date(year, month, day, 12, 0, 0, 0, loc).Zone()
	return time.Duration(secs) * time.Second
}

// OffsetHours is Offset in whole hours, truncated toward zero.
func OffsetHours(tz string, year int, month time.Month, day int) int {
	return int(Offset(tz, year, month, day) / time.Hour)
}
