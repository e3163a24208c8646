package domain

import (
	"fmt"
	"time"
)

// Occurrence is a resolved firing of a rule.
type Occurrence struct {
	At    time.Time // UTC
	Label string    // "YYYY-MM-DD HH:MM (ABBR)"
}

// scanDays covers today plus a full week, so every selected weekday is reached.
const scanDays = 8

// NextOccurrence computes the next time a rule fires strictly after now.
// Day selection follows the calendar in tz, not the caller's. A firing in the
// current minute counts as already passed. The wall time is converted to UTC
// with the zone's noon offset for that date, so a rule set inside the hour a DST
// switch moves may land one hour off. Returns false when days selects nothing.
func NextOccurrence(tod TimeOfDay, tz, days string, now time.Time) (Occurrence, bool) {
	selected := ParseDays(days)
	if selected == 0 {
		return Occurrence{}, false
	}

	loc := locationOrUTC(tz)
	localNow := now.In(loc)
	y, m, d := localNow.Date()
	curH, curM := localNow.Hour(), localNow.Minute()

	for off := 0; off < scanDays; off++ {
		// Calendar arithmetic only; UTC avoids any zone rules while stepping days.
		date := time.Date(y, m, d+off, 0, 0, 0, 0, time.UTC)
		if !selected.Has(date.Weekday()) {
			continue
		}
		if off == 0 && !(tod.Hour > curH || (tod.Hour == curH && curM < tod.Minute)) {
			continue
		}
		dy, dm, dd := date.Date()
		wall := time.Date(dy, dm, dd, tod.Hour, tod.Minute, 0, 0, time.UTC)
		at := wall.Add(-Offset(tz, dy, dm, dd))
		return Occurrence{At: at, Label: occurrenceLabel(wall, at, tz)}, true
	}
	return Occurrence{}, false
}

func occurrenceLabel(wall, at time.Time, tz string) string {
	abbr := tz
	if loc, ok := loadLocation(tz); ok {
		if name, _ := at.In(loc).Zone(); name != "" {
			abbr = name
		}
	}
	return fmt.Sprintf("%s (%s)", wall.Format("2006-01-02 15:04"), abbr)
}

// MatchesNow reports whether the rule's zone-local minute and weekday equal now's.
func MatchesNow(r Rule, now time.Time) bool {
	local := now.In(locationOrUTC(r.TZ))
	return local.Hour() == r.TimeOfDay.Hour &&
		local.Minute() == r.TimeOfDay.Minute &&
		ParseDays(r.DaysOfWeek).Has(local.Weekday())
}
