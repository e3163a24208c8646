package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidTime = errors.New("invalid time of day")
	ErrInvalidDays = errors.New("invalid days of week")
	ErrNoDays      = errors.New("no days selected")
	ErrInvalidTZ   = errors.New("invalid timezone")
)

// Daily is the persisted sentinel for "every day of the week".
const Daily = "daily"

// dayNames is indexed by time.Weekday.
var dayNames = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// TimeOfDay is a wall-clock time within a day.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// String returns HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// ParseTimeOfDay parses the persisted "HH:MM" form (two digits each, 24h).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if len(s) != 5 || s[2] != ':' {
		return TimeOfDay{}, fmt.Errorf("%w: expected HH:MM, got %q", ErrInvalidTime, s)
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("%w: invalid hour in %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: invalid minute in %q", ErrInvalidTime, s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// Weekdays is a set of weekdays; bit i is time.Weekday(i).
type Weekdays uint8

// AllDays selects every weekday.
const AllDays Weekdays = 1<<7 - 1

// Has reports whether d is selected.
func (w Weekdays) Has(d time.Weekday) bool {
	return w&(1<<uint(d)) != 0
}

// With returns the set with d added.
func (w Weekdays) With(d time.Weekday) Weekdays {
	return w | 1<<uint(d)
}

// Len returns the number of selected days.
func (w Weekdays) Len() int {
	n := 0
	for d := time.Sunday; d <= time.Saturday; d++ {
		if w.Has(d) {
			n++
		}
	}
	return n
}

// ParseDays expands the persisted days_of_week text. "daily" selects every day;
// otherwise each comma-separated token is matched on its first three letters and
// unknown tokens are ignored. The result may be empty.
func ParseDays(s string) Weekdays {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == Daily {
		return AllDays
	}
	var w Weekdays
	for _, tok := range strings.Split(s, ",") {
		if d, ok := weekdayFromToken(tok); ok {
			w = w.With(d)
		}
	}
	return w
}

func weekdayFromToken(tok string) (time.Weekday, bool) {
	tok = strings.TrimSpace(strings.ToLower(tok))
	if len(tok) > 3 {
		tok = tok[:3]
	}
	for i, name := range dayNames {
		if tok == name {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// FormatDays renders a set in the persisted form: "daily" when all seven days are
// selected, else the lowercase names joined by commas.
func FormatDays(w Weekdays) string {
	if w&AllDays == AllDays {
		return Daily
	}
	names := make([]string, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if w.Has(d) {
			names = append(names, dayNames[d])
		}
	}
	return strings.Join(names, ",")
}

// NormalizeDays validates user input and returns its persisted form.
// Unlike ParseDays it rejects unknown tokens and empty selections.
func NormalizeDays(s string) (string, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == Daily {
		return Daily, nil
	}
	var w Weekdays
	for _, tok := range strings.Split(s, ",") {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		d, ok := weekdayFromToken(tok)
		if !ok {
			return "", fmt.Errorf("%w: unknown day %q", ErrInvalidDays, strings.TrimSpace(tok))
		}
		w = w.With(d)
	}
	if w == 0 {
		return "", ErrNoDays
	}
	return FormatDays(w), nil
}

// ValidateTZ checks that the tz is a valid IANA location.
func ValidateTZ(tz string) (string, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTZ)
	}
	loc, ok := loadLocation(tz)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidTZ, tz)
	}
	return loc.String(), nil
}

// NewRule validates the composed fields and returns an enabled rule in persisted form.
func NewRule(medID int64, tod, days, tz string) (Rule, error) {
	t, err := ParseTimeOfDay(tod)
	if err != nil {
		return Rule{}, err
	}
	d, err := NormalizeDays(days)
	if err != nil {
		return Rule{}, err
	}
	z, err := ValidateTZ(tz)
	if err != nil {
		return Rule{}, err
	}
	return Rule{MedicationID: medID, TimeOfDay: t, DaysOfWeek: d, TZ: z, Enabled: true}, nil
}

// CronSpec renders the rule as a standard five-field cron line with a CRON_TZ prefix.
func (r Rule) CronSpec() string {
	dow := "*"
	w := ParseDays(r.DaysOfWeek)
	if w&AllDays != AllDays {
		nums := make([]string, 0, 7)
		for d := time.Sunday; d <= time.Saturday; d++ {
			if w.Has(d) {
				nums = append(nums, strconv.Itoa(int(d)))
			}
		}
		dow = strings.Join(nums, ",")
	}
	return fmt.Sprintf("CRON_TZ=%s %d %d * * %s", r.TZ, r.TimeOfDay.Minute, r.TimeOfDay.Hour, dow)
}
