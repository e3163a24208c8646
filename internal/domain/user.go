package domain

import "time"

// User represents per-chat pillbox settings.
type User struct {
	ChatID    int64
	TZ        string    // default zone offered when composing a rule
	CreatedAt time.Time // UTC
}

// Medication is a pillbox entry with its reminder rules.
type Medication struct {
	ID                int64
	ChatID            int64
	Name              string
	Purpose           string
	DosageNotes       string
	StockCount        int
	LowStockThreshold int
	CreatedAt         time.Time // UTC
	Rules             []Rule
}

// LowStock reports whether the remaining stock is at or below the alert threshold.
func (m *Medication) LowStock() bool {
	return m.StockCount <= m.LowStockThreshold
}

// Rule is a recurring reminder: a time of day on selected weekdays in one zone.
// DaysOfWeek keeps the persisted text ("daily" or "mon,wed,fri") so it
// round-trips through the store unchanged.
type Rule struct {
	ID           int64
	MedicationID int64
	TimeOfDay    TimeOfDay
	DaysOfWeek   string
	TZ           string
	Enabled      bool
}

// Next resolves the rule's next occurrence strictly after now.
func (r Rule) Next(now time.Time) (Occurrence, bool) {
	return NextOccurrence(r.TimeOfDay, r.TZ, r.DaysOfWeek, now)
}
