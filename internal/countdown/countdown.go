// Package countdown turns a pillbox snapshot into a time-ordered list of upcoming doses.
package countdown

import (
	"cmp"
	"slices"
	"time"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/domain"
)

// Snapshot is an immutable view of the pillbox. It is replaced wholesale, never edited.
type Snapshot []domain.Medication

// Entry is one upcoming dose.
type Entry struct {
	Medication string
	RuleID     int64
	TimeOfDay  domain.TimeOfDay
	Occurrence domain.Occurrence
	Remaining  time.Duration
}

// Compute resolves every enabled rule in snap against now and returns the
// entries ordered by time remaining. Ties are broken by medication name, then
// rule ID. Rules that never fire are left out.
func Compute(snap Snapshot, now time.Time) []Entry {
	var out []Entry
	for _, med := range snap {
		for _, r := range med.Rules {
			if !r.Enabled {
				continue
			}
			occ, ok := r.Next(now)
			if !ok {
				continue
			}
			out = append(out, Entry{
				Medication: med.Name,
				RuleID:     r.ID,
				TimeOfDay:  r.TimeOfDay,
				Occurrence: occ,
				Remaining:  occ.At.Sub(now),
			})
		}
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return cmp.Or(
			cmp.Compare(a.Remaining, b.Remaining),
			cmp.Compare(a.Medication, b.Medication),
			cmp.Compare(a.RuleID, b.RuleID),
		)
	})
	return out
}
