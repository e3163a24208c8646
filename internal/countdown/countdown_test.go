package countdown

import (
	"testing"
	"time"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/domain"
)

func rule(id int64, h, m int, days, tz string, enabled bool) domain.Rule {
	return domain.Rule{ID: id, TimeOfDay: domain.TimeOfDay{Hour: h, Minute: m}, DaysOfWeek: days, TZ: tz, Enabled: enabled}
}

func TestCompute_SortsByRemaining(t *testing.T) {
	now := time.Date(2024, time.January, 1, 8, 58, 30, 0, time.UTC)
	snap := Snapshot{
		{Name: "Ibuprofen", Rules: []domain.Rule{rule(1, 9, 0, "daily", "UTC", true)}},  // 90s
		{Name: "Vitamin D", Rules: []domain.Rule{rule(2, 8, 59, "daily", "UTC", true)}}, // 30s
		{Name: "Metformin", Rules: []domain.Rule{rule(3, 20, 0, "daily", "UTC", true)}}, // 11h
		{Name: "Aspirin", Rules: []domain.Rule{rule(4, 7, 0, "daily", "UTC", false)}},   // disabled
		{Name: "Broken", Rules: []domain.Rule{rule(5, 7, 0, "", "UTC", true)}},          // no days
		{Name: "Empty"},
	}

	got := Compute(snap, now)
	if len(got) != 3 {
		t.Fatalf("want 3 entries, got %d: %+v", len(got), got)
	}
	want := []struct {
		name string
		rem  time.Duration
	}{
		{"Vitamin D", 30 * time.Second},
		{"Ibuprofen", 90 * time.Second},
		{"Metformin", 11*time.Hour + time.Minute + 30*time.Second},
	}
	for i, w := range want {
		if got[i].Medication != w.name || got[i].Remaining != w.rem {
			t.Errorf("entry %d: want %s/%s, got %s/%s", i, w.name, w.rem, got[i].Medication, got[i].Remaining)
		}
	}
}

func TestCompute_AfterFirstFiresItMovesToTomorrow(t *testing.T) {
	snap := Snapshot{
		{Name: "Ibuprofen", Rules: []domain.Rule{rule(1, 9, 0, "daily", "UTC", true)}},
		{Name: "Vitamin D", Rules: []domain.Rule{rule(2, 8, 59, "daily", "UTC", true)}},
	}
	now := time.Date(2024, time.January, 1, 8, 58, 30, 0, time.UTC)
	first := Compute(snap, now)
	if first[0].Medication != "Vitamin D" {
		t.Fatalf("want Vitamin D first, got %s", first[0].Medication)
	}

	later := Compute(snap, now.Add(31*time.Second)) // 08:59:01
	if len(later) != 2 {
		t.Fatalf("want 2 entries, got %d", len(later))
	}
	if later[0].Medication != "Ibuprofen" || later[0].Remaining != 59*time.Second {
		t.Fatalf("want Ibuprofen in 59s first, got %s in %s", later[0].Medication, later[0].Remaining)
	}
	wantNext := time.Date(2024, time.January, 2, 8, 59, 0, 0, time.UTC)
	if later[1].Medication != "Vitamin D" || !later[1].Occurrence.At.Equal(wantNext) {
		t.Fatalf("want Vitamin D re-resolved to %s, got %+v", wantNext, later[1])
	}
}

func TestCompute_TieBreak(t *testing.T) {
	now := time.Date(2024, time.January, 1, 6, 0, 0, 0, time.UTC)
	snap := Snapshot{
		{Name: "Zinc", Rules: []domain.Rule{rule(9, 8, 0, "daily", "UTC", true)}},
		{Name: "Amoxicillin", Rules: []domain.Rule{
			rule(7, 8, 0, "daily", "UTC", true),
			rule(3, 8, 0, "daily", "UTC", true),
		}},
		// Same instant expressed in another zone.
		{Name: "Biotin", Rules: []domain.Rule{rule(1, 17, 0, "daily", "Asia/Tokyo", true)}},
	}
	got := Compute(snap, now)
	order := []struct {
		name string
		id   int64
	}{{"Amoxicillin", 3}, {"Amoxicillin", 7}, {"Biotin", 1}, {"Zinc", 9}}
	if len(got) != len(order) {
		t.Fatalf("want %d entries, got %d", len(order), len(got))
	}
	for i, o := range order {
		if got[i].Medication != o.name || got[i].RuleID != o.id {
			t.Errorf("position %d: want %s#%d, got %s#%d", i, o.name, o.id, got[i].Medication, got[i].RuleID)
		}
	}
}

func TestCompute_AlwaysSorted(t *testing.T) {
	zones := []string{"UTC", "Asia/Tokyo", "America/New_York", "Europe/Berlin", "Australia/Sydney"}
	days := []string{"daily", "mon", "tue,thu", "sat,sun", "fri"}
	var snap Snapshot
	id := int64(0)
	for i, z := range zones {
		med := domain.Medication{Name: z}
		for j, d := range days {
			id++
			med.Rules = append(med.Rules, rule(id, (i*5+j*3)%24, (i*17+j*11)%60, d, z, true))
		}
		snap = append(snap, med)
	}

	start := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	for step := 0; step < 100; step++ {
		now := start.Add(time.Duration(step) * 173 * time.Minute)
		got := Compute(snap, now)
		if len(got) != len(zones)*len(days) {
			t.Fatalf("want %d entries, got %d", len(zones)*len(days), len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i].Remaining < got[i-1].Remaining {
				t.Fatalf("at %s entries %d and %d out of order: %s > %s", now, i-1, i, got[i-1].Remaining, got[i].Remaining)
			}
		}
	}
}

func TestCompute_EmptySnapshot(t *testing.T) {
	if got := Compute(nil, time.Now()); len(got) != 0 {
		t.Fatalf("want no entries, got %d", len(got))
	}
}
