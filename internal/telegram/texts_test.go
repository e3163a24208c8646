package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/countdown"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/domain"
)

func TestCountdownText(t *testing.T) {
	if got := countdownText(nil); got != noDosesText {
		t.Fatalf("empty countdown: got %q", got)
	}

	entries := []countdown.Entry{
		{Medication: "Vitamin D", Remaining: 0, Occurrence: domain.Occurrence{Label: "2024-01-01 09:00 (UTC)"}},
		{Medication: "Ibuprofen", Remaining: 90 * time.Minute, Occurrence: domain.Occurrence{Label: "2024-01-01 10:30 (UTC)"}},
	}
	got := countdownText(entries)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("want header and 2 lines, got %q", got)
	}
	if lines[1] != "• Vitamin D - due now (2024-01-01 09:00 (UTC))" {
		t.Errorf("line 1: %q", lines[1])
	}
	if lines[2] != "• Ibuprofen - 1h 30m 0s (2024-01-01 10:30 (UTC))" {
		t.Errorf("line 2: %q", lines[2])
	}
}

func TestMedicationText(t *testing.T) {
	m := &domain.Medication{
		Name:              "Metformin",
		Purpose:           "blood sugar",
		StockCount:        4,
		LowStockThreshold: 5,
		Rules: []domain.Rule{
			{TimeOfDay: domain.TimeOfDay{Hour: 8}, DaysOfWeek: "daily", TZ: "America/New_York", Enabled: true},
			{TimeOfDay: domain.TimeOfDay{Hour: 20, Minute: 30}, DaysOfWeek: "mon,wed,fri", TZ: "UTC", Enabled: false},
		},
	}
	got := medicationText(m)
	for _, want := range []string{
		"💊 Metformin - blood sugar",
		"Stock: 4 ⚠️ low",
		"⏰ 08:00 daily (America/New_York)",
		"⏰ 20:30 mon,wed,fri (UTC) ⏸",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}

	m.StockCount = 6
	if strings.Contains(medicationText(m), "low") {
		t.Errorf("stock above threshold flagged low")
	}
}

func TestPreviewText(t *testing.T) {
	now := time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)
	r := domain.Rule{TimeOfDay: domain.TimeOfDay{Hour: 9}, DaysOfWeek: "daily", TZ: "UTC", Enabled: true}
	occ, ok := r.Next(now)
	if !ok {
		t.Fatal("daily rule must resolve")
	}
	got := previewText(r, occ, ok, now)
	if !strings.Contains(got, "Next dose: 2024-01-01 09:00 (UTC)") || !strings.Contains(got, "In: 1h 0m 0s") {
		t.Errorf("unexpected preview %q", got)
	}

	if got := previewText(r, domain.Occurrence{}, false, now); !strings.Contains(got, "never fires") {
		t.Errorf("unexpected none preview %q", got)
	}
}

func TestTZPresetsKeyboard_CurrentFirstNoDuplicates(t *testing.T) {
	kb := tzPresetsKeyboard("ruletz:", "Asia/Tokyo")
	first := kb.InlineKeyboard[0][0]
	if first.Text != "Asia/Tokyo" || first.CallbackData == nil || *first.CallbackData != "ruletz:Asia/Tokyo" {
		t.Fatalf("unexpected first button %+v", first)
	}
	seen := map[string]int{}
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			seen[b.Text]++
		}
	}
	if seen["Asia/Tokyo"] != 1 {
		t.Errorf("current zone listed %d times", seen["Asia/Tokyo"])
	}
	if seen["✍️ Custom…"] != 1 {
		t.Errorf("missing custom button")
	}
}
