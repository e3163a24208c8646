package domain

import (
	"testing"
	"time"
)

func TestOffsetHours(t *testing.T) {
	tests := []struct {
		tz   string
		date time.Time
		want int
	}{
		{"UTC", time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), 0},
		{"Asia/Tokyo", time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), 9},
		{"America/New_York", time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), -5},
		{"America/New_York", time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC), -4},
		// Switch days report the offset in force at noon.
		{"America/New_York", time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), -4},
		{"America/New_York", time.Date(2024, time.November, 3, 0, 0, 0, 0, time.UTC), -5},
		{"Asia/Kolkata", time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), 5},
		{"Not/AZone", time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), 0},
		{"", time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), 0},
		{"Local", time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tt := range tests {
		y, m, d := tt.date.Date()
		if got := OffsetHours(tt.tz, y, m, d); got != tt.want {
			t.Errorf("%s %s: want %d, got %d", tt.tz, tt.date.Format("2006-01-02"), tt.want, got)
		}
	}
}

func TestOffset_KeepsMinutes(t *testing.T) {
	if got := Offset("Asia/Kolkata", 2024, time.June, 1); got != 5*time.Hour+30*time.Minute {
		t.Fatalf("want 5h30m, got %s", got)
	}
	if got := Offset("America/St_Johns", 2024, time.January, 10); got != -(3*time.Hour + 30*time.Minute) {
		t.Fatalf("want -3h30m, got %s", got)
	}
}

func TestLoadLocation_CachesUnknownZones(t *testing.T) {
	if _, ok := loadLocation("Nope/Nowhere"); ok {
		t.Fatalf("unknown zone must not load")
	}
	if _, ok := loadLocation("Nope/Nowhere"); ok {
		t.Fatalf("cached unknown zone must not load")
	}
	if loc := locationOrUTC("Nope/Nowhere"); loc != time.UTC {
		t.Fatalf("unknown zone must fall back to UTC, got %s", loc)
	}
}
