package countdown

import (
	"testing"
	"time"
)

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{-5 * time.Second, DueNow},
		{0, DueNow},
		{500 * time.Millisecond, "0m 0s"},
		{30 * time.Second, "0m 30s"},
		{90 * time.Second, "1m 30s"},
		{time.Hour, "1h 0m 0s"},
		{3*time.Hour + 4*time.Minute + 5*time.Second, "3h 4m 5s"},
		{24 * time.Hour, "1d 0h 0m 0s"},
		{2*24*time.Hour + 5*time.Second, "2d 0h 0m 5s"},
		{6*24*time.Hour + 23*time.Hour + 59*time.Minute + 59*time.Second, "6d 23h 59m 59s"},
	}
	for _, tt := range tests {
		if got := FormatRemaining(tt.d); got != tt.want {
			t.Errorf("%s: want %q, got %q", tt.d, tt.want, got)
		}
	}
}
