package countdown

import (
	"fmt"
	"time"
)

// DueNow is shown once the remaining time reaches zero.
const DueNow = "due now"

// FormatRemaining renders d as "1d 2h 3m 4s". Leading days and hours are dropped
// while zero; minutes and seconds are always present. Fractions of a second are truncated.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return DueNow
	}
	secs := int64(d / time.Second)
	days := secs / 86400
	hours := secs % 86400 / 3600
	mins := secs % 3600 / 60
	secs %= 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, mins, secs)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, mins, secs)
	default:
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
}
