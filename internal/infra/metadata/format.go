package metadata

import (
	"fmt"
	"math"
	"time"
)

// FormatTime renders seconds as "mm:ss". Minutes are not wrapped into hours;
// non-positive and non-finite values render as "00:00".
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return "00:00"
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatDuration renders d as "mm:ss".
func FormatDuration(d time.Duration) string {
	return FormatTime(d.Seconds())
}
