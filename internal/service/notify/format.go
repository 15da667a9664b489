package notify

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// FormatHours renders an hour budget as human text: sub-hour values in
// minutes, under a day in hours, a day and more as days plus hours.
//
//	0.5 -> "30 хвилин"
//	1   -> "1 година"
//	5   -> "5 годин"
//	25  -> "1 день 1 година"
func FormatHours(hours float64) string {
	totalMinutes := int(math.Round(hours * 60))
	if totalMinutes < 1 {
		totalMinutes = 1
	}

	if totalMinutes < 60 {
		return fmt.Sprintf("%d %s", totalMinutes, PluralizeMinutes(totalMinutes))
	}

	wholeHours := totalMinutes / 60
	minutes := totalMinutes % 60

	if wholeHours < 24 {
		parts := []string{fmt.Sprintf("%d %s", wholeHours, PluralizeHours(wholeHours))}
		if minutes > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", minutes, PluralizeMinutes(minutes)))
		}
		return strings.Join(parts, " ")
	}

	days := wholeHours / 24
	remHours := wholeHours % 24
	parts := []string{fmt.Sprintf("%d %s", days, PluralizeDays(days))}
	if remHours > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", remHours, PluralizeHours(remHours)))
	}
	return strings.Join(parts, " ")
}

// FormatDeadline renders an absolute deadline for messages.
func FormatDeadline(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}
