// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NA is shown in place of undefined values.
const NA = "n/a"

// FormatCost formats a USD amount. NaN yields "n/a".
func FormatCost(cost float64) string {
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return NA
	}
	if cost < 0 {
		return "-" + FormatCost(-cost)
	}
	if cost >= 1000 {
		return "$" + FormatNumber(int64(math.Round(cost)))
	}
	if cost >= 100 {
		return fmt.Sprintf("$%.0f", cost)
	}
	if cost >= 10 {
		return fmt.Sprintf("$%.1f", cost)
	}
	return fmt.Sprintf("$%.2f", cost)
}

// FormatMinutes formats a duration given in minutes.
// e.g., 45 -> "45m", 90 -> "1h 30m", 1440 -> "24h"
func FormatMinutes(mins float64) string {
	if math.IsNaN(mins) || math.IsInf(mins, 0) {
		return NA
	}
	if mins < 0 {
		return "-" + FormatMinutes(-mins)
	}

	total := int64(math.Round(mins))
	hours := total / 60
	rest := total % 60

	switch {
	case hours == 0:
		return fmt.Sprintf("%dm", rest)
	case rest == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh %dm", hours, rest)
	}
}

// FormatHours formats a fractional hour count with two decimals.
func FormatHours(h float64) string {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return NA
	}
	return fmt.Sprintf("%.2fh", h)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatCount formats an int with comma separators.
func FormatCount(n int) string {
	return FormatNumber(int64(n))
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NA
	}
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatRatio formats a ratio rounded to two decimals.
func FormatRatio(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NA
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// FormatFloat formats a value with the given number of decimals.
func FormatFloat(f float64, decimals int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NA
	}
	return strconv.FormatFloat(f, 'f', decimals, 64)
}
