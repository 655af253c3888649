package fill

import (
	"fmt"
	"math"
	"strings"
)

// Round2 rounds a value to exactly two decimal places. User-facing
// utilization values always pass through here; internal comparisons
// never do, so a true 80.004% is still above an 80% threshold even
// though it displays as 80.00%.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// Format2 renders a value rounded to two decimals with trailing zeros
// trimmed ("35.00" -> "35", "12.50" -> "12.5").
func Format2(value float64) string {
	text := fmt.Sprintf("%.2f", Round2(value))
	text = strings.TrimRight(text, "0")
	text = strings.TrimRight(text, ".")
	if text == "" || text == "-" {
		return "0"
	}
	return text
}

// FormatPercent renders a percentage for display.
func FormatPercent(value float64) string {
	return Format2(value) + " %"
}
