package util

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatRupees renders an amount as Rs.1,234,567 with no decimals.
func FormatRupees(v float64) string {
	return "Rs." + printer.Sprintf("%.0f", v)
}

// FormatCount renders an integer with thousands separators.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatPercent renders a percentage with one decimal place.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// Percent returns part as a percentage of whole, or 0 when whole is zero.
func Percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
