// Package format renders derived statement figures for display.
package format

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// NotAvailable is shown in place of a figure that could not be computed.
const NotAvailable = "N/A"

// Amount renders a raw statement value rounded to a whole number with
// thousands separators (1234567.8 -> "1,234,568").
func Amount(v float64) string {
	if s, ok := nonFinite(v); ok {
		return s
	}
	r := math.RoundToEven(v)
	if r == 0 {
		// Avoid "-0" for small negatives.
		r = 0
	}
	return humanize.Commaf(r)
}

// Percent renders a derived percentage with two decimals ("50.00%").
func Percent(v float64) string {
	if s, ok := nonFinite(v); ok {
		return s
	}
	return fmt.Sprintf("%.2f%%", v)
}

// Ratio renders a liquidity ratio with two decimals, or N/A when absent.
func Ratio(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	if s, ok := nonFinite(*v); ok {
		return s
	}
	return fmt.Sprintf("%.2f", *v)
}

// SignedRatio renders a ratio change with an explicit sign ("+0.25").
func SignedRatio(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	if s, ok := nonFinite(*v); ok {
		return s
	}
	return fmt.Sprintf("%+.2f", *v)
}

// Raw renders a value at full precision, as handed to the language model.
func Raw(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func nonFinite(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "NaN", true
	case math.IsInf(v, 1):
		return "∞", true
	case math.IsInf(v, -1):
		return "-∞", true
	}
	return "", false
}
