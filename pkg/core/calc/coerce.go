package calc

import (
	"math"
	"strconv"
	"strings"

	"statement_insight/pkg/models"
)

// Coerce converts a raw spreadsheet cell into a finite number.
// Empty, unparseable, NaN and infinite input all map to 0; it never fails.
func Coerce(raw any) float64 {
	var v float64
	switch x := raw.(type) {
	case nil:
		return 0
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int8:
		v = float64(x)
	case int16:
		v = float64(x)
	case int32:
		v = float64(x)
	case int64:
		v = float64(x)
	case uint:
		v = float64(x)
	case uint8:
		v = float64(x)
	case uint16:
		v = float64(x)
	case uint32:
		v = float64(x)
	case uint64:
		v = float64(x)
	case bool:
		if x {
			v = 1
		}
	case string:
		v = parseNumber(x)
	case []byte:
		v = parseNumber(string(x))
	default:
		return 0
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// parseNumber accepts plain decimal or scientific notation only.
// Thousands separators ("1,000") are text, not numbers.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// CoerceRow builds a FinancialRow from positional cells (label, prior, current).
// The label is taken verbatim; missing cells count as empty.
func CoerceRow(cells []any) models.FinancialRow {
	row := models.FinancialRow{}
	if len(cells) > 0 && cells[0] != nil {
		row.Label = labelText(cells[0])
	}
	if len(cells) > 1 {
		row.Prior = Coerce(cells[1])
	}
	if len(cells) > 2 {
		row.Current = Coerce(cells[2])
	}
	return row
}

func labelText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}
