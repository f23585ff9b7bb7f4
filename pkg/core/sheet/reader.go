// Package sheet reads uploaded statements from .xlsx workbooks and writes the
// derived table back out.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"statement_insight/pkg/core/calc"
	"statement_insight/pkg/models"
)

// ExpectedColumns is the positional layout: label, prior value, current value.
const ExpectedColumns = 3

var (
	// ErrEmptySheet means the first sheet has no header or no data rows.
	ErrEmptySheet = errors.New("sheet has no data rows")
	// ErrUnreadable wraps workbook decoding failures.
	ErrUnreadable = errors.New("file is not a readable xlsx workbook")
)

// ColumnCountError reports a sheet that is not three columns wide.
type ColumnCountError struct {
	Got int
}

func (e *ColumnCountError) Error() string {
	return fmt.Sprintf("expected %d columns (label, prior, current), found %d", ExpectedColumns, e.Got)
}

// ReadRows returns the raw cell text of the first sheet, header dropped and
// fully blank rows skipped. Cell values are unformatted so numbers parse cleanly.
func ReadRows(r io.Reader) (header []string, rows [][]string, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrEmptySheet
	}

	all, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	first := -1
	for i, row := range all {
		if !isBlank(row) {
			first = i
			break
		}
	}
	if first < 0 {
		return nil, nil, ErrEmptySheet
	}

	header = all[first]
	for _, row := range all[first+1:] {
		if isBlank(row) {
			continue
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// ReadStatement parses the first sheet into coerced FinancialRows.
func ReadStatement(r io.Reader) ([]models.FinancialRow, error) {
	header, raw, err := ReadRows(r)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrEmptySheet
	}
	if width := sheetWidth(header, raw); width != ExpectedColumns {
		return nil, &ColumnCountError{Got: width}
	}

	rows := make([]models.FinancialRow, 0, len(raw))
	for _, cells := range raw {
		rows = append(rows, calc.CoerceRow(toAny(cells)))
	}
	return rows, nil
}

// sheetWidth is the widest of the header and data rows. Header names are
// ignored, so a blank header cell over a filled data column still counts.
func sheetWidth(header []string, rows [][]string) int {
	width := len(trimTrailing(header))
	for _, row := range rows {
		if n := len(trimTrailing(row)); n > width {
			width = n
		}
	}
	return width
}

func toAny(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimTrailing(row []string) []string {
	n := len(row)
	for n > 0 && strings.TrimSpace(row[n-1]) == "" {
		n--
	}
	return row[:n]
}
