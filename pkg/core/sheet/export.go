package sheet

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"statement_insight/pkg/core/format"
	"statement_insight/pkg/core/narrative"
	"statement_insight/pkg/models"
)

// ExportSheetName is the single sheet written by Export.
const ExportSheetName = "Analysis"

// Built-in excelize number formats.
const (
	numFmtThousands = 3 // #,##0
	numFmtTwoDec    = 2 // 0.00
)

// Export writes the derived table as a single-sheet workbook.
func Export(table *models.FinancialTable, labels narrative.Labels, w io.Writer) error {
	if table == nil {
		return fmt.Errorf("export: nil table")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtThousands})
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}
	pctStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtTwoDec})
	if err != nil {
		return fmt.Errorf("percent style: %w", err)
	}

	header := []interface{}{labels.Item, labels.Prior, labels.Current, labels.Growth, labels.PriorShare, labels.CurrentShare}
	if err := f.SetSheetRow(ExportSheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(ExportSheetName, "A1", "F1", headerStyle); err != nil {
		return err
	}

	for i, r := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{r.Label, r.Prior, r.Current, cellNumber(r.GrowthPct), cellNumber(r.PriorSharePct), cellNumber(r.CurrentSharePct)}
		if err := f.SetSheetRow(ExportSheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if last := len(table.Rows) + 1; last > 1 {
		if err := f.SetCellStyle(ExportSheetName, "B2", fmt.Sprintf("C%d", last), amountStyle); err != nil {
			return err
		}
		if err := f.SetCellStyle(ExportSheetName, "D2", fmt.Sprintf("F%d", last), pctStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(ExportSheetName, "A", "A", 48); err != nil {
		return err
	}
	if err := f.SetColWidth(ExportSheetName, "B", "F", 20); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// cellNumber keeps non-finite values readable; xlsx has no encoding for them.
func cellNumber(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return format.Percent(v)
	}
	return v
}
