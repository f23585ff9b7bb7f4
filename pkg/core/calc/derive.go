package calc

import (
	"errors"
	"fmt"

	"statement_insight/pkg/models"
)

// =============================================================================
// STATEMENT DERIVATION ENGINE
// Horizontal (growth) and vertical (share of total assets) analysis of a
// two-period statement, plus the current ratio.
// =============================================================================

// Epsilon replaces a zero denominator in growth and share calculations so that
// a zero base reads as near-infinite change instead of failing.
const Epsilon = 1e-9

// ErrMissingAnchor is the sentinel wrapped by MissingAnchorError.
var ErrMissingAnchor = errors.New("total assets row not found")

// MissingAnchorError reports that no row matched the total-assets pattern.
// It is fatal for the whole table.
type MissingAnchorError struct {
	Pattern string
}

func (e *MissingAnchorError) Error() string {
	return fmt.Sprintf("no line item matching %q: cannot compute asset composition", e.Pattern)
}

func (e *MissingAnchorError) Unwrap() error {
	return ErrMissingAnchor
}

func guardZero(d float64) float64 {
	if d == 0 {
		return Epsilon
	}
	return d
}

// GrowthPct is the period-over-period change in percent.
// A zero prior value is replaced by Epsilon.
func GrowthPct(prior, current float64) float64 {
	return (current - prior) / guardZero(prior) * 100
}

// SharePct is value as a percentage of the anchor value for the same period.
// A zero anchor is replaced by Epsilon.
func SharePct(value, anchor float64) float64 {
	return value / guardZero(anchor) * 100
}

// DeriveGrowthAndShares computes growth and composition percentages for every row.
// It fails with *MissingAnchorError, and returns no table, when no row matches
// p.TotalAssets. With several matches the first one is the anchor.
func DeriveGrowthAndShares(rows []models.FinancialRow, p Patterns) (*models.FinancialTable, error) {
	coerced := make([]models.FinancialRow, len(rows))
	for i, r := range rows {
		coerced[i] = models.FinancialRow{
			Label:   r.Label,
			Prior:   Coerce(r.Prior),
			Current: Coerce(r.Current),
		}
	}

	anchorIdx, ok := FirstMatch(coerced, p.TotalAssets)
	if !ok {
		return nil, &MissingAnchorError{Pattern: p.TotalAssets}
	}
	anchor := coerced[anchorIdx]

	table := &models.FinancialTable{
		Rows:        make([]models.DerivedRow, len(coerced)),
		AnchorIndex: anchorIdx,
	}
	for i, r := range coerced {
		table.Rows[i] = models.DerivedRow{
			FinancialRow:    r,
			GrowthPct:       GrowthPct(r.Prior, r.Current),
			PriorSharePct:   SharePct(r.Prior, anchor.Prior),
			CurrentSharePct: SharePct(r.Current, anchor.Current),
		}
	}
	return table, nil
}

// DeriveFromRaw coerces positional (label, prior, current) cells and derives the table.
func DeriveFromRaw(raw [][]any, p Patterns) (*models.FinancialTable, error) {
	rows := make([]models.FinancialRow, len(raw))
	for i, cells := range raw {
		rows[i] = CoerceRow(cells)
	}
	return DeriveGrowthAndShares(rows, p)
}

// ComputeLiquidityRatios divides short-term assets by short-term liabilities for
// each period, using the first matching row of each. If either row is missing
// both periods are unavailable; this is not an error.
//
// The division is unguarded: zero liabilities yield ±Inf (or NaN
// for 0/0), unlike the Epsilon-guarded growth and share figures.
func ComputeLiquidityRatios(table *models.FinancialTable, p Patterns) models.LiquidityRatios {
	if table == nil {
		return models.LiquidityRatios{}
	}
	assetsIdx, okAssets := FirstMatch(table.Rows, p.ShortTermAssets)
	liabIdx, okLiab := FirstMatch(table.Rows, p.ShortTermLiabilities)
	if !okAssets || !okLiab {
		return models.LiquidityRatios{}
	}

	assets := table.Rows[assetsIdx]
	liab := table.Rows[liabIdx]
	prior := assets.Prior / liab.Prior
	current := assets.Current / liab.Current
	return models.LiquidityRatios{Prior: &prior, Current: &current}
}

// ShortTermAssetsGrowth returns the growth of the first short-term assets row.
func ShortTermAssetsGrowth(table *models.FinancialTable, p Patterns) (float64, bool) {
	if table == nil {
		return 0, false
	}
	idx, ok := FirstMatch(table.Rows, p.ShortTermAssets)
	if !ok {
		return 0, false
	}
	return table.Rows[idx].GrowthPct, true
}
