package calc

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"statement_insight/pkg/models"
)

func sampleRows() []models.FinancialRow {
	return []models.FinancialRow{
		{Label: "TOTAL ASSETS", Prior: 1000, Current: 1200},
		{Label: "SHORT-TERM ASSETS", Prior: 400, Current: 600},
		{Label: "SHORT-TERM LIABILITIES", Prior: 200, Current: 300},
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

func TestDeriveGrowthAndShares_WorkedExample(t *testing.T) {
	table, err := DeriveGrowthAndShares(sampleRows(), EnglishPatterns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(table.Rows))
	}
	if table.AnchorIndex != 0 {
		t.Errorf("expected anchor index 0, got %d", table.AnchorIndex)
	}

	sta := table.Rows[1]
	if !approx(sta.GrowthPct, 50) {
		t.Errorf("short-term assets growth: expected 50, got %f", sta.GrowthPct)
	}
	if !approx(sta.PriorSharePct, 40) {
		t.Errorf("prior share: expected 40, got %f", sta.PriorSharePct)
	}
	if !approx(sta.CurrentSharePct, 50) {
		t.Errorf("current share: expected 50, got %f", sta.CurrentSharePct)
	}

	// The anchor is always 100% of itself.
	anchor := table.Anchor()
	if !approx(anchor.PriorSharePct, 100) || !approx(anchor.CurrentSharePct, 100) {
		t.Errorf("anchor shares should be 100/100, got %f/%f", anchor.PriorSharePct, anchor.CurrentSharePct)
	}

	ratios := ComputeLiquidityRatios(table, EnglishPatterns)
	if !ratios.Available() {
		t.Fatal("expected liquidity ratios to be available")
	}
	if !approx(*ratios.Prior, 2) || !approx(*ratios.Current, 2) {
		t.Errorf("expected ratios 2.00/2.00, got %f/%f", *ratios.Prior, *ratios.Current)
	}
	if d := ratios.Delta(); d == nil || !approx(*d, 0) {
		t.Errorf("expected zero delta, got %v", d)
	}
}

func TestDeriveGrowthAndShares_ZeroPrior(t *testing.T) {
	rows := []models.FinancialRow{
		{Label: "Total assets", Prior: 100, Current: 100},
		{Label: "New product line", Prior: 0, Current: 50},
		{Label: "Dormant", Prior: 0, Current: 0},
	}
	table, err := DeriveGrowthAndShares(rows, EnglishPatterns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g := table.Rows[1].GrowthPct
	expected := 50 / 1e-9 * 100
	if math.IsInf(g, 0) || math.IsNaN(g) {
		t.Fatalf("growth must be finite, got %f", g)
	}
	if !approx(g, expected) {
		t.Errorf("expected growth %g, got %g", expected, g)
	}
	if table.Rows[2].GrowthPct != 0 {
		t.Errorf("0 -> 0 should be 0%% growth, got %f", table.Rows[2].GrowthPct)
	}
}

func TestDeriveGrowthAndShares_ZeroAnchor(t *testing.T) {
	rows := []models.FinancialRow{
		{Label: "TOTAL ASSETS", Prior: 0, Current: 500},
		{Label: "Cash", Prior: 10, Current: 100},
	}
	table, err := DeriveGrowthAndShares(rows, EnglishPatterns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cash := table.Rows[1]
	if !approx(cash.PriorSharePct, 10/Epsilon*100) {
		t.Errorf("expected epsilon-guarded share, got %g", cash.PriorSharePct)
	}
	if !approx(cash.CurrentSharePct, 20) {
		t.Errorf("expected current share 20, got %f", cash.CurrentSharePct)
	}
}

func TestDeriveGrowthAndShares_NoNormalization(t *testing.T) {
	// Sub-totals and duplicates are kept as-is: shares are not forced to sum to 100.
	rows := []models.FinancialRow{
		{Label: "SHORT-TERM ASSETS", Prior: 400, Current: 600},
		{Label: "Cash", Prior: 100, Current: 150},
		{Label: "Cash", Prior: 100, Current: 150},
		{Label: "TOTAL ASSETS", Prior: 1000, Current: 1200},
	}
	table, err := DeriveGrowthAndShares(rows, EnglishPatterns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.AnchorIndex != 3 {
		t.Errorf("expected anchor at index 3, got %d", table.AnchorIndex)
	}

	var sum float64
	for _, r := range table.Rows {
		sum += r.PriorSharePct
	}
	// 40 + 10 + 10 + 100
	if !approx(sum, 160) {
		t.Errorf("expected un-normalized prior share sum 160, got %f", sum)
	}
	if !approx(table.Rows[1].PriorSharePct, 10) || !approx(table.Rows[2].PriorSharePct, 10) {
		t.Error("duplicate rows should carry identical independent shares")
	}
}

func TestDeriveGrowthAndShares_MissingAnchor(t *testing.T) {
	rows := []models.FinancialRow{
		{Label: "SHORT-TERM ASSETS", Prior: 400, Current: 600},
		{Label: "SHORT-TERM LIABILITIES", Prior: 200, Current: 300},
	}
	table, err := DeriveGrowthAndShares(rows, EnglishPatterns)
	if table != nil {
		t.Errorf("expected no table, got %+v", table)
	}
	if err == nil {
		t.Fatal("expected an error")
	}

	var anchorErr *MissingAnchorError
	if !errors.As(err, &anchorErr) {
		t.Fatalf("expected *MissingAnchorError, got %T", err)
	}
	if anchorErr.Pattern != "TOTAL ASSETS" {
		t.Errorf("expected pattern in error, got %q", anchorErr.Pattern)
	}
	if !errors.Is(err, ErrMissingAnchor) {
		t.Error("expected error to wrap ErrMissingAnchor")
	}
}

func TestDeriveGrowthAndShares_FirstAnchorWins(t *testing.T) {
	rows := []models.FinancialRow{
		{Label: "Total assets", Prior: 1000, Current: 1000},
		{Label: "Total assets (restated)", Prior: 2000, Current: 2000},
		{Label: "Cash", Prior: 100, Current: 100},
	}
	table, err := DeriveGrowthAndShares(rows, EnglishPatterns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.AnchorIndex != 0 {
		t.Errorf("expected first match as anchor, got %d", table.AnchorIndex)
	}
	if !approx(table.Rows[2].PriorSharePct, 10) {
		t.Errorf("expected share against first anchor, got %f", table.Rows[2].PriorSharePct)
	}
}

func TestDeriveGrowthAndShares_SanitizesNonFinite(t *testing.T) {
	rows := []models.FinancialRow{
		{Label: "TOTAL ASSETS", Prior: 100, Current: 100},
		{Label: "Broken", Prior: math.NaN(), Current: math.Inf(1)},
	}
	table, err := DeriveGrowthAndShares(rows, EnglishPatterns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := table.Rows[1]
	if b.Prior != 0 || b.Current != 0 {
		t.Errorf("non-finite values should coerce to 0, got %f/%f", b.Prior, b.Current)
	}
	if b.GrowthPct != 0 {
		t.Errorf("expected 0 growth, got %f", b.GrowthPct)
	}
}

func TestDeriveGrowthAndShares_Idempotent(t *testing.T) {
	rows := sampleRows()
	first, err := DeriveGrowthAndShares(rows, EnglishPatterns)
	if err != nil {
		t.Fatal(err)
	}
	second, err := DeriveGrowthAndShares(rows, EnglishPatterns)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("derivation should be idempotent")
	}
	if !reflect.DeepEqual(rows, sampleRows()) {
		t.Error("derivation must not mutate its input")
	}
}

func TestDeriveFromRaw(t *testing.T) {
	raw := [][]any{
		{"TOTAL ASSETS", 1000.0, "1200"},
		{"Receivables", "n/a", nil},
		{"Inventory", " 50 "},
		{"Other"},
	}
	table, err := DeriveFromRaw(raw, EnglishPatterns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Rows[0].Current != 1200 {
		t.Errorf("expected string cell coerced to 1200, got %f", table.Rows[0].Current)
	}
	if table.Rows[1].Prior != 0 || table.Rows[1].Current != 0 {
		t.Error("unparseable and empty cells should coerce to 0")
	}
	if table.Rows[2].Prior != 50 || table.Rows[2].Current != 0 {
		t.Errorf("short row: expected 50/0, got %f/%f", table.Rows[2].Prior, table.Rows[2].Current)
	}
	if table.Rows[3].Label != "Other" {
		t.Errorf("label should be kept verbatim, got %q", table.Rows[3].Label)
	}
}

func TestComputeLiquidityRatios_MissingLiabilities(t *testing.T) {
	rows := []models.FinancialRow{
		{Label: "TOTAL ASSETS", Prior: 1000, Current: 1200},
		{Label: "SHORT-TERM ASSETS", Prior: 400, Current: 600},
	}
	table, err := DeriveGrowthAndShares(rows, EnglishPatterns)
	if err != nil {
		t.Fatal(err)
	}
	ratios := ComputeLiquidityRatios(table, EnglishPatterns)
	if ratios.Available() || ratios.Prior != nil || ratios.Current != nil {
		t.Errorf("expected both periods absent, got %+v", ratios)
	}
	if ratios.Delta() != nil {
		t.Error("delta should be nil when unavailable")
	}
}

func TestComputeLiquidityRatios_ZeroLiabilities(t *testing.T) {
	rows := []models.FinancialRow{
		{Label: "TOTAL ASSETS", Prior: 1000, Current: 1200},
		{Label: "SHORT-TERM ASSETS", Prior: 400, Current: 0},
		{Label: "SHORT-TERM LIABILITIES", Prior: 0, Current: 0},
	}
	table, err := DeriveGrowthAndShares(rows, EnglishPatterns)
	if err != nil {
		t.Fatal(err)
	}
	ratios := ComputeLiquidityRatios(table, EnglishPatterns)
	if !ratios.Available() {
		t.Fatal("ratios should be available")
	}
	if !math.IsInf(*ratios.Prior, 1) {
		t.Errorf("expected +Inf for 400/0, got %f", *ratios.Prior)
	}
	if !math.IsNaN(*ratios.Current) {
		t.Errorf("expected NaN for 0/0, got %f", *ratios.Current)
	}
}

func TestShortTermAssetsGrowth(t *testing.T) {
	table, err := DeriveGrowthAndShares(sampleRows(), EnglishPatterns)
	if err != nil {
		t.Fatal(err)
	}
	g, ok := ShortTermAssetsGrowth(table, EnglishPatterns)
	if !ok || !approx(g, 50) {
		t.Errorf("expected 50%%, got %f (ok=%v)", g, ok)
	}

	if _, ok := ShortTermAssetsGrowth(table, VietnamesePatterns); ok {
		t.Error("english table should have no vietnamese short-term assets row")
	}
}

func TestDeriveGrowthAndShares_Vietnamese(t *testing.T) {
	rows := []models.FinancialRow{
		{Label: "A. TÀI SẢN NGẮN HẠN", Prior: 400, Current: 600},
		{Label: "Tổng cộng tài sản", Prior: 1000, Current: 1200},
		{Label: "I. Nợ ngắn hạn", Prior: 200, Current: 300},
	}
	table, err := DeriveGrowthAndShares(rows, VietnamesePatterns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.AnchorIndex != 1 {
		t.Errorf("expected anchor at index 1, got %d", table.AnchorIndex)
	}
	ratios := ComputeLiquidityRatios(table, VietnamesePatterns)
	if !ratios.Available() || !approx(*ratios.Current, 2) {
		t.Errorf("expected current ratio 2, got %+v", ratios)
	}
}
