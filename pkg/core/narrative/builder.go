// Package narrative assembles the text handed to the language model: the full
// derived table plus the headline liquidity indicators.
package narrative

import (
	"fmt"
	"strings"

	"statement_insight/pkg/core/calc"
	"statement_insight/pkg/core/format"
	"statement_insight/pkg/models"
)

// Labels are the human-readable headings used in the payload.
type Labels struct {
	TableHeading      string
	IndicatorHeading  string
	Item              string
	Prior             string
	Current           string
	Growth            string
	PriorShare        string
	CurrentShare      string
	Indicator         string
	Value             string
	STAssetsGrowth    string
	CurrentRatioPrior string
	CurrentRatioCurr  string
}

var EnglishLabels = Labels{
	TableHeading:      "Full data table",
	IndicatorHeading:  "Key indicators",
	Item:              "Line item",
	Prior:             "Prior year",
	Current:           "Current year",
	Growth:            "Growth (%)",
	PriorShare:        "Share of total assets, prior year (%)",
	CurrentShare:      "Share of total assets, current year (%)",
	Indicator:         "Indicator",
	Value:             "Value",
	STAssetsGrowth:    "Short-term assets growth (%)",
	CurrentRatioPrior: "Current ratio (prior year)",
	CurrentRatioCurr:  "Current ratio (current year)",
}

var VietnameseLabels = Labels{
	TableHeading:      "Bảng dữ liệu đầy đủ",
	IndicatorHeading:  "Chỉ số chính",
	Item:              "Chỉ tiêu",
	Prior:             "Năm trước",
	Current:           "Năm sau",
	Growth:            "Tốc độ tăng trưởng (%)",
	PriorShare:        "Tỷ trọng Năm trước (%)",
	CurrentShare:      "Tỷ trọng Năm sau (%)",
	Indicator:         "Chỉ tiêu",
	Value:             "Giá trị",
	STAssetsGrowth:    "Tăng trưởng Tài sản ngắn hạn (%)",
	CurrentRatioPrior: "Thanh toán hiện hành (Năm trước)",
	CurrentRatioCurr:  "Thanh toán hiện hành (Năm sau)",
}

// LabelsFor picks the heading language matching a pattern set.
func LabelsFor(p calc.Patterns) Labels {
	if p.Locale == calc.VietnamesePatterns.Locale {
		return VietnameseLabels
	}
	return EnglishLabels
}

// BuildPayload renders the derived table, the short-term assets growth and both
// current ratios as markdown. Missing indicators read "N/A".
func BuildPayload(table *models.FinancialTable, ratios models.LiquidityRatios, p calc.Patterns) string {
	l := LabelsFor(p)
	var sb strings.Builder

	fmt.Fprintf(&sb, "### %s\n\n", l.TableHeading)
	sb.WriteString(RenderTable(table, l))

	growth := format.NotAvailable
	if g, ok := calc.ShortTermAssetsGrowth(table, p); ok {
		growth = format.Percent(g)
	}

	fmt.Fprintf(&sb, "\n### %s\n\n", l.IndicatorHeading)
	writeRow(&sb, l.Indicator, l.Value)
	sb.WriteString("|---|---|\n")
	writeRow(&sb, l.STAssetsGrowth, growth)
	writeRow(&sb, l.CurrentRatioPrior, format.Ratio(ratios.Prior))
	writeRow(&sb, l.CurrentRatioCurr, format.Ratio(ratios.Current))

	return sb.String()
}

// RenderTable renders the derived rows as a GFM pipe table. Raw values keep
// full precision; derived percentages use two decimals.
func RenderTable(table *models.FinancialTable, l Labels) string {
	var sb strings.Builder
	writeRow(&sb, l.Item, l.Prior, l.Current, l.Growth, l.PriorShare, l.CurrentShare)
	sb.WriteString("|---|---:|---:|---:|---:|---:|\n")
	if table == nil {
		return sb.String()
	}
	for _, r := range table.Rows {
		writeRow(&sb,
			r.Label,
			format.Raw(r.Prior),
			format.Raw(r.Current),
			format.Percent(r.GrowthPct),
			format.Percent(r.PriorSharePct),
			format.Percent(r.CurrentSharePct),
		)
	}
	return sb.String()
}

func writeRow(sb *strings.Builder, cells ...string) {
	sb.WriteString("|")
	for _, c := range cells {
		sb.WriteString(" ")
		sb.WriteString(escapeCell(c))
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
