package calc

import (
	"fmt"
	"strings"
)

// Patterns are the fixed label substrings used to locate anchor rows.
// They are configuration constants; matching is case-insensitive containment.
type Patterns struct {
	Locale               string `json:"locale" yaml:"locale"`
	TotalAssets          string `json:"total_assets" yaml:"total_assets"`
	ShortTermAssets      string `json:"short_term_assets" yaml:"short_term_assets"`
	ShortTermLiabilities string `json:"short_term_liabilities" yaml:"short_term_liabilities"`
}

var (
	EnglishPatterns = Patterns{
		Locale:               "en",
		TotalAssets:          "TOTAL ASSETS",
		ShortTermAssets:      "SHORT-TERM ASSETS",
		ShortTermLiabilities: "SHORT-TERM LIABILITIES",
	}

	// VietnamesePatterns match statements prepared under Vietnamese accounting standards (VAS).
	VietnamesePatterns = Patterns{
		Locale:               "vi",
		TotalAssets:          "TỔNG CỘNG TÀI SẢN",
		ShortTermAssets:      "TÀI SẢN NGẮN HẠN",
		ShortTermLiabilities: "NỢ NGẮN HẠN",
	}
)

// PatternsForLocale returns the pattern set for a locale code ("en", "vi").
// An empty locale selects English.
func PatternsForLocale(locale string) (Patterns, error) {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "", "en", "en-us", "en-gb":
		return EnglishPatterns, nil
	case "vi", "vi-vn":
		return VietnamesePatterns, nil
	default:
		return Patterns{}, fmt.Errorf("unsupported locale %q", locale)
	}
}
