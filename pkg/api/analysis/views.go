package analysis

import (
	"time"

	"statement_insight/pkg/core/format"
	"statement_insight/pkg/core/insight"
	"statement_insight/pkg/models"
)

// Derived figures are sent as display strings: ratios may be ±Inf, which JSON
// cannot carry.

type RowView struct {
	Label        string  `json:"label"`
	Prior        float64 `json:"prior"`
	Current      float64 `json:"current"`
	PriorText    string  `json:"prior_text"`
	CurrentText  string  `json:"current_text"`
	Growth       string  `json:"growth"`
	PriorShare   string  `json:"prior_share"`
	CurrentShare string  `json:"current_share"`
	Anchor       bool    `json:"anchor,omitempty"`
}

type IndicatorsView struct {
	ShortTermAssetsGrowth string `json:"short_term_assets_growth"`
	CurrentRatioPrior     string `json:"current_ratio_prior"`
	CurrentRatioCurrent   string `json:"current_ratio_current"`
	CurrentRatioDelta     string `json:"current_ratio_delta"`
	LiquidityAvailable    bool   `json:"liquidity_available"`
}

type AnalysisResponse struct {
	SessionID  string               `json:"session_id"`
	Source     string               `json:"source"`
	CreatedAt  time.Time            `json:"created_at"`
	Locale     string               `json:"locale"`
	Rows       []RowView            `json:"rows"`
	Indicators IndicatorsView       `json:"indicators"`
	Warnings   []string             `json:"warnings"`
	Narrative  string               `json:"narrative,omitempty"`
	Transcript []models.ChatMessage `json:"transcript"`
}

type NarrativeRequest struct {
	APIKey string `json:"api_key"`
}

type NarrativeResponse struct {
	Text   string `json:"text"`
	HTML   string `json:"html"`
	Failed bool   `json:"failed"`
}

type ChatRequest struct {
	APIKey  string `json:"api_key"`
	Message string `json:"message" validate:"required,max=4000"`
}

type ChatResponse struct {
	Reply      string               `json:"reply"`
	HTML       string               `json:"html"`
	Failed     bool                 `json:"failed"`
	Transcript []models.ChatMessage `json:"transcript"`
}

func newAnalysisResponse(sess *insight.Session) AnalysisResponse {
	a := sess.Analysis
	rows := make([]RowView, 0, len(a.Table.Rows))
	for i, r := range a.Table.Rows {
		rows = append(rows, RowView{
			Label:        r.Label,
			Prior:        r.Prior,
			Current:      r.Current,
			PriorText:    format.Amount(r.Prior),
			CurrentText:  format.Amount(r.Current),
			Growth:       format.Percent(r.GrowthPct),
			PriorShare:   format.Percent(r.PriorSharePct),
			CurrentShare: format.Percent(r.CurrentSharePct),
			Anchor:       i == a.Table.AnchorIndex,
		})
	}

	growth := format.NotAvailable
	if g, ok := a.ShortTermAssetsGrowth(); ok {
		growth = format.Percent(g)
	}

	warnings := a.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	return AnalysisResponse{
		SessionID: sess.ID,
		Source:    sess.Source,
		CreatedAt: sess.CreatedAt,
		Locale:    a.Patterns.Locale,
		Rows:      rows,
		Indicators: IndicatorsView{
			ShortTermAssetsGrowth: growth,
			CurrentRatioPrior:     format.Ratio(a.Liquidity.Prior),
			CurrentRatioCurrent:   format.Ratio(a.Liquidity.Current),
			CurrentRatioDelta:     format.SignedRatio(a.Liquidity.Delta()),
			LiquidityAvailable:    a.Liquidity.Available(),
		},
		Warnings:   warnings,
		Narrative:  sess.Narrative(),
		Transcript: sess.Transcript(),
	}
}
