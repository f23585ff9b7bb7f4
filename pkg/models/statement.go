package models

// Period identifies one of the two columns of an uploaded statement.
type Period string

const (
	PeriodPrior   Period = "prior"
	PeriodCurrent Period = "current"
)

// FinancialRow is one line item of the uploaded statement.
// Prior and Current are 0 when the source cell was missing or not numeric.
type FinancialRow struct {
	Label   string  `json:"label"`
	Prior   float64 `json:"prior"`
	Current float64 `json:"current"`
}

// RowLabel returns the free-text line item name.
func (r FinancialRow) RowLabel() string {
	return r.Label
}

// Value returns the row value for the given period.
func (r FinancialRow) Value(p Period) float64 {
	if p == PeriodPrior {
		return r.Prior
	}
	return r.Current
}

// DerivedRow is a FinancialRow plus its horizontal (growth) and vertical (share of total assets) analysis.
type DerivedRow struct {
	FinancialRow
	GrowthPct       float64 `json:"growth_pct"`
	PriorSharePct   float64 `json:"prior_share_pct"`
	CurrentSharePct float64 `json:"current_share_pct"`
}

// FinancialTable holds derived rows in source order.
type FinancialTable struct {
	Rows        []DerivedRow `json:"rows"`
	AnchorIndex int          `json:"anchor_index"` // index of the total-assets row used for shares
}

// Anchor returns the total-assets row the shares were computed against.
func (t *FinancialTable) Anchor() DerivedRow {
	return t.Rows[t.AnchorIndex]
}

// Clone returns a deep copy so cached tables can be handed out safely.
func (t *FinancialTable) Clone() *FinancialTable {
	if t == nil {
		return nil
	}
	rows := make([]DerivedRow, len(t.Rows))
	copy(rows, t.Rows)
	return &FinancialTable{Rows: rows, AnchorIndex: t.AnchorIndex}
}

// LiquidityRatios holds the current ratio (short-term assets / short-term liabilities)
// for both periods. Both are nil when either source row is missing.
type LiquidityRatios struct {
	Prior   *float64 `json:"prior,omitempty"`
	Current *float64 `json:"current,omitempty"`
}

// Available reports whether the ratios could be computed.
func (l LiquidityRatios) Available() bool {
	return l.Prior != nil && l.Current != nil
}

// Delta returns current minus prior, or nil when unavailable.
func (l LiquidityRatios) Delta() *float64 {
	if !l.Available() {
		return nil
	}
	d := *l.Current - *l.Prior
	return &d
}

// ChatRole is the author of a transcript entry.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is the provider-agnostic chat message shape shared by the session
// transcript and the LLM providers.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}
