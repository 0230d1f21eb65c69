package models

// EPSData holds the per-share earnings figures needed for the EPS-growth
// fair value. Nil pointers mean the vendor did not report the figure.
type EPSData struct {
	Ticker         string   `json:"ticker"`
	TrailingEPS    *float64 `json:"trailing_eps,omitempty"`
	ForwardEPS     *float64 `json:"forward_eps,omitempty"`
	EarningsGrowth *float64 `json:"earnings_growth,omitempty"` // decimal, e.g. 0.12
	Price          *float64 `json:"price,omitempty"`
}

// Valuation verdicts.
const (
	VerdictUndervalued  = "undervalued"
	VerdictOvervalued   = "overvalued"
	VerdictFairlyValued = "fairly valued"
)

// FairValueResult is the EPS-growth fair value estimate for one ticker.
// When Skipped is true, Reason names the missing input and the numeric
// fields are zero.
type FairValueResult struct {
	Ticker        string  `json:"ticker"`
	TrailingEPS   float64 `json:"trailing_eps"`
	GrowthRatePct float64 `json:"growth_rate_pct"`
	CurrentPrice  float64 `json:"current_price"`
	FairValue     float64 `json:"fair_value"`
	Difference    float64 `json:"difference"` // |fair value - price|
	Verdict       string  `json:"verdict,omitempty"`
	Skipped       bool    `json:"skipped,omitempty"`
	Reason        string  `json:"reason,omitempty"`
}
