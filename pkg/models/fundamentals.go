package models

// Field names used in a Fundamentals record. The "Prev" fields hold the
// prior-period counterpart of the field without the prefix.
const (
	FieldROA                   = "ROA"
	FieldPrevROA               = "Prev ROA"
	FieldNetIncome             = "Net Income"
	FieldOperatingCashFlow     = "Operating Cash Flow"
	FieldLongTermDebt          = "Long Term Debt"
	FieldPrevLongTermDebt      = "Prev Long Term Debt"
	FieldCurrentRatio          = "Current Ratio"
	FieldPrevCurrentRatio      = "Prev Current Ratio"
	FieldSharesOutstanding     = "Shares Outstanding"
	FieldPrevSharesOutstanding = "Prev Shares Outstanding"
	FieldGrossMargin           = "Gross Margin"
	FieldPrevGrossMargin       = "Prev Gross Margin"
	FieldAssetTurnover         = "Asset Turnover"
	FieldPrevAssetTurnover     = "Prev Asset Turnover"
)

// Fundamentals maps field names to raw, vendor-formatted values for one
// ticker. Absent keys mean the vendor did not supply the field.
type Fundamentals map[string]string

// Get returns the raw value for field and whether it is present.
func (f Fundamentals) Get(field string) (string, bool) {
	if f == nil {
		return "", false
	}
	v, ok := f[field]
	return v, ok
}

// FScoreResult is the Piotroski F-Score for one ticker.
type FScoreResult struct {
	Ticker    string         `json:"ticker"`
	Score     int            `json:"f_score"`   // 0-9
	Breakdown map[string]int `json:"breakdown"` // criterion → 0 or 1
	Data      Fundamentals   `json:"data"`      // raw inputs, for traceability
}
