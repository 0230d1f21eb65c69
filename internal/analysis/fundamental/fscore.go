// Package fundamental scores and values companies from raw fundamentals:
// the nine-point Piotroski F-Score and an EPS-growth fair value estimate.
package fundamental

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/finmetrics/internal/datasource"
	"github.com/seenimoa/finmetrics/pkg/models"
	"github.com/seenimoa/finmetrics/pkg/utils"
)

// Criterion is one binary F-Score test.
type Criterion struct {
	Key         string `json:"key"`
	Description string `json:"description"`
	pass        func(models.Fundamentals) bool
}

// criteria are evaluated in this order; each passing test adds one point.
var criteria = []Criterion{
	{"roa_positive", "Return on Assets is positive",
		positive(models.FieldROA)},
	{"cfo_positive", "Operating Cash Flow is positive",
		positive(models.FieldOperatingCashFlow)},
	{"roa_change", "ROA improved over previous period",
		compare(models.FieldROA, models.FieldPrevROA, gt)},
	{"quality_earnings", "Operating Cash Flow exceeds Net Income",
		compare(models.FieldOperatingCashFlow, models.FieldNetIncome, gt)},
	{"debt_decrease", "Long Term Debt decreased",
		compare(models.FieldLongTermDebt, models.FieldPrevLongTermDebt, lt)},
	{"current_ratio_change", "Current Ratio improved",
		compare(models.FieldCurrentRatio, models.FieldPrevCurrentRatio, gt)},
	{"no_new_shares", "No new shares issued",
		compare(models.FieldSharesOutstanding, models.FieldPrevSharesOutstanding, lte)},
	{"gross_margin_change", "Gross Margin improved",
		compare(models.FieldGrossMargin, models.FieldPrevGrossMargin, gt)},
	{"asset_turnover_change", "Asset Turnover improved",
		compare(models.FieldAssetTurnover, models.FieldPrevAssetTurnover, gt)},
}

// MaxFScore is the highest attainable score.
const MaxFScore = 9

// Criteria returns the F-Score tests in evaluation order.
func Criteria() []Criterion {
	out := make([]Criterion, len(criteria))
	copy(out, criteria)
	return out
}

// FScore computes the Piotroski F-Score from a fundamentals record. A test
// whose operands are missing or non-numeric scores 0; it is never skipped.
func FScore(ticker string, data models.Fundamentals) models.FScoreResult {
	res := models.FScoreResult{
		Ticker:    utils.NormalizeTicker(ticker),
		Breakdown: make(map[string]int, len(criteria)),
		Data:      data,
	}
	if res.Data == nil {
		res.Data = models.Fundamentals{}
	}

	for _, c := range criteria {
		point := 0
		if c.pass(data) {
			point = 1
		}
		res.Breakdown[c.Key] = point
		res.Score += point
	}
	return res
}

// Checks renders the breakdown as one "✓ description" or "✗ description"
// line per criterion, in evaluation order.
func Checks(res models.FScoreResult) []string {
	lines := make([]string, 0, len(criteria))
	for _, c := range criteria {
		mark := "✗"
		if res.Breakdown[c.Key] == 1 {
			mark = "✓"
		}
		lines = append(lines, mark+" "+c.Description)
	}
	return lines
}

// Scorer fetches fundamentals and scores them.
type Scorer struct {
	source datasource.FundamentalsSource
}

// NewScorer creates a Scorer over source.
func NewScorer(source datasource.FundamentalsSource) *Scorer {
	return &Scorer{source: source}
}

// Source returns the name of the fundamentals source in use.
func (s *Scorer) Source() string { return s.source.Name() }

// Score fetches the fundamentals record for ticker and computes its F-Score.
func (s *Scorer) Score(ctx context.Context, ticker string) (models.FScoreResult, error) {
	symbol := utils.NormalizeTicker(ticker)
	data, err := s.source.Fundamentals(ctx, symbol)
	if err != nil {
		return models.FScoreResult{}, fmt.Errorf("fundamentals %s: %w", symbol, err)
	}
	return FScore(symbol, data), nil
}

// --- Internal helpers ---

func gt(c int) bool  { return c > 0 }
func lt(c int) bool  { return c < 0 }
func lte(c int) bool { return c <= 0 }

// operand parses field from data.
func operand(data models.Fundamentals, field string) (decimal.Decimal, bool) {
	raw, ok := data.Get(field)
	if !ok {
		return decimal.Decimal{}, false
	}
	return utils.ParseDecimal(raw)
}

func positive(field string) func(models.Fundamentals) bool {
	return func(data models.Fundamentals) bool {
		v, ok := operand(data, field)
		return ok && v.IsPositive()
	}
}

// compare passes when both fields parse and ok(cmp(a, b)) holds.
func compare(a, b string, ok func(int) bool) func(models.Fundamentals) bool {
	return func(data models.Fundamentals) bool {
		x, okA := operand(data, a)
		y, okB := operand(data, b)
		return okA && okB && ok(x.Cmp(y))
	}
}
