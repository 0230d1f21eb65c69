package fundamental

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/finmetrics/pkg/models"
	"github.com/seenimoa/finmetrics/pkg/utils"
)

// EPSGrowthRate returns the EPS growth rate in percent. It prefers the
// forward/trailing EPS ratio and falls back to the reported earnings
// growth. ok is false when neither is available.
func EPSGrowthRate(d *models.EPSData) (rate float64, ok bool) {
	if d == nil {
		return 0, false
	}
	if d.ForwardEPS != nil && d.TrailingEPS != nil && *d.TrailingEPS != 0 {
		return (*d.ForwardEPS / *d.TrailingEPS - 1) * 100, true
	}
	if d.EarningsGrowth != nil {
		return *d.EarningsGrowth * 100, true
	}
	return 0, false
}

// FairValue is trailing EPS multiplied by the growth rate in percent.
func FairValue(eps, growthPct float64) float64 {
	return eps * growthPct
}

// Evaluate computes the fair value and verdict for one ticker. Missing
// trailing EPS, growth rate or price mark the result as skipped.
func Evaluate(d *models.EPSData) models.FairValueResult {
	res := models.FairValueResult{}
	if d == nil {
		res.Skipped, res.Reason = true, "no data"
		return res
	}
	res.Ticker = d.Ticker

	if d.TrailingEPS == nil {
		res.Skipped, res.Reason = true, "missing trailing EPS"
		return res
	}
	growth, ok := EPSGrowthRate(d)
	if !ok {
		res.Skipped, res.Reason = true, "missing EPS growth rate"
		return res
	}
	if d.Price == nil {
		res.Skipped, res.Reason = true, "missing current price"
		return res
	}

	res.TrailingEPS = *d.TrailingEPS
	res.GrowthRatePct = growth
	res.CurrentPrice = *d.Price
	res.FairValue = FairValue(res.TrailingEPS, growth)

	switch {
	case res.FairValue > res.CurrentPrice:
		res.Verdict = models.VerdictUndervalued
		res.Difference = res.FairValue - res.CurrentPrice
	case res.FairValue < res.CurrentPrice:
		res.Verdict = models.VerdictOvervalued
		res.Difference = res.CurrentPrice - res.FairValue
	default:
		res.Verdict = models.VerdictFairlyValued
	}
	return res
}

// Suggestion renders the verdict as a sentence.
func Suggestion(res models.FairValueResult) string {
	switch res.Verdict {
	case models.VerdictUndervalued:
		return fmt.Sprintf("The stock may be undervalued by %s.", utils.FormatUSD(res.Difference))
	case models.VerdictOvervalued:
		return fmt.Sprintf("The stock may be overvalued by %s.", utils.FormatUSD(res.Difference))
	case models.VerdictFairlyValued:
		return "The stock appears to be fairly valued."
	default:
		return fmt.Sprintf("Skipped: %s.", res.Reason)
	}
}

// EPSSource supplies EPS and price figures. *datasource.Yahoo satisfies it.
type EPSSource interface {
	EPSData(ctx context.Context, ticker string) (*models.EPSData, error)
}

// Valuer fetches EPS data and evaluates fair value.
type Valuer struct {
	source      EPSSource
	concurrency int
}

// NewValuer creates a Valuer that evaluates at most concurrency tickers at
// once in ValueMany.
func NewValuer(source EPSSource, concurrency int) *Valuer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Valuer{source: source, concurrency: concurrency}
}

// Value fetches and evaluates one ticker.
func (v *Valuer) Value(ctx context.Context, ticker string) (models.FairValueResult, error) {
	symbol := utils.NormalizeTicker(ticker)
	data, err := v.source.EPSData(ctx, symbol)
	if err != nil {
		return models.FairValueResult{Ticker: symbol}, fmt.Errorf("eps data %s: %w", symbol, err)
	}
	res := Evaluate(data)
	res.Ticker = symbol
	return res, nil
}

// ValueMany evaluates every ticker, preserving input order. A ticker whose
// data cannot be fetched is reported as skipped with the error as reason.
func (v *Valuer) ValueMany(ctx context.Context, tickers []string) []models.FairValueResult {
	results := make([]models.FairValueResult, len(tickers))

	var g errgroup.Group
	g.SetLimit(v.concurrency)
	for i, t := range tickers {
		g.Go(func() error {
			res, err := v.Value(ctx, t)
			if err != nil {
				log.Warn().Err(err).Str("ticker", res.Ticker).Msg("fair value skipped")
				res.Skipped = true
				res.Reason = err.Error()
			}
			results[i] = res
			return nil // non-fatal
		})
	}
	_ = g.Wait()
	return results
}
