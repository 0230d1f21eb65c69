package metrics

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/finmetrics/internal/datasource"
	"github.com/seenimoa/finmetrics/pkg/models"
	"github.com/seenimoa/finmetrics/pkg/utils"
)

// DefaultConcurrency bounds in-flight fetches when none is configured.
const DefaultConcurrency = 4

// Result is the outcome of one metric extraction. Exactly one of Value and
// Err is meaningful.
type Result struct {
	Metric Metric
	Value  string
	Err    error
}

// Report holds every metric result for one ticker, in table order.
type Report struct {
	Ticker    string
	Results   []Result
	FetchedAt time.Time
}

// Flat renders the report as the legacy flat object: one entry per metric
// key holding the value or "Error: <message>", plus "ticker".
func (r *Report) Flat() map[string]string {
	out := make(map[string]string, len(r.Results)+1)
	for _, res := range r.Results {
		if res.Err != nil {
			out[res.Metric.Key] = "Error: " + res.Err.Error()
			continue
		}
		out[res.Metric.Key] = res.Value
	}
	out["ticker"] = r.Ticker
	return out
}

// Model converts the report to its API form.
func (r *Report) Model() models.MetricsReport {
	mr := models.MetricsReport{
		Ticker:    r.Ticker,
		Metrics:   make([]models.MetricResult, len(r.Results)),
		FetchedAt: r.FetchedAt,
	}
	for i, res := range r.Results {
		mr.Metrics[i] = ResultModel(res)
	}
	return mr
}

// Failed returns the number of metrics that could not be extracted.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// ResultModel converts one result to its API form.
func ResultModel(res Result) models.MetricResult {
	m := models.MetricResult{Metric: res.Metric.Key, Label: res.Metric.Label, Value: res.Value}
	if res.Err != nil {
		m.Value = ""
		m.Error = res.Err.Error()
		m.Kind = string(datasource.KindOf(res.Err))
	}
	return m
}

// Analyzer runs every metric extraction for a ticker concurrently.
type Analyzer struct {
	extractor   *Extractor
	metrics     []Metric
	concurrency int
}

// NewAnalyzer creates an Analyzer over the full metric table with at most
// concurrency fetches in flight.
func NewAnalyzer(extractor *Extractor, concurrency int) *Analyzer {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Analyzer{
		extractor:   extractor,
		metrics:     All(),
		concurrency: concurrency,
	}
}

// Analyze extracts every metric for ticker. A failing metric is recorded in
// its own Result and never cancels the others.
func (a *Analyzer) Analyze(ctx context.Context, ticker string) *Report {
	symbol := utils.NormalizeTicker(ticker)
	report := &Report{
		Ticker:  symbol,
		Results: make([]Result, len(a.metrics)),
	}

	var g errgroup.Group
	g.SetLimit(a.concurrency)

	for i, m := range a.metrics {
		g.Go(func() error {
			v, err := a.extractor.Extract(ctx, symbol, m.Label)
			if err != nil {
				log.Warn().Err(err).Str("ticker", symbol).Str("metric", m.Key).
					Str("kind", string(datasource.KindOf(err))).Msg("metric extraction failed")
			}
			// Each goroutine owns its slot.
			report.Results[i] = Result{Metric: m, Value: v, Err: err}
			return nil // non-fatal
		})
	}
	_ = g.Wait()

	report.FetchedAt = time.Now()
	log.Info().Str("ticker", symbol).Int("metrics", len(report.Results)).
		Int("failed", report.Failed()).Msg("analysis complete")
	return report
}
