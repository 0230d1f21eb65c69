package datasource

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/finmetrics/internal/config"
	"github.com/seenimoa/finmetrics/internal/infra"
	"github.com/seenimoa/finmetrics/pkg/models"
	"github.com/seenimoa/finmetrics/pkg/utils"
)

// Finviz scrapes the key statistics table from the Finviz quote page.
// Every call performs exactly one request; nothing is cached.
type Finviz struct {
	baseURL string
	timeout time.Duration
	client  *infra.Client
}

// NewFinviz creates a Finviz source from the finviz config section.
func NewFinviz(cfg config.FinvizConfig) *Finviz {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = infra.DefaultTimeout
	}
	return &Finviz{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: timeout,
		client:  infra.NewClient(timeout, cfg.UserAgent),
	}
}

// Name returns the data source name.
func (f *Finviz) Name() string { return "Finviz" }

// QuoteURL returns the quote page URL for ticker.
func (f *Finviz) QuoteURL(ticker string) string {
	return fmt.Sprintf("%s/quote.ashx?t=%s", f.baseURL, url.QueryEscape(ticker))
}

// FetchSnapshot downloads the quote page for ticker and returns its
// snapshot table.
func (f *Finviz) FetchSnapshot(ctx context.Context, ticker string) (SnapshotTable, error) {
	symbol := utils.NormalizeTicker(ticker)

	doc, err := f.fetchPage(ctx, symbol)
	if err != nil {
		return nil, err
	}

	table, err := parseSnapshotDoc(doc)
	if err != nil {
		return nil, fmt.Errorf("finviz %s: %w", symbol, err)
	}
	return table, nil
}

// Snapshot returns the snapshot table in its API form.
func (f *Finviz) Snapshot(ctx context.Context, ticker string) (*models.Snapshot, error) {
	table, err := f.FetchSnapshot(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return &models.Snapshot{
		Ticker:    utils.NormalizeTicker(ticker),
		Pairs:     table,
		FetchedAt: time.Now(),
	}, nil
}

// Fundamentals implements FundamentalsSource. The record holds every label
// on the page; fields Finviz does not publish are absent.
func (f *Finviz) Fundamentals(ctx context.Context, ticker string) (models.Fundamentals, error) {
	table, err := f.FetchSnapshot(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return table.Record(), nil
}

// --- Internal helpers ---

// fetchPage downloads and parses a quote page under the per-fetch timeout.
func (f *Finviz) fetchPage(ctx context.Context, symbol string) (*goquery.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	pageURL := f.QuoteURL(symbol)
	body, err := f.client.Get(ctx, pageURL, map[string]string{
		"Accept": "text/html,application/xhtml+xml",
	})
	if err != nil {
		return nil, &FetchError{Ticker: symbol, URL: pageURL, Err: err}
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, &FetchError{Ticker: symbol, URL: pageURL, Err: fmt.Errorf("read page: %w", err)}
	}
	return doc, nil
}
