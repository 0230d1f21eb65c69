package metrics

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/seenimoa/finmetrics/internal/datasource"
	"github.com/seenimoa/finmetrics/pkg/utils"
)

// SnapshotFetcher retrieves the snapshot table for a ticker.
// *datasource.Finviz satisfies it.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, ticker string) (datasource.SnapshotTable, error)
}

// Extractor reads a single labelled value from a freshly fetched snapshot.
type Extractor struct {
	fetcher SnapshotFetcher
}

// NewExtractor creates an Extractor backed by fetcher.
func NewExtractor(fetcher SnapshotFetcher) *Extractor {
	return &Extractor{fetcher: fetcher}
}

// Extract fetches the quote page for ticker and returns the value paired
// with label. Every call performs one fetch. Failures are classified by
// datasource.KindOf.
func (e *Extractor) Extract(ctx context.Context, ticker, label string) (string, error) {
	symbol := utils.NormalizeTicker(ticker)

	table, err := e.fetcher.FetchSnapshot(ctx, symbol)
	if err != nil {
		log.Debug().Err(err).Str("ticker", symbol).Str("label", label).
			Str("kind", string(datasource.KindOf(err))).Msg("snapshot fetch failed")
		return "", err
	}

	v, err := table.Lookup(label)
	if err != nil {
		log.Debug().Str("ticker", symbol).Str("label", label).Msg("label not in snapshot")
		return "", err
	}
	return v, nil
}

// ExtractMetric resolves key through the metric table and extracts it.
func (e *Extractor) ExtractMetric(ctx context.Context, ticker, key string) (Metric, string, error) {
	m, err := Lookup(key)
	if err != nil {
		return Metric{}, "", err
	}
	v, err := e.Extract(ctx, ticker, m.Label)
	return m, v, err
}
