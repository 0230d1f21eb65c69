// Package datasource fetches raw financial data from external vendors: the
// Finviz quote page, Financial Modeling Prep and Yahoo Finance. It returns
// vendor strings untouched and classifies every failure as a fetch, parse or
// not-found error.
package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/seenimoa/finmetrics/internal/infra"
	"github.com/seenimoa/finmetrics/pkg/models"
)

// FundamentalsSource supplies the bulk fundamentals record used by the
// F-Score.
type FundamentalsSource interface {
	// Name returns the human-readable name of this source.
	Name() string

	// Fundamentals returns the raw fundamentals record for the given ticker.
	Fundamentals(ctx context.Context, ticker string) (models.Fundamentals, error)
}

// --- Sentinel errors ---

// ErrTableNotFound is returned when the quote page has no snapshot table.
var ErrTableNotFound = fmt.Errorf("snapshot table not found")

// ErrMetricNotFound is returned when no snapshot row carries the label.
var ErrMetricNotFound = fmt.Errorf("metric not found")

// ErrNoData is returned when a JSON vendor answers with an empty result.
var ErrNoData = fmt.Errorf("no data returned")

// ErrMalformedResponse is returned when a vendor body cannot be decoded.
var ErrMalformedResponse = fmt.Errorf("malformed response")

// FetchError reports a failed page or API retrieval: a network error, a
// timeout, or a non-200 status.
type FetchError struct {
	Ticker string
	URL    string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Ticker, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status when the server answered, or 0 when
// the request never got a response.
func (e *FetchError) StatusCode() int {
	var httpErr *infra.ErrHTTP
	if errors.As(e.Err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// Kind classifies an extraction failure.
type Kind string

const (
	KindFetch    Kind = "fetch"
	KindParse    Kind = "parse"
	KindNotFound Kind = "not_found"
	KindUnknown  Kind = ""
)

// KindOf returns the failure kind of err, or KindUnknown for nil and
// unclassified errors.
func KindOf(err error) Kind {
	var fetchErr *FetchError
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &fetchErr):
		return KindFetch
	case errors.Is(err, ErrTableNotFound), errors.Is(err, ErrMalformedResponse):
		return KindParse
	case errors.Is(err, ErrMetricNotFound), errors.Is(err, ErrNoData):
		return KindNotFound
	default:
		return KindUnknown
	}
}

// getJSON fetches url and decodes the body into dest. Transport failures
// become *FetchError and decode failures wrap ErrMalformedResponse.
func getJSON(ctx context.Context, client *infra.Client, ticker, url string, dest any) error {
	body, err := client.Get(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return &FetchError{Ticker: ticker, URL: url, Err: err}
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return &FetchError{Ticker: ticker, URL: url, Err: fmt.Errorf("read response: %w", err)}
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
