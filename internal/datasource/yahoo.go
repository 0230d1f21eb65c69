package datasource

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/seenimoa/finmetrics/internal/config"
	"github.com/seenimoa/finmetrics/internal/infra"
	"github.com/seenimoa/finmetrics/pkg/models"
	"github.com/seenimoa/finmetrics/pkg/utils"
)

// yahooModules are the quoteSummary modules that carry EPS, growth and price.
const yahooModules = "defaultKeyStatistics,financialData,price"

// Yahoo reads earnings and price figures from the Yahoo Finance JSON API.
type Yahoo struct {
	baseURL string
	client  *infra.Client
}

// NewYahoo creates a Yahoo Finance source.
func NewYahoo(cfg config.YahooConfig, timeout time.Duration) *Yahoo {
	return &Yahoo{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  infra.NewClient(timeout, ""),
	}
}

// Name returns the data source name.
func (y *Yahoo) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance response types ---

type yfQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []yfQuoteSummaryResult `json:"result"`
		Error  *yfError               `json:"error"`
	} `json:"quoteSummary"`
}

type yfQuoteSummaryResult struct {
	DefaultKeyStatistics *struct {
		TrailingEps yfFinVal `json:"trailingEps"`
		ForwardEps  yfFinVal `json:"forwardEps"`
	} `json:"defaultKeyStatistics"`
	FinancialData *struct {
		CurrentPrice   yfFinVal `json:"currentPrice"`
		EarningsGrowth yfFinVal `json:"earningsGrowth"`
	} `json:"financialData"`
	Price *struct {
		RegularMarketPrice yfFinVal `json:"regularMarketPrice"`
	} `json:"price"`
}

// yfFinVal is Yahoo's {raw, fmt} number. Raw is nil when Yahoo sends an
// empty object for an unknown figure.
type yfFinVal struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

type yfChartResponse struct {
	Chart struct {
		Result []struct {
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yfError `json:"error"`
	} `json:"chart"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// EPSData returns trailing and forward EPS, earnings growth and the current
// price for ticker. Figures Yahoo does not report are left nil. When no
// quote price is reported, the last close of a one-day chart is used.
func (y *Yahoo) EPSData(ctx context.Context, ticker string) (*models.EPSData, error) {
	symbol := utils.NormalizeTicker(ticker)

	var resp yfQuoteSummaryResponse
	reqURL := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		y.baseURL, url.PathEscape(symbol), yahooModules)
	if err := getJSON(ctx, y.client, symbol, reqURL, &resp); err != nil {
		return nil, fmt.Errorf("yfinance quoteSummary %s: %w", symbol, err)
	}

	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yfinance quoteSummary %s: %w: %s", symbol, ErrNoData, resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yfinance quoteSummary %s: %w", symbol, ErrNoData)
	}

	r := resp.QuoteSummary.Result[0]
	data := &models.EPSData{Ticker: symbol}
	if ks := r.DefaultKeyStatistics; ks != nil {
		data.TrailingEPS = ks.TrailingEps.Raw
		data.ForwardEPS = ks.ForwardEps.Raw
	}
	if fd := r.FinancialData; fd != nil {
		data.EarningsGrowth = fd.EarningsGrowth.Raw
	}

	// regularMarketPrice first, then currentPrice; zero counts as missing.
	if r.Price != nil && nonZero(r.Price.RegularMarketPrice.Raw) {
		data.Price = r.Price.RegularMarketPrice.Raw
	} else if r.FinancialData != nil && nonZero(r.FinancialData.CurrentPrice.Raw) {
		data.Price = r.FinancialData.CurrentPrice.Raw
	}

	if data.Price == nil {
		if last, err := y.LastClose(ctx, symbol); err == nil {
			data.Price = &last
		}
	}

	return data, nil
}

// LastClose returns the most recent close from a one-day daily chart.
func (y *Yahoo) LastClose(ctx context.Context, ticker string) (float64, error) {
	symbol := utils.NormalizeTicker(ticker)

	var resp yfChartResponse
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d",
		y.baseURL, url.PathEscape(symbol))
	if err := getJSON(ctx, y.client, symbol, reqURL, &resp); err != nil {
		return 0, fmt.Errorf("yfinance chart %s: %w", symbol, err)
	}

	if resp.Chart.Error != nil {
		return 0, fmt.Errorf("yfinance chart %s: %w: %s", symbol, ErrNoData, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return 0, fmt.Errorf("yfinance chart %s: %w", symbol, ErrNoData)
	}

	closes := resp.Chart.Result[0].Indicators.Quote[0].Close
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i] != nil {
			return *closes[i], nil
		}
	}
	return 0, fmt.Errorf("yfinance chart %s: %w", symbol, ErrNoData)
}

func nonZero(v *float64) bool {
	return v != nil && *v != 0
}
