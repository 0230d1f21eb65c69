package datasource

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/finmetrics/internal/config"
	"github.com/seenimoa/finmetrics/internal/infra"
	"github.com/seenimoa/finmetrics/pkg/models"
	"github.com/seenimoa/finmetrics/pkg/utils"
)

// ErrMissingAPIKey is returned when the FMP source is built without a key.
var ErrMissingAPIKey = fmt.Errorf("FMP API key not configured (set fmp.api_key or FINMETRICS_FMP_API_KEY)")

// fmpPeriods is the number of annual periods the F-Score compares.
const fmpPeriods = 2

// FMP builds a two-period fundamentals record from Financial Modeling Prep
// annual statements.
type FMP struct {
	baseURL string
	apiKey  string
	client  *infra.Client
}

// NewFMP creates an FMP source. The key is required.
func NewFMP(cfg config.FMPConfig, timeout time.Duration) (*FMP, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	return &FMP{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  infra.NewClient(timeout, ""),
	}, nil
}

// Name returns the data source name.
func (f *FMP) Name() string { return "Financial Modeling Prep" }

// --- FMP response types ---

// Nullable fields: FMP reports unknown values as null.

type fmpRatios struct {
	Date              string   `json:"date"`
	ReturnOnAssets    *float64 `json:"returnOnAssets"`
	CurrentRatio      *float64 `json:"currentRatio"`
	GrossProfitMargin *float64 `json:"grossProfitMargin"`
	AssetTurnover     *float64 `json:"assetTurnover"`
}

type fmpBalanceSheet struct {
	Date         string   `json:"date"`
	LongTermDebt *float64 `json:"longTermDebt"`
}

type fmpIncomeStatement struct {
	Date                  string   `json:"date"`
	NetIncome             *float64 `json:"netIncome"`
	WeightedAverageShsOut *float64 `json:"weightedAverageShsOut"`
}

type fmpCashFlow struct {
	Date              string   `json:"date"`
	OperatingCashFlow *float64 `json:"operatingCashFlow"`
}

// Fundamentals implements FundamentalsSource. Index 0 of every statement
// is the latest fiscal year and index 1 the prior one.
func (f *FMP) Fundamentals(ctx context.Context, ticker string) (models.Fundamentals, error) {
	symbol := utils.NormalizeTicker(ticker)

	var (
		ratios  []fmpRatios
		balance []fmpBalanceSheet
		income  []fmpIncomeStatement
		cash    []fmpCashFlow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return getJSON(gctx, f.client, symbol, f.url("ratios", symbol), &ratios) })
	g.Go(func() error { return getJSON(gctx, f.client, symbol, f.url("balance-sheet-statement", symbol), &balance) })
	g.Go(func() error { return getJSON(gctx, f.client, symbol, f.url("income-statement", symbol), &income) })
	g.Go(func() error { return getJSON(gctx, f.client, symbol, f.url("cash-flow-statement", symbol), &cash) })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fmp %s: %w", symbol, err)
	}

	if len(ratios) == 0 && len(balance) == 0 && len(income) == 0 && len(cash) == 0 {
		return nil, fmt.Errorf("fmp %s: %w", symbol, ErrNoData)
	}

	rec := make(models.Fundamentals)
	for i := 0; i < fmpPeriods; i++ {
		if i < len(ratios) {
			r := ratios[i]
			setPeriod(rec, i, models.FieldROA, models.FieldPrevROA, r.ReturnOnAssets)
			setPeriod(rec, i, models.FieldCurrentRatio, models.FieldPrevCurrentRatio, r.CurrentRatio)
			setPeriod(rec, i, models.FieldGrossMargin, models.FieldPrevGrossMargin, r.GrossProfitMargin)
			setPeriod(rec, i, models.FieldAssetTurnover, models.FieldPrevAssetTurnover, r.AssetTurnover)
		}
		if i < len(balance) {
			setPeriod(rec, i, models.FieldLongTermDebt, models.FieldPrevLongTermDebt, balance[i].LongTermDebt)
		}
		if i < len(income) {
			setPeriod(rec, i, models.FieldSharesOutstanding, models.FieldPrevSharesOutstanding, income[i].WeightedAverageShsOut)
		}
	}
	if len(income) > 0 {
		setPeriod(rec, 0, models.FieldNetIncome, "", income[0].NetIncome)
	}
	if len(cash) > 0 {
		setPeriod(rec, 0, models.FieldOperatingCashFlow, "", cash[0].OperatingCashFlow)
	}

	return rec, nil
}

// url builds an annual statement URL with the API key appended.
func (f *FMP) url(endpoint, symbol string) string {
	q := url.Values{}
	q.Set("period", "annual")
	q.Set("limit", fmt.Sprint(fmpPeriods))
	q.Set("apikey", f.apiKey)
	return fmt.Sprintf("%s/%s/%s?%s", f.baseURL, endpoint, url.PathEscape(symbol), q.Encode())
}

// setPeriod stores v under current for period 0 and under prev for period 1.
// Null values are left absent.
func setPeriod(rec models.Fundamentals, period int, current, prev string, v *float64) {
	if v == nil {
		return
	}
	field := current
	if period == 1 {
		field = prev
	}
	if field == "" {
		return
	}
	rec[field] = decimal.NewFromFloat(*v).String()
}
