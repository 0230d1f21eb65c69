package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/seenimoa/finmetrics/internal/config"
	"github.com/seenimoa/finmetrics/pkg/models"
)

// fmpFixtures maps an endpoint name to its JSON body.
var fmpFixtures = map[string]string{
	"ratios": `[
		{"date":"2024-09-28","returnOnAssets":0.2568,"currentRatio":0.867,"grossProfitMargin":0.4621,"assetTurnover":1.07},
		{"date":"2023-09-30","returnOnAssets":0.2753,"currentRatio":0.988,"grossProfitMargin":0.4413,"assetTurnover":1.09}
	]`,
	"balance-sheet-statement": `[
		{"date":"2024-09-28","longTermDebt":85750000000},
		{"date":"2023-09-30","longTermDebt":95281000000}
	]`,
	"income-statement": `[
		{"date":"2024-09-28","netIncome":93736000000,"weightedAverageShsOut":15343783000},
		{"date":"2023-09-30","netIncome":96995000000,"weightedAverageShsOut":15744231000}
	]`,
	"cash-flow-statement": `[
		{"date":"2024-09-28","operatingCashFlow":118254000000},
		{"date":"2023-09-30","operatingCashFlow":110543000000}
	]`,
}

func fmpServer(t *testing.T, fixtures map[string]string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") != "test-fmp-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("period") != "annual" || r.URL.Query().Get("limit") != "2" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		// Path: /<endpoint>/<symbol>
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		body, ok := fixtures[parts[0]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestFMP(t *testing.T, baseURL, key string) *FMP {
	t.Helper()
	f, err := NewFMP(config.FMPConfig{BaseURL: baseURL, APIKey: key}, 2*time.Second)
	if err != nil {
		t.Fatalf("NewFMP: %v", err)
	}
	return f
}

func TestNewFMPRequiresKey(t *testing.T) {
	_, err := NewFMP(config.FMPConfig{BaseURL: "http://127.0.0.1", APIKey: "  "}, time.Second)
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestFMPFundamentals(t *testing.T) {
	ts := fmpServer(t, fmpFixtures)
	rec, err := newTestFMP(t, ts.URL, "test-fmp-key").Fundamentals(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("Fundamentals: %v", err)
	}

	want := map[string]string{
		models.FieldROA:                   "0.2568",
		models.FieldPrevROA:               "0.2753",
		models.FieldNetIncome:             "93736000000",
		models.FieldOperatingCashFlow:     "118254000000",
		models.FieldLongTermDebt:          "85750000000",
		models.FieldPrevLongTermDebt:      "95281000000",
		models.FieldCurrentRatio:          "0.867",
		models.FieldPrevCurrentRatio:      "0.988",
		models.FieldSharesOutstanding:     "15343783000",
		models.FieldPrevSharesOutstanding: "15744231000",
		models.FieldGrossMargin:           "0.4621",
		models.FieldPrevGrossMargin:       "0.4413",
		models.FieldAssetTurnover:         "1.07",
		models.FieldPrevAssetTurnover:     "1.09",
	}
	for field, v := range want {
		got, ok := rec.Get(field)
		if !ok {
			t.Errorf("%s: missing", field)
			continue
		}
		if got != v {
			t.Errorf("%s: got %q, want %q", field, got, v)
		}
	}
	if len(rec) != len(want) {
		t.Errorf("record size: got %d, want %d", len(rec), len(want))
	}
}

func TestFMPFundamentalsSinglePeriod(t *testing.T) {
	fixtures := map[string]string{
		"ratios":                  `[{"date":"2024-09-28","returnOnAssets":0.25,"currentRatio":null}]`,
		"balance-sheet-statement": `[]`,
		"income-statement":        `[]`,
		"cash-flow-statement":     `[]`,
	}
	ts := fmpServer(t, fixtures)
	rec, err := newTestFMP(t, ts.URL, "test-fmp-key").Fundamentals(context.Background(), "NEWCO")
	if err != nil {
		t.Fatalf("Fundamentals: %v", err)
	}
	if v, _ := rec.Get(models.FieldROA); v != "0.25" {
		t.Errorf("ROA: got %q", v)
	}
	for _, field := range []string{models.FieldPrevROA, models.FieldCurrentRatio, models.FieldNetIncome} {
		if _, ok := rec.Get(field); ok {
			t.Errorf("%s should be absent", field)
		}
	}
}

func TestFMPFundamentalsEmpty(t *testing.T) {
	ts := fmpServer(t, map[string]string{
		"ratios": `[]`, "balance-sheet-statement": `[]`, "income-statement": `[]`, "cash-flow-statement": `[]`,
	})
	_, err := newTestFMP(t, ts.URL, "test-fmp-key").Fundamentals(context.Background(), "ZZZZ")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestFMPFundamentalsBadKey(t *testing.T) {
	ts := fmpServer(t, fmpFixtures)
	_, err := newTestFMP(t, ts.URL, "wrong-key").Fundamentals(context.Background(), "AAPL")
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fetchErr.StatusCode() != http.StatusUnauthorized {
		t.Errorf("StatusCode: got %d", fetchErr.StatusCode())
	}
	if strings.Contains(err.Error(), "wrong-key") {
		t.Error("error message should not expose the API key")
	}
}
