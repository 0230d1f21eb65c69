package datasource

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

// ════════════════════════════════════════════════════════════════════
// Snapshot parsing
// ════════════════════════════════════════════════════════════════════

func TestParseSnapshotPairs(t *testing.T) {
	page := quotePage(
		[]string{"Index", "S&P 500", "P/E", "28.51", "EPS (ttm)", "6.57"},
		[]string{"Market Cap", "2905.21B", "Forward P/E", "25.43", "Beta", "1.24"},
	)

	table, err := ParseSnapshot(strings.NewReader(page))
	if err != nil {
		t.Fatalf("ParseSnapshot: %v", err)
	}
	if len(table) != 6 {
		t.Fatalf("pairs: got %d, want 6: %+v", len(table), table)
	}
	if table[0].Label != "Index" || table[0].Value != "S&P 500" {
		t.Errorf("first pair: %+v", table[0])
	}

	tests := []struct {
		label string
		want  string
	}{
		{"P/E", "28.51"},
		{"Beta", "1.24"},
		{"Market Cap", "2905.21B"},
	}
	for _, tc := range tests {
		got, err := table.Lookup(tc.label)
		if err != nil {
			t.Errorf("Lookup(%q): %v", tc.label, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Lookup(%q): got %q, want %q", tc.label, got, tc.want)
		}
	}
}

func TestParseSnapshotOddCells(t *testing.T) {
	page := quotePage(
		[]string{"Beta", "1.24", "Dangling"},
	)
	table, err := ParseSnapshot(strings.NewReader(page))
	if err != nil {
		t.Fatalf("ParseSnapshot: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("pairs: got %d, want 2", len(table))
	}

	v, err := table.Lookup("Dangling")
	if err != nil {
		t.Fatalf("Lookup(Dangling): %v", err)
	}
	if v != "" {
		t.Errorf("odd trailing cell value: got %q, want empty", v)
	}
}

func TestParseSnapshotFirstMatchWins(t *testing.T) {
	page := quotePage(
		[]string{"ROA", "12.5%", "ROE", "30.1%"},
		[]string{"ROA", "99%", "ROE", "99%"},
	)
	table, err := ParseSnapshot(strings.NewReader(page))
	if err != nil {
		t.Fatalf("ParseSnapshot: %v", err)
	}

	if v, _ := table.Lookup("ROA"); v != "12.5%" {
		t.Errorf("Lookup(ROA): got %q, want first occurrence 12.5%%", v)
	}

	rec := table.Record()
	if rec["ROE"] != "30.1%" {
		t.Errorf("Record ROE: got %q, want first occurrence 30.1%%", rec["ROE"])
	}
	if len(rec) != 2 {
		t.Errorf("Record size: got %d, want 2", len(rec))
	}
}

func TestParseSnapshotExactLabelMatch(t *testing.T) {
	page := quotePage([]string{"P/E", "28.51", "Forward P/E", "25.43"})
	table, err := ParseSnapshot(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := table.Lookup("p/e"); !errors.Is(err, ErrMetricNotFound) {
		t.Errorf("case-different label should not match, got %v", err)
	}
	if _, err := table.Lookup("Forward"); !errors.Is(err, ErrMetricNotFound) {
		t.Errorf("partial label should not match, got %v", err)
	}
}

func TestParseSnapshotTableMissing(t *testing.T) {
	page := `<html><body><table class="snapshot-table"><tr><td>Beta</td><td>1.2</td></tr></table></body></html>`
	_, err := ParseSnapshot(strings.NewReader(page))
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
	if KindOf(err) != KindParse {
		t.Errorf("KindOf: got %q, want parse", KindOf(err))
	}
}

func TestParseSnapshotOnlyFirstTable(t *testing.T) {
	page := `<html><body>
<table class="snapshot-table2"><tr><td>Beta</td><td>1.10</td></tr></table>
<table class="snapshot-table2"><tr><td>Beta</td><td>9.99</td><td>P/B</td><td>3.2</td></tr></table>
</body></html>`
	table, err := ParseSnapshot(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 1 {
		t.Fatalf("pairs: got %d, want 1 from the first table", len(table))
	}
	if _, err := table.Lookup("P/B"); !errors.Is(err, ErrMetricNotFound) {
		t.Errorf("labels of later tables should be ignored, got %v", err)
	}
}

func TestParseSnapshotEmptyTable(t *testing.T) {
	table, err := ParseSnapshot(strings.NewReader(quotePage()))
	if err != nil {
		t.Fatalf("empty table should parse: %v", err)
	}
	if _, err := table.Lookup("Beta"); KindOf(err) != KindNotFound {
		t.Errorf("KindOf: got %q, want not_found", KindOf(err))
	}
}

// ════════════════════════════════════════════════════════════════════
// Finviz client
// ════════════════════════════════════════════════════════════════════

func TestFinvizFetchSnapshot(t *testing.T) {
	ts, rl := finvizServer(t, http.StatusOK, quotePage([]string{"Beta", "1.24", "P/B", "45.10"}))

	fv := newTestFinviz(ts.URL)
	table, err := fv.FetchSnapshot(context.Background(), " aapl ")
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}
	if v, _ := table.Lookup("P/B"); v != "45.10" {
		t.Errorf("P/B: got %q", v)
	}

	count, ua, uri := rl.snapshot()
	if count != 1 {
		t.Errorf("requests: got %d, want exactly 1", count)
	}
	if ua != "Mozilla/5.0" {
		t.Errorf("User-Agent: got %q", ua)
	}
	if uri != "/quote.ashx?t=AAPL" {
		t.Errorf("request URI: got %q", uri)
	}
}

func TestFinvizFetchNon200(t *testing.T) {
	ts, _ := finvizServer(t, http.StatusInternalServerError, quotePage([]string{"Beta", "1.24"}))

	_, err := newTestFinviz(ts.URL).FetchSnapshot(context.Background(), "AAPL")
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fetchErr.StatusCode() != http.StatusInternalServerError {
		t.Errorf("StatusCode: got %d", fetchErr.StatusCode())
	}
	if fetchErr.Ticker != "AAPL" {
		t.Errorf("Ticker: got %q", fetchErr.Ticker)
	}
}

func TestFinvizFetchTableMissing(t *testing.T) {
	ts, _ := finvizServer(t, http.StatusOK, "<html><body><p>Ticker not found</p></body></html>")

	_, err := newTestFinviz(ts.URL).FetchSnapshot(context.Background(), "ZZZZ")
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
}

func TestFinvizFetchTimeout(t *testing.T) {
	ts, _ := finvizServer(t, http.StatusOK, quotePage())
	fv := newTestFinviz(ts.URL)
	fv.timeout = time.Nanosecond

	_, err := fv.FetchSnapshot(context.Background(), "AAPL")
	if KindOf(err) != KindFetch {
		t.Fatalf("timeout should be a fetch failure, got %v", err)
	}
}

func TestFinvizSnapshotAndFundamentals(t *testing.T) {
	ts, _ := finvizServer(t, http.StatusOK, quotePage(
		[]string{"ROA", "28.30%", "Current Ratio", "0.87"},
		[]string{"Gross Margin", "46.21%", "Shs Outstand", "15.12B"},
	))
	fv := newTestFinviz(ts.URL)

	snap, err := fv.Snapshot(context.Background(), "msft")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Ticker != "MSFT" || len(snap.Pairs) != 4 {
		t.Errorf("Snapshot: %+v", snap)
	}

	rec, err := fv.Fundamentals(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("Fundamentals: %v", err)
	}
	if v, ok := rec.Get("ROA"); !ok || v != "28.30%" {
		t.Errorf("ROA: got %q, %v", v, ok)
	}
	if _, ok := rec.Get("Prev ROA"); ok {
		t.Error("Prev ROA is not published by Finviz and should be absent")
	}
}
