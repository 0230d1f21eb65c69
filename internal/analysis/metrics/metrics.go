// Package metrics extracts named financial metrics from the Finviz snapshot
// table and runs them concurrently for one ticker.
package metrics

import (
	"fmt"
	"strings"
)

// Metric maps a public metric key to the snapshot label it is read from.
type Metric struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ErrUnknownMetric is returned for a key that is not in the metric table.
var ErrUnknownMetric = fmt.Errorf("unknown metric")

// table lists every supported metric in response order.
var table = []Metric{
	{Key: "beta", Label: "Beta"},
	{Key: "current_ratio", Label: "Current Ratio"},
	{Key: "free_cash_flow", Label: "P/FCF"},
	{Key: "gross_margin", Label: "Gross Margin"},
	{Key: "operating_margin", Label: "Oper. Margin"},
	{Key: "price_to_book", Label: "P/B"},
	{Key: "price_to_sales", Label: "P/S"},
	{Key: "revenue_growth", Label: "Sales Q/Q"},
	{Key: "pe_ratio", Label: "P/E"},
	{Key: "roa", Label: "ROA"},
	{Key: "roe", Label: "ROE"},
	{Key: "debt_to_equity", Label: "Debt/Eq"},
}

// All returns a copy of the metric table in response order.
func All() []Metric {
	out := make([]Metric, len(table))
	copy(out, table)
	return out
}

// Keys returns the metric keys in response order.
func Keys() []string {
	keys := make([]string, len(table))
	for i, m := range table {
		keys[i] = m.Key
	}
	return keys
}

// Lookup returns the metric for key. Keys are matched case-insensitively
// and dashes are accepted in place of underscores.
func Lookup(key string) (Metric, error) {
	k := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
	for _, m := range table {
		if m.Key == k {
			return m, nil
		}
	}
	return Metric{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownMetric, key, strings.Join(Keys(), ", "))
}
