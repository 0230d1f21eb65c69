package models

import (
	"encoding/json"
	"testing"
)

func TestFundamentalsGet(t *testing.T) {
	f := Fundamentals{FieldROA: "12.3%", FieldGrossMargin: "-"}

	if v, ok := f.Get(FieldROA); !ok || v != "12.3%" {
		t.Errorf("Get(ROA) = %q, %v", v, ok)
	}
	if v, ok := f.Get(FieldGrossMargin); !ok || v != "-" {
		t.Errorf("Get(Gross Margin) = %q, %v", v, ok)
	}
	if _, ok := f.Get(FieldPrevROA); ok {
		t.Error("expected Prev ROA to be absent")
	}

	var nilRecord Fundamentals
	if _, ok := nilRecord.Get(FieldROA); ok {
		t.Error("expected nil record lookups to miss")
	}
}

func TestFScoreResultJSONKeys(t *testing.T) {
	r := FScoreResult{
		Ticker:    "AAPL",
		Score:     3,
		Breakdown: map[string]int{"roa_positive": 1},
		Data:      Fundamentals{FieldROA: "20%"},
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal(FScoreResult) error: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"ticker", "f_score", "breakdown", "data"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	if raw["f_score"] != float64(3) {
		t.Errorf("f_score: got %v, want 3", raw["f_score"])
	}
}

func TestMetricResultOmitsEmpty(t *testing.T) {
	data, err := json.Marshal(MetricResult{Metric: "beta", Label: "Beta", Value: "1.23"})
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["error"]; ok {
		t.Error("error should be omitted on success")
	}
	if _, ok := raw["kind"]; ok {
		t.Error("kind should be omitted on success")
	}
}

func TestFairValueResultSkipped(t *testing.T) {
	data, err := json.Marshal(FairValueResult{Ticker: "XYZ", Skipped: true, Reason: "missing trailing EPS"})
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["skipped"] != true {
		t.Errorf("skipped: got %v", raw["skipped"])
	}
	if _, ok := raw["verdict"]; ok {
		t.Error("verdict should be omitted when skipped")
	}
}
