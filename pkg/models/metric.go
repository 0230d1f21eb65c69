// Package models defines the data structures shared by the finmetrics
// packages and returned over the API.
package models

import "time"

// SnapshotPair is one label/value cell pair scraped from a vendor snapshot
// table. Both sides are the trimmed cell text; Value is "" when the row had
// an odd trailing cell.
type SnapshotPair struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Snapshot is the full snapshot table for one ticker, in page order.
type Snapshot struct {
	Ticker    string         `json:"ticker"`
	Pairs     []SnapshotPair `json:"pairs"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// MetricResult is the display form of one extracted metric. Exactly one of
// Value or Error is meaningful; Kind classifies the failure when Error is set.
type MetricResult struct {
	Metric string `json:"metric"`
	Label  string `json:"label"`
	Value  string `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
	Kind   string `json:"kind,omitempty"` // "fetch", "parse", "not_found"
}

// MetricsReport is the display form of a full analysis for one ticker.
type MetricsReport struct {
	Ticker    string         `json:"ticker"`
	Metrics   []MetricResult `json:"metrics"`
	FetchedAt time.Time      `json:"fetched_at"`
}
