package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/seenimoa/finmetrics/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{"WARN", zerolog.WarnLevel, false},
		{" error ", zerolog.ErrorLevel, false},
		{"loud", zerolog.NoLevel, true},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if !tc.wantErr && got != tc.want {
			t.Errorf("ParseLevel(%q): got %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSetupWriterJSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	if err := SetupWriter(config.LoggingConfig{Level: "warn", Format: "json"}, &buf); err != nil {
		t.Fatalf("SetupWriter: %v", err)
	}

	log.Info().Msg("dropped")
	log.Warn().Str("ticker", "AAPL").Msg("kept")

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "dropped") {
		t.Errorf("info line should be filtered at warn level: %s", out)
	}

	var line map[string]any
	if err := json.Unmarshal([]byte(out), &line); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", out, err)
	}
	if line["ticker"] != "AAPL" || line["message"] != "kept" {
		t.Errorf("unexpected fields: %v", line)
	}
}

func TestSetupWriterText(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	if err := SetupWriter(config.LoggingConfig{Level: "info", Format: "text"}, &buf); err != nil {
		t.Fatalf("SetupWriter: %v", err)
	}
	log.Info().Msg("hello console")

	if !strings.Contains(buf.String(), "hello console") {
		t.Errorf("console output missing message: %q", buf.String())
	}
	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("text format should not emit JSON: %q", buf.String())
	}
}

func TestSetupInvalidLevel(t *testing.T) {
	if err := Setup(config.LoggingConfig{Level: "chatty"}); err == nil {
		t.Error("expected error for unknown level")
	}
}
