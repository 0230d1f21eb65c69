package datasource

import (
	"fmt"

	"github.com/seenimoa/finmetrics/internal/config"
)

// NewFundamentalsSource returns the source named by fundamentals.provider.
// The Finviz source reuses finviz; the FMP source fails without an API key.
func NewFundamentalsSource(cfg *config.Config, finviz *Finviz) (FundamentalsSource, error) {
	switch cfg.Fundamentals.Provider {
	case config.ProviderFinviz, "":
		return finviz, nil
	case config.ProviderFMP:
		fmp, err := NewFMP(cfg.FMP, cfg.Finviz.Timeout())
		if err != nil {
			return nil, err
		}
		return fmp, nil
	default:
		return nil, fmt.Errorf("unknown fundamentals provider %q", cfg.Fundamentals.Provider)
	}
}
