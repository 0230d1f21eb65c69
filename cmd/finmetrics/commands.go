package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seenimoa/finmetrics/internal/analysis/fundamental"
	"github.com/seenimoa/finmetrics/internal/analysis/metrics"
	"github.com/seenimoa/finmetrics/internal/config"
	"github.com/seenimoa/finmetrics/internal/datasource"
	"github.com/seenimoa/finmetrics/pkg/models"
	"github.com/seenimoa/finmetrics/pkg/utils"
)

const defaultFScoreTicker = "GOOG"

// newExtractor builds a metric extractor over the configured Finviz source.
func newExtractor(cfg *config.Config) *metrics.Extractor {
	return metrics.NewExtractor(datasource.NewFinviz(cfg.Finviz))
}

// --- Metric Command ---

var metricCmd = &cobra.Command{
	Use:   "metric <name> [ticker]",
	Short: "Print one metric for a ticker",
	Long: `Print one metric for a ticker, or prompt for tickers with --interactive.

Metrics: ` + strings.Join(metrics.Keys(), ", ") + `

Examples:
  finmetrics metric beta AAPL
  finmetrics metric pe_ratio --interactive`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := metrics.Lookup(args[0])
		if err != nil {
			return err
		}
		extractor := newExtractor(cfg)

		interactive, _ := cmd.Flags().GetBool("interactive")
		if interactive {
			return runInteractive(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), extractor, m)
		}
		if len(args) < 2 {
			return fmt.Errorf("ticker is required unless --interactive is set")
		}

		ticker := utils.NormalizeTicker(args[1])
		v, err := extractor.Extract(cmd.Context(), ticker, m.Label)
		if err != nil {
			return fmt.Errorf("unable to retrieve %s for %s: %w", m.Label, ticker, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s for %s is: %s\n", m.Label, ticker, v)
		return nil
	},
}

func init() {
	metricCmd.Flags().BoolP("interactive", "i", false, "prompt for tickers until exit or quit")
}

// runInteractive prompts for tickers on in and prints m for each until the
// user types exit or quit, or input ends.
func runInteractive(ctx context.Context, in io.Reader, out io.Writer, extractor *metrics.Extractor, m metrics.Metric) error {
	fmt.Fprintln(out, "Press 'exit' or 'quit' to stop.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Enter a stock ticker (e.g., AAPL): ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		ticker := utils.NormalizeTicker(scanner.Text())
		switch strings.ToLower(ticker) {
		case "exit", "quit":
			fmt.Fprintln(out, "Exiting...")
			return nil
		case "":
			continue
		}

		v, err := extractor.Extract(ctx, ticker, m.Label)
		if err != nil || v == "" {
			fmt.Fprintf(out, "Unable to retrieve %s. Please check the ticker and try again.\n\n", m.Label)
			continue
		}
		fmt.Fprintf(out, "%s for %s is: %s\n\n", m.Label, ticker, v)
	}
}

// --- Metrics Command ---

var metricsCmd = &cobra.Command{
	Use:   "metrics <ticker>",
	Short: "Print every metric for a ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer := metrics.NewAnalyzer(newExtractor(cfg), cfg.Analysis.ConcurrentFetches)
		report := analyzer.Analyze(cmd.Context(), args[0])
		printReport(cmd.OutOrStdout(), report)
		return nil
	},
}

func printReport(out io.Writer, report *metrics.Report) {
	fmt.Fprintf(out, "Metrics for %s\n", report.Ticker)
	fmt.Fprintln(out, strings.Repeat("-", 50))
	for _, res := range report.Results {
		v := res.Value
		if res.Err != nil {
			v = "Error: " + res.Err.Error()
		}
		fmt.Fprintf(out, "  %-18s %s\n", res.Metric.Key+":", v)
	}
}

// --- F-Score Command ---

var fscoreCmd = &cobra.Command{
	Use:   "fscore [ticker]",
	Short: "Compute the Piotroski F-Score",
	Long: `Compute the Piotroski F-Score from the configured fundamentals source
(fundamentals.provider: finviz or fmp). The ticker defaults to ` + defaultFScoreTicker + `.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := defaultFScoreTicker
		if len(args) == 1 {
			ticker = args[0]
		}

		source, err := datasource.NewFundamentalsSource(cfg, datasource.NewFinviz(cfg.Finviz))
		if err != nil {
			return err
		}
		res, err := fundamental.NewScorer(source).Score(cmd.Context(), ticker)
		if err != nil {
			return err
		}
		printFScore(cmd.OutOrStdout(), res)
		return nil
	},
}

func printFScore(out io.Writer, res models.FScoreResult) {
	fmt.Fprintf(out, "\nPiotroski F-Score for %s: %d/%d\n", res.Ticker, res.Score, fundamental.MaxFScore)
	fmt.Fprintln(out, strings.Repeat("-", 50))
	for _, line := range fundamental.Checks(res) {
		fmt.Fprintln(out, line)
	}
}

// --- Fair Value Command ---

var fairvalueCmd = &cobra.Command{
	Use:     "fairvalue <tickers>",
	Short:   "Estimate EPS-growth fair value for comma-separated tickers",
	Example: `  finmetrics fairvalue AAPL,MSFT,GOOG`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tickers := utils.SplitTickers(args[0])
		if len(tickers) == 0 {
			return fmt.Errorf("no tickers given")
		}

		yahoo := datasource.NewYahoo(cfg.Yahoo, cfg.Finviz.Timeout())
		valuer := fundamental.NewValuer(yahoo, cfg.Analysis.ConcurrentFetches)
		for _, res := range valuer.ValueMany(cmd.Context(), tickers) {
			printFairValue(cmd.OutOrStdout(), res)
		}
		return nil
	},
}

func printFairValue(out io.Writer, res models.FairValueResult) {
	if res.Skipped {
		if strings.HasPrefix(res.Reason, "missing ") {
			fmt.Fprintf(out, "Data for %s is %s. Skipping.\n\n", res.Ticker, res.Reason)
		} else {
			fmt.Fprintf(out, "Unable to evaluate %s: %s. Skipping.\n\n", res.Ticker, res.Reason)
		}
		return
	}

	fmt.Fprintf(out, "Ticker: %s\n", res.Ticker)
	fmt.Fprintf(out, "  Trailing EPS: %v\n", res.TrailingEPS)
	fmt.Fprintf(out, "  Calculated EPS Growth Rate: %.2f%%\n", res.GrowthRatePct)
	fmt.Fprintf(out, "  Current Price: %s\n", utils.FormatUSD(res.CurrentPrice))
	fmt.Fprintf(out, "  Calculated Fair Value: %s\n", utils.FormatUSD(res.FairValue))
	fmt.Fprintf(out, "  Suggestion: %s\n\n", fundamental.Suggestion(res))
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news <ticker>",
	Short: "Print recent headlines for a ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		news := datasource.NewNews(cfg.Yahoo, cfg.Finviz.Timeout())

		headlines, err := news.Headlines(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		printHeadlines(cmd.OutOrStdout(), headlines)
		return nil
	},
}

func init() {
	newsCmd.Flags().Int("limit", 10, "maximum number of headlines")
}

func printHeadlines(out io.Writer, headlines []models.Headline) {
	if len(headlines) == 0 {
		fmt.Fprintln(out, "No headlines found.")
		return
	}
	for _, h := range headlines {
		day := "          "
		if !h.PublishedAt.IsZero() {
			day = h.PublishedAt.Format("2006-01-02")
		}
		fmt.Fprintf(out, "%s  %s\n            %s\n", day, h.Title, h.URL)
	}
}
