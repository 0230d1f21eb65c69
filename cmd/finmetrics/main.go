// finmetrics: financial metrics, Piotroski F-Score and fair value for US
// equities.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/seenimoa/finmetrics/api"
	"github.com/seenimoa/finmetrics/internal/config"
	"github.com/seenimoa/finmetrics/internal/logging"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "finmetrics",
	Short: "finmetrics: financial metrics for US equities",
	Long: `finmetrics reads valuation and profitability metrics from the Finviz
quote page, scores the Piotroski F-Score, estimates EPS-growth fair value
and serves it all over an HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if err := logging.Setup(cfg.Logging); err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(metricCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(fscoreCmd)
	rootCmd.AddCommand(fairvalueCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "finmetrics %s\n", version)
		fmt.Fprintf(out, "  commit:  %s\n", commit)
		fmt.Fprintf(out, "  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.API.Port = port
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		api.Version = version
		srv, err := api.NewServer(cfg)
		if err != nil {
			return err
		}

		log.Info().Str("version", version).Str("fundamentals", cfg.Fundamentals.Provider).
			Int("concurrency", cfg.Analysis.ConcurrentFetches).Msg("starting finmetrics API server")
		return srv.ListenAndServe(cfg.API.Addr())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides api.port and PORT)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and API key status",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  finmetrics status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		configFile := cfg.File
		if configFile == "" {
			configFile = "(defaults + environment)"
		}
		fmt.Fprintf(out, "  Config File:   %s\n", configFile)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Configuration:")
		fmt.Fprintf(out, "    Finviz:        %s (timeout %s)\n", cfg.Finviz.BaseURL, cfg.Finviz.Timeout())
		fmt.Fprintf(out, "    Fundamentals:  %s\n", cfg.Fundamentals.Provider)
		fmt.Fprintf(out, "    Concurrency:   %d\n", cfg.Analysis.ConcurrentFetches)
		fmt.Fprintf(out, "    API Server:    %s\n", cfg.API.Addr())
		fmt.Fprintf(out, "    Logging:       %s (%s)\n", cfg.Logging.Level, cfg.Logging.Format)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			if k.Required && !k.IsSet {
				status += " (required)"
			}
			fmt.Fprintf(out, "    %-25s %s\n", k.Name+":", status)
		}

		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}
