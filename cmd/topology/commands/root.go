package commands

import (
	"github.com/spf13/cobra"

	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/config"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "topology",
	Short: "Financial market correlation topology pipeline",
	Long: `Correlation topology CLI

Fetches daily price history, computes log-free percentage returns and
their Pearson correlation matrix, thresholds it into a weighted network,
detects communities and lays the graph out in 3D.

Usage:
  go run ./cmd/topology [command]

Examples:
  go run ./cmd/topology fetch AAPL MSFT GOOG
  go run ./cmd/topology run --symbols AAPL,MSFT,GOOG
  go run ./cmd/topology api
  go run ./cmd/topology scheduler start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file to load (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "force debug log level")
}

// loadConfig applies the global flags on top of the environment. Every
// subcommand goes through here instead of config.Load directly.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(configFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
