package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/marketdata"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/store"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/config"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/database"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/logger"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [symbols...]",
	Short: "Fetch daily price history into the store",
	Long: `Downloads daily close prices for the given symbols and upserts
them into PostgreSQL.

With no symbols, the current index constituents are scraped and used
as the universe.

Example:
  go run ./cmd/topology fetch AAPL MSFT GOOG
  go run ./cmd/topology fetch --limit 50
  go run ./cmd/topology fetch AAPL --start 2020-01-01 --end 2024-01-01`,
	RunE: runFetch,
}

var (
	fetchStart string
	fetchEnd   string
	fetchLimit int
	fetchForce bool
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	// Flags
	fetchCmd.Flags().StringVar(&fetchStart, "start", "", "start date YYYY-MM-DD (default from config)")
	fetchCmd.Flags().StringVar(&fetchEnd, "end", "", "end date YYYY-MM-DD (default from config)")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 0, "max symbols when scraping the index (0 = all)")
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "re-download symbols that already have stored data")
}

func runFetch(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Correlation Topology Fetcher ===")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	from, to, err := resolveWindow(cfg, fetchStart, fetchEnd)
	if err != nil {
		return err
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	client := marketdata.NewClient(cfg, log)
	prices := store.NewPriceRepository(db.Pool)

	ctx := cmd.Context()

	symbols := args
	if len(symbols) == 0 {
		symbols, err = client.FetchIndexSymbols(ctx)
		if err != nil {
			return fmt.Errorf("scrape index symbols: %w", err)
		}
		if fetchLimit > 0 && len(symbols) > fetchLimit {
			symbols = symbols[:fetchLimit]
		}
		log.WithField("count", len(symbols)).Info("Using scraped index universe")
	}

	if !fetchForce {
		var missing []string
		for _, symbol := range symbols {
			exists, err := prices.HasSeries(ctx, symbol, from, to)
			if err != nil {
				return fmt.Errorf("check stored prices: %w", err)
			}
			if !exists {
				missing = append(missing, symbol)
			}
		}
		if skipped := len(symbols) - len(missing); skipped > 0 {
			log.WithField("count", skipped).Info("Skipping symbols with stored data")
		}
		symbols = missing
		if len(symbols) == 0 {
			fmt.Println("All symbols already stored; use --force to re-download")
			return nil
		}
	}

	fmt.Printf("\nFetching %d symbols (%s → %s)\n\n",
		len(symbols), from.Format("2006-01-02"), to.Format("2006-01-02"))

	histories, err := client.FetchHistoryBatch(ctx, symbols, from, to)
	if err != nil {
		return fmt.Errorf("fetch histories: %w", err)
	}

	saved := 0
	for _, history := range histories {
		series := history.ToPriceSeries()
		if err := prices.SaveSeries(ctx, series); err != nil {
			log.WithError(err).WithField("symbol", series.Symbol).Warn("Failed to save series")
			continue
		}
		saved++
	}

	fmt.Printf("✅ Saved %d/%d series\n", saved, len(symbols))
	return nil
}

// resolveWindow picks the date window from flags, falling back to the
// configured analysis window.
func resolveWindow(cfg *config.Config, start, end string) (time.Time, time.Time, error) {
	if start == "" {
		start = cfg.MarketData.StartDate
	}
	if end == "" {
		end = cfg.MarketData.EndDate
	}

	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad start date %q: %w", start, err)
	}
	to, err := time.Parse("2006-01-02", end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad end date %q: %w", end, err)
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date %s is not before end date %s", start, end)
	}
	return from, to, nil
}
