package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/store"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/database"
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent pipeline runs",
	Long: `Lists the most recent pipeline run records, newest first.

Example:
  go run ./cmd/topology runs
  go run ./cmd/topology runs --limit 5`,
	RunE: showRuns,
}

var runsLimit int

func init() {
	rootCmd.AddCommand(runsCmd)

	// Flags
	runsCmd.Flags().IntVar(&runsLimit, "limit", 10, "number of runs to show")
}

func showRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	runs, err := store.NewRunRepository(db.Pool).GetRecent(cmd.Context(), runsLimit)
	if err != nil {
		return fmt.Errorf("load runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No pipeline runs recorded yet")
		return nil
	}

	fmt.Println("Recent pipeline runs:")
	fmt.Println()
	for _, run := range runs {
		status := run.StageReached
		if run.Error != "" {
			status = fmt.Sprintf("%s (failed: %s)", run.StageReached, run.Error)
		}
		fmt.Printf("📊 %s\n", run.ID)
		fmt.Printf("   Started:     %s (%s)\n",
			run.StartedAt.Format("2006-01-02 15:04:05"), run.FinishedAt.Sub(run.StartedAt))
		fmt.Printf("   Threshold:   %.2f (seed %d)\n", run.Threshold, run.Seed)
		fmt.Printf("   Assets:      %d, edges: %d, communities: %d\n",
			run.AssetCount, run.EdgeCount, run.Communities)
		fmt.Printf("   Stage:       %s\n", status)
		fmt.Println()
	}
	return nil
}
