package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/marketdata"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/pipeline"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/scheduler"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/scheduler/jobs"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/store"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/database"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage scheduled jobs",
	Long: `Starts the scheduler daemon or manages its jobs.

Registered jobs:
- price_refresh: daily at 18:00 (fetch recent prices, rerun pipeline)

Subcommands:
  start   - start the scheduler
  list    - list registered jobs
  run     - run a job immediately
  status  - show job execution history

Example:
  go run ./cmd/topology scheduler start
  go run ./cmd/topology scheduler run price_refresh`,
}

var (
	schedulerSymbols string

	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJobNow,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show job execution history",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)

	schedulerCmd.PersistentFlags().StringVar(&schedulerSymbols, "symbols", "", "comma-separated symbols (default: scraped index)")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Correlation Topology Scheduler ===")

	sched, cleanup, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		schedule, _ := sched.Schedule(jobName)
		fmt.Printf("  - %s (%s)\n", jobName, schedule)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		schedule, _ := sched.Schedule(jobName)
		fmt.Printf("  - %s (%s)\n", jobName, schedule)
	}
	return nil
}

func runJobNow(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, cleanup, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	fmt.Println("Job started (running in background)")
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Println("Job history:")
	fmt.Println()

	for _, jobName := range sched.GetAllJobs() {
		history := sched.History(jobName)

		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Total Runs: %d\n", len(history.Results))
		fmt.Printf("   Success Rate: %.1f%%\n", history.GetSuccessRate()*100)

		for _, result := range history.GetLatestResults(5) {
			status := "ok"
			if !result.Success {
				status = "failed: " + result.Error
			}
			fmt.Printf("   %s  %s (%s)\n",
				result.StartTime.Format("2006-01-02 15:04:05"), status, result.Duration)
		}
		fmt.Println()
	}
	return nil
}

// initScheduler builds the scheduler with every job registered. The
// returned cleanup closes the database pool.
func initScheduler(cmd *cobra.Command) (*scheduler.Scheduler, func(), error) {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	// 4. Create market data client and repositories
	client := marketdata.NewClient(cfg, log)
	prices := store.NewPriceRepository(db.Pool)
	runs := store.NewRunRepository(db.Pool)

	// 5. Resolve the symbol universe
	symbols := splitSymbols(schedulerSymbols)
	if len(symbols) == 0 {
		symbols, err = client.FetchIndexSymbols(cmd.Context())
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("scrape index symbols: %w", err)
		}
		log.WithField("count", len(symbols)).Info("Using scraped index universe")
	}

	// 6. Create scheduler and register jobs
	pipe := pipeline.New(log)
	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewRefreshJob(client, prices, runs, pipe, symbols, cfg, log)); err != nil {
		db.Close()
		return nil, nil, err
	}

	return sched, db.Close, nil
}
