package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/correlation"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/export"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/layout"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/marketdata"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/pipeline"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/store"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/config"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/database"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/logger"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full analysis pipeline",
	Long: `Runs returns → correlation → network → communities → layout and
writes the artifacts (returns.csv, correlation.csv, network.gexf,
communities.json, render.json) into the data directory.

Prices are read from PostgreSQL by default. With --returns, a saved
returns CSV is used instead and the database is not touched.

Example:
  go run ./cmd/topology run --symbols AAPL,MSFT,GOOG
  go run ./cmd/topology run --threshold 0.6 --layout circular
  go run ./cmd/topology run --returns data/returns.csv`,
	RunE: runPipeline,
}

var (
	runSymbols    string
	runThreshold  float64
	runLayoutName string
	runSeed       int64
	runDims       int
	runIters      int
	runSpringK    float64
	runOutDir     string
	runReturnsCSV string
)

func init() {
	rootCmd.AddCommand(runCmd)

	// Flags
	runCmd.Flags().StringVar(&runSymbols, "symbols", "", "comma-separated symbols (default: scraped index)")
	runCmd.Flags().Float64Var(&runThreshold, "threshold", -1, "correlation threshold in [0, 1] (default from config)")
	runCmd.Flags().StringVar(&runLayoutName, "layout", "spring", "layout engine (spring|circular)")
	runCmd.Flags().Int64Var(&runSeed, "seed", -1, "layout RNG seed (default from config)")
	runCmd.Flags().IntVar(&runDims, "dims", 0, "layout dimensions, 2 or 3 (default from config)")
	runCmd.Flags().IntVar(&runIters, "iterations", 0, "layout iteration count (default from config)")
	runCmd.Flags().Float64Var(&runSpringK, "k", 0, "spring constant (default from config)")
	runCmd.Flags().StringVar(&runOutDir, "out", "", "output directory (default from config)")
	runCmd.Flags().StringVar(&runReturnsCSV, "returns", "", "read returns from this CSV instead of the database")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Correlation Topology Pipeline ===")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	pipeCfg := pipelineConfig(cfg)
	outDir := runOutDir
	if outDir == "" {
		outDir = cfg.Analysis.DataDir
	}

	if runReturnsCSV != "" {
		return runFromReturnsCSV(cfg, pipeCfg, outDir, log)
	}
	return runFromDatabase(cmd, cfg, pipeCfg, outDir, log)
}

// runFromDatabase loads price series from the store and runs all five
// stages, persisting a run record alongside the file artifacts.
func runFromDatabase(cmd *cobra.Command, cfg *config.Config, pipeCfg pipeline.Config, outDir string, log *logger.Logger) error {
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	symbols := splitSymbols(runSymbols)
	if len(symbols) == 0 {
		client := marketdata.NewClient(cfg, log)
		symbols, err = client.FetchIndexSymbols(ctx)
		if err != nil {
			return fmt.Errorf("scrape index symbols: %w", err)
		}
		log.WithField("count", len(symbols)).Info("Using scraped index universe")
	}

	from, to, err := resolveWindow(cfg, "", "")
	if err != nil {
		return err
	}

	prices := store.NewPriceRepository(db.Pool)
	seriesSet, err := prices.GetSeriesBatch(ctx, symbols, from, to)
	if err != nil {
		return fmt.Errorf("load price series: %w", err)
	}

	pipe := pipeline.New(log)
	started := time.Now()
	result, runErr := pipe.Run(seriesSet, pipeCfg)
	finished := time.Now()

	runs := store.NewRunRepository(db.Pool)
	if err := runs.Save(ctx, result.RunRecord(pipeCfg, started, finished, runErr)); err != nil {
		log.WithError(err).Warn("Failed to persist run record")
	}
	// Artifacts produced before a failing stage are still written out.
	if err := writeArtifacts(outDir, result, pipeCfg); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("pipeline: %w", runErr)
	}

	printRunSummary(result, pipeCfg, outDir)
	return nil
}

// runFromReturnsCSV skips the returns stage and reruns correlation
// onward from a previously exported returns matrix.
func runFromReturnsCSV(cfg *config.Config, pipeCfg pipeline.Config, outDir string, log *logger.Logger) error {
	f, err := os.Open(runReturnsCSV)
	if err != nil {
		return fmt.Errorf("open returns csv: %w", err)
	}
	defer f.Close()

	returnsMatrix, err := export.ReadReturnsCSV(f)
	if err != nil {
		return fmt.Errorf("read returns csv: %w", err)
	}

	corrMatrix, err := correlation.NewEngine(log).Correlate(returnsMatrix)
	if err != nil {
		return fmt.Errorf("correlation stage: %w", err)
	}

	pipe := pipeline.New(log)
	graph, communities, coords, err := pipe.Analyze(corrMatrix, pipeCfg)
	if err != nil {
		return fmt.Errorf("analysis: %w", err)
	}

	result := &pipeline.Result{
		StageReached: pipeline.StageComplete,
		Returns:      returnsMatrix,
		Correlation:  corrMatrix,
		Graph:        graph,
		Communities:  communities,
		Layout:       coords,
	}
	if err := writeArtifacts(outDir, result, pipeCfg); err != nil {
		return err
	}

	printRunSummary(result, pipeCfg, outDir)
	return nil
}

// writeArtifacts exports every computed artifact into outDir. Artifacts
// for stages that did not run are skipped.
func writeArtifacts(outDir string, result *pipeline.Result, cfg pipeline.Config) error {
	writers := []struct {
		name  string
		skip  bool
		write func(io.Writer) error
	}{
		{
			name: "returns.csv",
			skip: result.Returns == nil,
			write: func(w io.Writer) error {
				return export.WriteReturnsCSV(w, result.Returns)
			},
		},
		{
			name: "correlation.csv",
			skip: result.Correlation == nil,
			write: func(w io.Writer) error {
				return export.WriteCorrelationCSV(w, result.Correlation)
			},
		},
		{
			name: "network.gexf",
			skip: result.Graph == nil,
			write: func(w io.Writer) error {
				return export.WriteGEXF(w, result.Graph)
			},
		},
		{
			name: "communities.json",
			skip: result.Communities == nil,
			write: func(w io.Writer) error {
				return export.WriteCommunitiesJSON(w, result.Communities)
			},
		},
		{
			name: "render.json",
			skip: result.Graph == nil || result.Layout == nil,
			write: func(w io.Writer) error {
				payload := pipeline.RenderPayload(result.Graph, result.Communities, result.Layout, cfg.Threshold)
				return export.WriteRenderPayloadJSON(w, payload)
			},
		},
	}

	for _, artifact := range writers {
		if artifact.skip {
			continue
		}
		path := filepath.Join(outDir, artifact.name)
		if err := export.WriteFile(path, artifact.write); err != nil {
			return fmt.Errorf("write %s: %w", artifact.name, err)
		}
	}
	return nil
}

// pipelineConfig merges command flags over the configured defaults.
func pipelineConfig(cfg *config.Config) pipeline.Config {
	pipeCfg := pipeline.Config{
		Threshold:    cfg.Analysis.Threshold,
		LayoutEngine: runLayoutName,
		Layout: layout.Params{
			Seed:           cfg.Analysis.LayoutSeed,
			Dimensions:     cfg.Analysis.LayoutDim,
			SpringConstant: cfg.Analysis.SpringConstant,
			Iterations:     cfg.Analysis.LayoutIters,
		},
	}
	if runThreshold >= 0 {
		pipeCfg.Threshold = runThreshold
	}
	if runSeed >= 0 {
		pipeCfg.Layout.Seed = runSeed
	}
	if runDims > 0 {
		pipeCfg.Layout.Dimensions = runDims
	}
	if runIters > 0 {
		pipeCfg.Layout.Iterations = runIters
	}
	if runSpringK > 0 {
		pipeCfg.Layout.SpringConstant = runSpringK
	}
	return pipeCfg
}

func splitSymbols(list string) []string {
	if list == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	symbols := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			symbols = append(symbols, strings.ToUpper(s))
		}
	}
	return symbols
}

func printRunSummary(result *pipeline.Result, cfg pipeline.Config, outDir string) {
	communities := 0
	if result.Communities != nil {
		communities = result.Communities.NumCommunities()
	}

	fmt.Println()
	fmt.Printf("✅ Pipeline complete (threshold %.2f, %s layout)\n", cfg.Threshold, cfg.LayoutEngine)
	fmt.Printf("   Assets:      %d\n", len(result.Correlation.Symbols))
	fmt.Printf("   Edges:       %d\n", result.Graph.NumEdges())
	fmt.Printf("   Communities: %d\n", communities)
	fmt.Printf("   Artifacts:   %s\n", outDir)
}
