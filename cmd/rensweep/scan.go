package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/renutil/rensweep/internal/config"
	"github.com/renutil/rensweep/internal/database"
	"github.com/renutil/rensweep/internal/extract"
	"github.com/renutil/rensweep/internal/index"
	"github.com/renutil/rensweep/internal/log"
	"github.com/renutil/rensweep/internal/model"
	"github.com/renutil/rensweep/internal/normalize"
	"github.com/renutil/rensweep/internal/pipeline"
	"github.com/renutil/rensweep/internal/report"
	"github.com/renutil/rensweep/internal/resolve"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [project-dir...]",
		Short: "Report images that no script references",
		Long: `Scan indexes every image under the images directory, extracts image
references from the scripts, and reports the images nothing references.

Scan never deletes anything. Each run is saved to the history database
so 'rensweep history' can show how the unused set changes over time.

Examples:
  # Scan a project directory (images/ and game|script|scripts/ are derived)
  rensweep scan ~/projects/mygame

  # Scan several projects concurrently
  rensweep scan gameA gameB gameC

  # Point at the directories explicitly
  rensweep scan --images assets/images --scripts game

  # Output JSON report to a file
  rensweep scan --json -o report.json ~/projects/mygame

  # Detect byte-identical duplicate images as well
  rensweep scan --duplicates ~/projects/mygame

Configuration file (.rensweep) example:
  defaults:
    protect:
      - gui/window_icon
  projects:
    mygame:
      imagesDir: assets/images
      scriptsDir: game
      patterns:
        - name: custom_show
          regex: 'showimg\s+"([^"]+)"'`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	addSweepFlags(cmd)

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-save", false,
		"Do not record this run in the history database")

	return cmd
}

// addSweepFlags registers the flags shared by scan and clean.
func addSweepFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("images", "i", "",
		"Images directory (overrides project-mode derivation; requires --scripts)")
	cmd.Flags().StringP("scripts", "s", "",
		"Scripts directory (overrides project-mode derivation; requires --images)")
	cmd.Flags().String("script-ext", config.DefaultScriptExtension,
		"Script file extension")
	cmd.Flags().Bool("case-sensitive", false,
		"Match identifiers case-sensitively")
	cmd.Flags().Bool("no-basename-fallback", false,
		"Do not match images by bare filename when the full path never appears")
	cmd.Flags().BoolP("duplicates", "d", false,
		"Hash image contents and report byte-identical duplicates")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of projects scanned concurrently")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .rensweep in current or home directory)")
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return err
	}
	cfg.SaveToDB = !noSave

	ctx, cancel := signalContext(slog.Default())
	defer cancel()

	targets, err := resolveTargets(cfg)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg, targets)
	slog.SetDefault(logger)

	return runSweeps(ctx, cfg, targets, logger, nil)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.ImagesRoot, err = cmd.Flags().GetString("images")
	if err != nil {
		return nil, err
	}

	cfg.ScriptsRoot, err = cmd.Flags().GetString("scripts")
	if err != nil {
		return nil, err
	}

	cfg.ScriptExtension, err = cmd.Flags().GetString("script-ext")
	if err != nil {
		return nil, err
	}

	cfg.CaseSensitive, err = cmd.Flags().GetBool("case-sensitive")
	if err != nil {
		return nil, err
	}

	noFallback, err := cmd.Flags().GetBool("no-basename-fallback")
	if err != nil {
		return nil, err
	}
	cfg.BasenameFallback = !noFallback

	cfg.DetectDuplicates, err = cmd.Flags().GetBool("duplicates")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load pattern table and per-project overrides from the config file.
	// An explicitly given path must exist; otherwise a missing file just
	// means no overrides.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.File, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if f := cmd.Flags().Lookup("json"); f != nil {
		cfg.JSONReport, err = cmd.Flags().GetBool("json")
		if err != nil {
			return nil, err
		}
	}
	if f := cmd.Flags().Lookup("markdown"); f != nil {
		cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
		if err != nil {
			return nil, err
		}
	}
	if f := cmd.Flags().Lookup("output"); f != nil {
		cfg.ReportFile, err = cmd.Flags().GetString("output")
		if err != nil {
			return nil, err
		}
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.DBDir = config.XDGDataDir()

	// Positional arguments are project directories
	cfg.Targets = args

	return cfg, nil
}

// setupLogger creates a structured logger. When there is exactly one
// target, paths under its project root are logged in relative form.
func setupLogger(cfg *config.Config, targets []pipeline.Target) *slog.Logger {
	root := ""
	if len(targets) == 1 {
		root = targets[0].Project
	}
	return log.NewProjectLogger(os.Stderr, root, cfg.Verbose)
}

// resolveTargets turns the configuration into concrete root pairs.
// A missing images or scripts directory is fatal here, before any
// walking begins.
func resolveTargets(cfg *config.Config) ([]pipeline.Target, error) {
	if len(cfg.Targets) == 0 {
		roots, err := cfg.ExplicitRoots()
		if err != nil {
			return nil, err
		}
		return []pipeline.Target{{
			ImagesRoot:  roots.Images,
			ScriptsRoot: roots.Scripts,
		}}, nil
	}

	targets := make([]pipeline.Target, 0, len(cfg.Targets))
	for _, project := range cfg.Targets {
		roots, err := cfg.ResolveRoots(project)
		if err != nil {
			return nil, err
		}
		targets = append(targets, pipeline.Target{
			Project:     roots.Project,
			ImagesRoot:  roots.Images,
			ScriptsRoot: roots.Scripts,
		})
	}
	return targets, nil
}

// runSweeps executes the pipeline over every target and hands each
// finished report to onReport (if non-nil) after output and persistence.
func runSweeps(ctx context.Context, cfg *config.Config, targets []pipeline.Target, logger *slog.Logger, onReport func(*model.SweepReport, pipeline.Target)) error {
	logger.Info("starting sweep",
		"targets", len(targets),
		"basename_fallback", cfg.BasenameFallback,
		"duplicates", cfg.DetectDuplicates,
	)

	var db *database.HistoryDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		logger.Debug("history database opened", "dir", cfg.DBDir)
	}

	if len(targets) > 1 && cfg.BatchSize > 1 {
		return runBatchSweep(ctx, cfg, targets, db, logger, onReport)
	}
	return runSequentialSweep(ctx, cfg, targets, db, logger, onReport)
}

// runSequentialSweep sweeps targets one at a time.
// A failed sweep aborts the run: the error taxonomy treats a missing or
// unwalkable root as fatal, and later targets rarely make sense after one.
func runSequentialSweep(ctx context.Context, cfg *config.Config, targets []pipeline.Target, db *database.HistoryDB, logger *slog.Logger, onReport func(*model.SweepReport, pipeline.Target)) error {
	for _, target := range targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		p, err := newPipelineForTarget(cfg, target, logger)
		if err != nil {
			return err
		}

		sweepReport := model.NewSweepReport(target.ImagesRoot, target.ScriptsRoot)
		sweepReport.ProjectRoot = target.Project

		startTime := time.Now()
		if err := p.Execute(ctx, sweepReport); err != nil {
			return fmt.Errorf("sweep failed for %s: %w", describeTarget(target), err)
		}
		logger.Debug("sweep finished",
			"target", describeTarget(target),
			"elapsed", time.Since(startTime).Round(time.Millisecond),
		)

		if err := outputReport(cfg, sweepReport); err != nil {
			return fmt.Errorf("report failed: %w", err)
		}

		if err := saveSweepReport(ctx, db, sweepReport, logger); err != nil {
			logger.Error("failed to save sweep report",
				"target", describeTarget(target), "error", err)
		}

		if onReport != nil {
			onReport(sweepReport, target)
		}
	}

	return nil
}

// runBatchSweep sweeps multiple projects concurrently using BatchProcessor.
func runBatchSweep(ctx context.Context, cfg *config.Config, targets []pipeline.Target, db *database.HistoryDB, logger *slog.Logger, onReport func(*model.SweepReport, pipeline.Target)) error {
	fmt.Printf("Sweeping %d projects (concurrency: %d)...\n\n",
		len(targets), cfg.BatchSize)

	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		func(t pipeline.Target) *pipeline.Pipeline {
			p, err := newPipelineForTarget(cfg, t, logger)
			if err != nil {
				// A broken user pattern degrades this project to the
				// built-in table instead of aborting the whole batch.
				logger.Warn("falling back to built-in patterns",
					"project", t.Project, "error", err)
				plain := *cfg
				plain.File = nil
				p, _ = newPipelineForTarget(&plain, t, logger)
			}
			return p
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	// Serialize report output; sweeps complete on arbitrary goroutines.
	var mu sync.Mutex
	err := bp.ProcessBatch(ctx, targets, func(sweepReport *model.SweepReport, i int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Printf("[%d/%d] %s\n", i+1, len(targets), describeTarget(targets[i]))

		if err := outputReport(cfg, sweepReport); err != nil {
			logger.Error("report failed",
				"target", describeTarget(targets[i]), "error", err)
		}

		if err := saveSweepReport(ctx, db, sweepReport, logger); err != nil {
			logger.Error("failed to save sweep report",
				"target", describeTarget(targets[i]), "error", err)
		}

		if onReport != nil {
			onReport(sweepReport, targets[i])
		}
	})

	fmt.Printf("\nBatch sweep completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	return err
}

// newPipelineForTarget assembles the index/extract/resolve pipeline for
// one root pair, honoring per-project overrides from the config file.
func newPipelineForTarget(cfg *config.Config, target pipeline.Target, logger *slog.Logger) (*pipeline.Pipeline, error) {
	var override config.ProjectConfig
	if cfg.File != nil {
		override = cfg.File.GetProjectConfig(target.Project)
	}

	scriptExt := cfg.ScriptExtension
	if override.ScriptExtension != "" {
		scriptExt = override.ScriptExtension
	}

	imagesDirName := filepath.Base(target.ImagesRoot)

	normalizer := normalize.New(
		normalize.WithRootPrefix(imagesDirName),
		normalize.WithCaseSensitive(cfg.CaseSensitive),
		normalize.WithExtensions(cfg.ImageExtensions),
	)

	indexer := index.New(normalizer, cfg.ImageExtensions,
		index.WithHashing(cfg.DetectDuplicates),
		index.WithLogger(logger),
	)

	extractOpts := []extract.Option{
		extract.WithImagesPrefix(imagesDirName),
		extract.WithLogger(logger),
	}
	if len(override.Patterns) > 0 {
		userPatterns, err := extract.CompilePatterns(override.Patterns, cfg.CaseSensitive)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern in config file: %w", err)
		}
		extractOpts = append(extractOpts, extract.WithUserPatterns(userPatterns))
	}
	extractor := extract.New(normalizer, scriptExt, cfg.ImageExtensions, cfg.CaseSensitive, extractOpts...)

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(
		pipeline.NewIndexStep(indexer),
		pipeline.NewExtractStep(extractor),
		pipeline.NewResolveStep(normalizer, resolve.Options{
			BasenameFallback: cfg.BasenameFallback,
			Protect:          override.Protect,
		}),
	)
	if cfg.DetectDuplicates {
		p.AddSteps(pipeline.NewDuplicateStep())
	}

	return p, nil
}

// describeTarget names a target for log and progress lines.
func describeTarget(t pipeline.Target) string {
	if t.Project != "" {
		return t.Project
	}
	return t.ImagesRoot
}

// outputReport outputs the sweep report in the requested format.
func outputReport(cfg *config.Config, sweepReport *model.SweepReport) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (full report with all data)
	if cfg.JSONReport {
		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		return encoder.Encode(sweepReport)
	}

	// Markdown output
	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(sweepReport)
		return err
	}

	// Human-readable report (default)
	writer := report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	_, err := writer.Write(sweepReport)
	return err
}

// saveSweepReport saves the sweep report to the history database.
// If db is nil, this function is a no-op.
func saveSweepReport(ctx context.Context, db *database.HistoryDB, sweepReport *model.SweepReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	id, err := db.SaveSweepReport(ctx, sweepReport)
	if err != nil {
		return fmt.Errorf("failed to save sweep report: %w", err)
	}

	logger.Debug("sweep report saved", "id", id)
	return nil
}
