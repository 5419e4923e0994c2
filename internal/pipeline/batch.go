package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/renutil/rensweep/internal/model"
)

// Target is one images/scripts root pair for the batch processor.
type Target struct {
	// Project is the project root the pair was derived from, if any.
	Project string

	// ImagesRoot is the images directory.
	ImagesRoot string

	// ScriptsRoot is the scripts directory.
	ScriptsRoot string
}

// BatchProcessor sweeps multiple projects concurrently.
// Runs share no mutable state: every project gets its own pipeline from
// the factory and its own report, so no locking is needed beyond the
// callback serialization the caller provides.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline per project, so that no
	// pipeline state leaks between runs.
	pipelineFactory func(t Target) *Pipeline

	// concurrency is the maximum number of concurrent sweeps.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent sweeps.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor.
func NewBatchProcessor(pipelineFactory func(t Target) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     4,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch sweeps every target and calls the callback once per
// completed run, passing the report and the target's index in the input
// slice. The callback runs on the goroutine that finished the sweep, so
// it must be safe for concurrent use if it touches shared state.
//
// A failed sweep does not cancel the others; its error is recorded on the
// report. The returned error reports cancellation only.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []Target, callback func(report *model.SweepReport, index int)) error {
	bp.logger.Info("starting batch sweep",
		"total_projects", len(targets),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report := model.NewSweepReport(target.ImagesRoot, target.ScriptsRoot)
			report.ProjectRoot = target.Project

			p := bp.pipelineFactory(target)
			if err := p.Execute(ctx, report); err != nil {
				bp.logger.Warn("sweep failed",
					"project", target.Project,
					"error", err,
				)
				// The error is recorded on the report; other projects
				// still get swept.
			}

			callback(report, i)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch sweep complete",
		"total_projects", len(targets),
		"elapsed", time.Since(startTime),
	)

	return err
}
