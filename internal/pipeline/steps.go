package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/renutil/rensweep/internal/extract"
	"github.com/renutil/rensweep/internal/index"
	"github.com/renutil/rensweep/internal/model"
	"github.com/renutil/rensweep/internal/normalize"
	"github.com/renutil/rensweep/internal/resolve"
)

// IndexStep builds the image index from the report's images root.
type IndexStep struct {
	// indexer performs the walk.
	indexer *index.Indexer
}

// NewIndexStep creates an index step using the given indexer.
func NewIndexStep(indexer *index.Indexer) *IndexStep {
	return &IndexStep{indexer: indexer}
}

// Name returns the step name.
func (s *IndexStep) Name() string {
	return "index_images"
}

// Do executes the index step.
func (s *IndexStep) Do(ctx context.Context, report *model.SweepReport) error {
	ix, err := s.indexer.Index(ctx, report.ImagesRoot)
	if err != nil {
		return err
	}

	report.Index = ix
	report.ImageCount = ix.FileCount()
	report.Collisions = ix.Collisions()
	report.AddWarnings(ix.Warnings...)
	return nil
}

// ExtractStep builds the usage index from the report's scripts root.
type ExtractStep struct {
	// extractor performs the walk and pattern scan.
	extractor *extract.Extractor
}

// NewExtractStep creates an extract step using the given extractor.
func NewExtractStep(extractor *extract.Extractor) *ExtractStep {
	return &ExtractStep{extractor: extractor}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract_references"
}

// Do executes the extract step.
func (s *ExtractStep) Do(ctx context.Context, report *model.SweepReport) error {
	usage, err := s.extractor.Extract(ctx, report.ScriptsRoot)
	if err != nil {
		return err
	}

	report.Usage = usage
	report.ScriptCount = s.extractor.ScriptCount(report.ScriptsRoot)
	report.ReferenceCount = usage.Len()
	report.AddWarnings(usage.Warnings...)
	return nil
}

// ResolveStep computes the unused set from the two indexes.
type ResolveStep struct {
	// normalizer is needed for the basename fallback rules.
	normalizer *normalize.Normalizer

	// opts control fallback matching and protected identifiers.
	opts resolve.Options

	// logger for structured logging.
	logger *slog.Logger
}

// NewResolveStep creates a resolve step.
func NewResolveStep(normalizer *normalize.Normalizer, opts resolve.Options) *ResolveStep {
	return &ResolveStep{
		normalizer: normalizer,
		opts:       opts,
		logger:     slog.Default(),
	}
}

// Name returns the step name.
func (s *ResolveStep) Name() string {
	return "resolve_unused"
}

// Do executes the resolve step.
// It requires both indexes; running it without them is a wiring bug.
func (s *ResolveStep) Do(_ context.Context, report *model.SweepReport) error {
	if report.Index == nil || report.Usage == nil {
		return errors.New("resolve step requires index and extract steps to run first")
	}

	report.Unused = resolve.Resolve(report.Index, report.Usage, s.normalizer, s.opts)

	s.logger.Debug("unused set resolved",
		"images", report.ImageCount,
		"referenced", report.ReferenceCount,
		"unused", report.UnusedCount(),
	)
	return nil
}

// DuplicateStep groups byte-identical images by content hash.
// It only produces results when the indexer ran with hashing enabled.
type DuplicateStep struct{}

// NewDuplicateStep creates a duplicate detection step.
func NewDuplicateStep() *DuplicateStep {
	return &DuplicateStep{}
}

// Name returns the step name.
func (s *DuplicateStep) Name() string {
	return "detect_duplicates"
}

// Do executes the duplicate step.
func (s *DuplicateStep) Do(_ context.Context, report *model.SweepReport) error {
	if report.Index == nil {
		return errors.New("duplicate step requires the index step to run first")
	}

	dups := index.Duplicates(report.Index)
	if len(dups) > 0 {
		report.Duplicates = dups
	}
	return nil
}
