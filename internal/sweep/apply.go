package sweep

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/renutil/rensweep/internal/model"
)

// Decision is the caller's verdict for one identifier.
type Decision int

// Per-identifier decisions. Keep is the zero value so that an identifier
// missing from the decision map is never deleted.
const (
	// Keep retains every file under the identifier.
	Keep Decision = iota

	// Delete removes every file under the identifier.
	Delete
)

// Applier deletes the files behind unused identifiers.
// Deletion is best-effort per file: a failure is recorded and remaining
// deletions proceed. Directories are never removed, only the indexed files.
type Applier struct {
	// imagesRoot bounds all deletions. A file whose resolved path lies
	// outside this directory is skipped with a warning instead of
	// deleted, whatever the decision says.
	imagesRoot string

	// dryRun reports what would be deleted without touching anything.
	dryRun bool

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures an Applier.
type Option func(*Applier)

// WithDryRun makes Apply report deletions without performing them.
func WithDryRun(dryRun bool) Option {
	return func(a *Applier) {
		a.dryRun = dryRun
	}
}

// WithLogger sets a custom logger for the applier.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Applier) {
		a.logger = logger
	}
}

// New creates an Applier bounded to the given images root.
func New(imagesRoot string, opts ...Option) *Applier {
	a := &Applier{
		imagesRoot: imagesRoot,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Apply executes the decisions against the unused set and returns the
// outcome report. Identifiers absent from decisions are kept. Apply must
// only be called after resolution has fully completed; deleting while an
// index is still being built could act on a partial view.
func (a *Applier) Apply(ctx context.Context, unused *model.UnusedSet, decisions map[string]Decision) (*model.SweepResult, []model.Warning) {
	result := &model.SweepResult{}
	var warnings []model.Warning

	root, err := filepath.Abs(a.imagesRoot)
	if err != nil {
		// Without a trustworthy root the containment check cannot run,
		// so nothing is deleted.
		for _, img := range unused.Images {
			result.Skipped = append(result.Skipped, img.Paths...)
		}
		warnings = append(warnings, model.NewWarning(
			model.WarningSkippedUnsafePath, a.imagesRoot, "cannot resolve images root: %v", err))
		return result, warnings
	}

	for _, img := range unused.Images {
		if ctx.Err() != nil {
			break
		}

		if decisions[img.ID] != Delete {
			result.Skipped = append(result.Skipped, img.Paths...)
			continue
		}

		for _, path := range img.Paths {
			a.deleteFile(path, root, result, &warnings)
		}
	}

	return result, warnings
}

// deleteFile removes a single file after the containment check.
func (a *Applier) deleteFile(path, root string, result *model.SweepResult, warnings *[]model.Warning) {
	abs, err := filepath.Abs(path)
	if err != nil || !contained(root, abs) {
		result.Skipped = append(result.Skipped, path)
		*warnings = append(*warnings, model.NewWarning(
			model.WarningSkippedUnsafePath, path, "resolved outside images root %s", root))
		return
	}

	info, statErr := os.Stat(abs)

	if a.dryRun {
		result.Deleted = append(result.Deleted, abs)
		if statErr == nil {
			result.FreedBytes += info.Size()
		}
		return
	}

	if err := os.Remove(abs); err != nil {
		result.Failed = append(result.Failed, model.Failure{Path: abs, Reason: err.Error()})
		*warnings = append(*warnings, model.NewWarning(
			model.WarningDeletionFailed, abs, "%v", err))
		return
	}

	a.logger.Debug("deleted unused image", "path", abs)
	result.Deleted = append(result.Deleted, abs)
	if statErr == nil {
		result.FreedBytes += info.Size()
	}
}

// DeleteAll returns a decision map deleting every identifier in the set.
func DeleteAll(unused *model.UnusedSet) map[string]Decision {
	decisions := make(map[string]Decision, unused.Len())
	for _, img := range unused.Images {
		decisions[img.ID] = Delete
	}
	return decisions
}

// contained reports whether path lies under root.
// Both arguments must be absolute and cleaned.
func contained(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
