package model

import "time"

// SweepReport is the main result structure for a single run.
// It accumulates the outputs of the pipeline steps: the image index, the
// usage index, the resolved unused set, and any warnings collected along
// the way. A single flat struct keeps JSON serialization and database
// storage straightforward.
type SweepReport struct {
	// === Run inputs ===

	// ProjectRoot is the project directory the run was started from.
	// Empty when the images and scripts roots were given explicitly.
	ProjectRoot string `json:"project_root,omitempty"`

	// ImagesRoot is the directory that was indexed for image files.
	ImagesRoot string `json:"images_root"`

	// ScriptsRoot is the directory that was scanned for references.
	ScriptsRoot string `json:"scripts_root"`

	// DateScanned is when the run started.
	DateScanned time.Time `json:"date_scanned"`

	// === Step outputs ===

	// Index is the image index produced by the index step.
	// Excluded from JSON due to size; summary counts are serialized instead.
	Index *ImageIndex `json:"-"`

	// Usage is the usage index produced by the extract step.
	// Excluded from JSON due to size.
	Usage *UsageIndex `json:"-"`

	// Unused is the resolver output.
	Unused *UnusedSet `json:"unused,omitempty"`

	// Collisions maps ambiguous identifiers to their colliding file paths.
	Collisions map[string][]string `json:"collisions,omitempty"`

	// Duplicates groups byte-identical images by content hash.
	// Only populated when duplicate detection is enabled.
	Duplicates map[string][]string `json:"duplicates,omitempty"`

	// === Summary counts ===

	// ImageCount is the number of image files indexed.
	ImageCount int `json:"image_count"`

	// ScriptCount is the number of script files scanned.
	ScriptCount int `json:"script_count"`

	// ReferenceCount is the number of distinct referenced identifiers.
	ReferenceCount int `json:"reference_count"`

	// === Run state ===

	// Warnings holds every non-fatal problem from all steps.
	Warnings []Warning `json:"warnings,omitempty"`

	// PerformedSteps lists the pipeline steps that actually ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Cancelled is true if the run was interrupted before completing.
	Cancelled bool `json:"cancelled,omitempty"`

	// Err is the first step error, if any. Excluded from JSON.
	Err error `json:"-"`

	// ErrorMessage is the string form of Err for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewSweepReport creates a report for the given roots with the scan
// timestamp set to now.
func NewSweepReport(imagesRoot, scriptsRoot string) *SweepReport {
	return &SweepReport{
		ImagesRoot:  imagesRoot,
		ScriptsRoot: scriptsRoot,
		DateScanned: time.Now(),
	}
}

// AddWarnings appends warnings to the report.
func (r *SweepReport) AddWarnings(warnings ...Warning) {
	r.Warnings = append(r.Warnings, warnings...)
}

// WarningsOfType returns the warnings matching the given type.
func (r *SweepReport) WarningsOfType(t WarningType) []Warning {
	var out []Warning
	for _, w := range r.Warnings {
		if w.Type == t {
			out = append(out, w)
		}
	}
	return out
}

// UnusedCount returns the number of unused identifiers, zero if the
// resolve step has not run.
func (r *SweepReport) UnusedCount() int {
	return r.Unused.Len()
}

// Failure records a file the applier could not delete.
type Failure struct {
	// Path is the file that failed to delete.
	Path string `json:"path"`

	// Reason is the error message.
	Reason string `json:"reason"`
}

// SweepResult reports the outcome of applying keep/delete decisions.
type SweepResult struct {
	// Deleted lists files that were removed, in deletion order.
	Deleted []string `json:"deleted"`

	// Failed lists files that could not be removed, with reasons.
	Failed []Failure `json:"failed,omitempty"`

	// Skipped lists files that were kept, either by caller decision or
	// because the safety check refused to touch them.
	Skipped []string `json:"skipped,omitempty"`

	// FreedBytes is the combined size of the deleted files.
	FreedBytes int64 `json:"freed_bytes"`
}
