package model

import "fmt"

// WarningType classifies non-fatal problems accumulated during a run.
// Only missing root paths abort a run; everything else becomes a Warning
// and is surfaced next to the results.
type WarningType string

// Warning types. The string values appear in JSON reports and the
// history database, so they are stable identifiers.
const (
	// WarningUnreadableFile marks a file or directory that could not be
	// read; the walk skipped it and continued.
	WarningUnreadableFile WarningType = "unreadable_file"

	// WarningAmbiguousImageID marks two or more image files that normalize
	// to the same identifier. All colliding files are kept and all count
	// as used when the identifier is referenced.
	WarningAmbiguousImageID WarningType = "ambiguous_image_id"

	// WarningDeletionFailed marks a file the applier could not delete.
	// Remaining deletions still proceed.
	WarningDeletionFailed WarningType = "deletion_failed"

	// WarningSkippedUnsafePath marks a file the applier refused to delete
	// because its resolved path escaped the images root.
	WarningSkippedUnsafePath WarningType = "skipped_unsafe_path"
)

// Warning is a non-fatal problem tied to a path.
type Warning struct {
	// Type classifies the warning.
	Type WarningType `json:"type"`

	// Path is the file or directory the warning refers to.
	Path string `json:"path"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

// NewWarning creates a Warning with a formatted message.
func NewWarning(t WarningType, path, format string, args ...any) Warning {
	return Warning{
		Type:    t,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	}
}

// String returns the warning in "type: path: message" form.
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Type, w.Path, w.Message)
}
