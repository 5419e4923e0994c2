package config

import "errors"

// Configuration validation errors.
// These are package-level sentinel errors so that callers can use
// errors.Is() for programmatic handling while still getting a
// human-readable message.
var (
	// ErrNoTarget is returned when neither a project directory nor an
	// explicit images/scripts root pair is provided.
	ErrNoTarget = errors.New("no target specified: provide a project directory or --images and --scripts")

	// ErrImagesRootNotFound is returned when the images root does not
	// exist or is not a directory. This is fatal and aborts the run
	// before any scanning begins.
	ErrImagesRootNotFound = errors.New("images root not found")

	// ErrScriptsRootNotFound is returned when the scripts root does not
	// exist or is not a directory.
	ErrScriptsRootNotFound = errors.New("scripts root not found")

	// ErrNoScriptDir is returned in project mode when none of the
	// conventional script directories exist under the project root.
	ErrNoScriptDir = errors.New("no script directory found in project")

	// ErrInvalidScriptExtension is returned when the script extension
	// does not start with a dot.
	ErrInvalidScriptExtension = errors.New("invalid script extension: must start with '.'")

	// ErrNoImageExtensions is returned when the recognized image
	// extension set is empty; an empty set would index nothing.
	ErrNoImageExtensions = errors.New("no image extensions configured")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
