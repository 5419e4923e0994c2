package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Extension and directory defaults follow Ren'Py project conventions.
const (
	// DefaultScriptExtension is the Ren'Py script file extension.
	DefaultScriptExtension = ".rpy"

	// DefaultImagesDirName is the conventional images directory under a
	// project root.
	DefaultImagesDirName = "images"

	// DefaultBatchSize is the number of projects scanned concurrently
	// when multiple project directories are given.
	DefaultBatchSize = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "rensweep"
)

// DefaultImageExtensions are the recognized image file extensions.
// The set covers the raster and vector formats Ren'Py projects ship;
// extensions are matched case-insensitively.
var DefaultImageExtensions = []string{
	".png", ".jpg", ".jpeg", ".avif", ".webp", ".svg",
}

// ScriptDirNames are the directory names conventionally holding scripts
// in a Ren'Py project, in lookup order.
var ScriptDirNames = []string{"game", "script", "scripts"}

// Config holds all options for a sweep run.
// It is populated from CLI flags and the optional .rensweep file, then
// passed explicitly into each component; there is no process-wide state.
type Config struct {
	// Targets is the list of project directories to scan. In project
	// mode the images and scripts roots are derived per target.
	Targets []string

	// ImagesRoot is an explicit images directory. When set (together
	// with ScriptsRoot) project-mode derivation is skipped.
	ImagesRoot string

	// ScriptsRoot is an explicit scripts directory.
	ScriptsRoot string

	// ImageExtensions are the recognized image file extensions,
	// lowercase, each with a leading dot.
	ImageExtensions []string

	// ScriptExtension is the script file extension, with a leading dot.
	ScriptExtension string

	// CaseSensitive disables case folding in identifier normalization.
	// Ren'Py references are case-insensitive by convention, so the
	// default is false.
	CaseSensitive bool

	// BasenameFallback enables matching an image by bare filename when
	// its full relative path never appears in the scripts. Disabling it
	// makes classification stricter and may flag images referenced via a
	// different path form.
	BasenameFallback bool

	// DetectDuplicates enables content hashing of indexed images to
	// report byte-identical duplicates.
	DetectDuplicates bool

	// BatchSize is the number of projects scanned concurrently.
	BatchSize int

	// ConfigFilePath is the path to the .rensweep file. Empty means
	// search the current directory and then the home directory.
	ConfigFilePath string

	// File holds the loaded .rensweep contents (pattern table and
	// per-project overrides). Nil when no file was found.
	File *File

	// Verbose enables debug-level log output.
	Verbose bool

	// JSONReport selects JSON output instead of the human-readable report.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// SaveToDB persists the sweep report to the history database.
	SaveToDB bool

	// DBDir is the directory holding the history database.
	// Defaults to the XDG data directory.
	DBDir string
}

// NewConfig creates a Config with defaults. Several defaults are
// non-zero (extensions, fallback matching), so relying on zero values
// would be wrong; the constructor also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		ImageExtensions:  append([]string(nil), DefaultImageExtensions...),
		ScriptExtension:  DefaultScriptExtension,
		BasenameFallback: true,
		BatchSize:        DefaultBatchSize,
	}
}

// Validate checks the configuration and returns the first problem found.
// It is called once after flag parsing, before any scanning begins, so
// that invalid runs fail fast with a clear message.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 && (c.ImagesRoot == "" || c.ScriptsRoot == "") {
		return ErrNoTarget
	}

	if len(c.ImageExtensions) == 0 {
		return ErrNoImageExtensions
	}

	if !strings.HasPrefix(c.ScriptExtension, ".") {
		return ErrInvalidScriptExtension
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// Roots holds the resolved directory pair for one run.
type Roots struct {
	// Project is the project root the pair was derived from, if any.
	Project string

	// Images is the images directory.
	Images string

	// Scripts is the scripts directory.
	Scripts string
}

// ResolveRoots derives the images and scripts roots for the given project
// directory, honoring per-project overrides from the config file.
// Both roots must exist; a missing root is fatal per the error taxonomy.
func (c *Config) ResolveRoots(project string) (Roots, error) {
	abs, err := filepath.Abs(project)
	if err != nil {
		return Roots{}, err
	}

	override := c.projectOverride(abs)

	images := filepath.Join(abs, DefaultImagesDirName)
	if override.ImagesDir != "" {
		images = resolveDir(abs, override.ImagesDir)
	}
	if !isDir(images) {
		return Roots{}, wrapPath(ErrImagesRootNotFound, images)
	}

	var scripts string
	if override.ScriptsDir != "" {
		scripts = resolveDir(abs, override.ScriptsDir)
		if !isDir(scripts) {
			return Roots{}, wrapPath(ErrScriptsRootNotFound, scripts)
		}
	} else {
		for _, name := range ScriptDirNames {
			candidate := filepath.Join(abs, name)
			if isDir(candidate) {
				scripts = candidate
				break
			}
		}
		if scripts == "" {
			return Roots{}, wrapPath(ErrNoScriptDir, abs)
		}
	}

	return Roots{Project: abs, Images: images, Scripts: scripts}, nil
}

// ExplicitRoots validates an explicitly supplied images/scripts pair.
func (c *Config) ExplicitRoots() (Roots, error) {
	images, err := filepath.Abs(c.ImagesRoot)
	if err != nil {
		return Roots{}, err
	}
	scripts, err := filepath.Abs(c.ScriptsRoot)
	if err != nil {
		return Roots{}, err
	}

	if !isDir(images) {
		return Roots{}, wrapPath(ErrImagesRootNotFound, images)
	}
	if !isDir(scripts) {
		return Roots{}, wrapPath(ErrScriptsRootNotFound, scripts)
	}

	return Roots{Images: images, Scripts: scripts}, nil
}

// projectOverride returns the per-project config for the given absolute
// project path, falling back to the file defaults.
func (c *Config) projectOverride(project string) ProjectConfig {
	if c.File == nil {
		return ProjectConfig{}
	}
	return c.File.GetProjectConfig(project)
}

// resolveDir interprets dir relative to base unless it is absolute.
func resolveDir(base, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}

// isDir reports whether path exists and is a directory.
func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// wrapPath annotates a sentinel error with the offending path.
func wrapPath(sentinel error, path string) error {
	return &pathError{sentinel: sentinel, path: path}
}

// pathError pairs a sentinel error with a path while keeping errors.Is
// working against the sentinel.
type pathError struct {
	sentinel error
	path     string
}

// Error returns the sentinel message with the path appended.
func (e *pathError) Error() string {
	return e.sentinel.Error() + ": " + e.path
}

// Unwrap exposes the sentinel for errors.Is.
func (e *pathError) Unwrap() error {
	return e.sentinel
}

// XDGDataDir returns the XDG data directory for rensweep.
// On Linux: ~/.local/share/rensweep
// On macOS: ~/Library/Application Support/rensweep
// On Windows: %LOCALAPPDATA%\rensweep
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for rensweep.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
