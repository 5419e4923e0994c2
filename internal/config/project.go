package config

import "path/filepath"

// PatternConfig is one user-supplied reference pattern.
// The extractor compiles Regex and records capture group Group (1-based)
// of every match as an image reference. Patterns are applied per line.
type PatternConfig struct {
	// Name identifies the pattern in warnings and debug logs.
	Name string `yaml:"name"`

	// Regex is the pattern source. Compiled with (?i) unless the run is
	// case-sensitive.
	Regex string `yaml:"regex"`

	// Group is the capture group holding the image reference.
	// Defaults to 1 when omitted.
	Group int `yaml:"group,omitempty"`
}

// ProjectConfig holds per-project overrides loaded from .rensweep.
// Every field is optional; zero values mean "use the run defaults".
type ProjectConfig struct {
	// ImagesDir overrides the images directory, relative to the project
	// root unless absolute.
	ImagesDir string `yaml:"imagesDir,omitempty"`

	// ScriptsDir overrides the scripts directory.
	ScriptsDir string `yaml:"scriptsDir,omitempty"`

	// ScriptExtension overrides the script file extension.
	ScriptExtension string `yaml:"scriptExtension,omitempty"`

	// Patterns are additional reference patterns applied on top of the
	// built-in table. Extra patterns can only mark more images as used,
	// never fewer, so adding one is always safe.
	Patterns []PatternConfig `yaml:"patterns,omitempty"`

	// Protect lists normalized identifiers that must never be flagged
	// as unused (e.g. images referenced only from engine-generated code).
	Protect []string `yaml:"protect,omitempty"`
}

// File represents the structure of the .rensweep configuration file.
type File struct {
	// Projects maps project directory names (the final path element) or
	// absolute paths to their overrides.
	Projects map[string]ProjectConfig `yaml:"projects,omitempty"`

	// Defaults applies to every project unless overridden.
	Defaults ProjectConfig `yaml:"defaults,omitempty"`
}

// GetProjectConfig returns the configuration for the given absolute
// project path, merging the project entry over the defaults.
// Lookup tries the absolute path first, then the directory base name.
func (f *File) GetProjectConfig(project string) ProjectConfig {
	result := f.Defaults

	entry, ok := f.Projects[project]
	if !ok {
		entry, ok = f.Projects[filepath.Base(project)]
	}
	if !ok {
		return result
	}

	if entry.ImagesDir != "" {
		result.ImagesDir = entry.ImagesDir
	}
	if entry.ScriptsDir != "" {
		result.ScriptsDir = entry.ScriptsDir
	}
	if entry.ScriptExtension != "" {
		result.ScriptExtension = entry.ScriptExtension
	}
	if len(entry.Patterns) > 0 {
		result.Patterns = append(append([]PatternConfig(nil), result.Patterns...), entry.Patterns...)
	}
	if len(entry.Protect) > 0 {
		result.Protect = append(append([]string(nil), result.Protect...), entry.Protect...)
	}

	return result
}
