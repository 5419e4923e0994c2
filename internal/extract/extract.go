package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/karrick/godirwalk"

	"github.com/renutil/rensweep/internal/config"
	"github.com/renutil/rensweep/internal/model"
	"github.com/renutil/rensweep/internal/normalize"
)

// Extractor scans script files for image references and folds them into a
// usage index. It performs text-pattern scanning, not language parsing;
// see the package documentation for why over-matching is the safe bias.
type Extractor struct {
	// normalizer computes identifiers with the same rules as the indexer.
	normalizer *normalize.Normalizer

	// scriptExt is the script file extension, lowercase with dot.
	scriptExt string

	// patterns is the compiled pattern table (built-ins plus any
	// user-supplied patterns from the configuration file).
	patterns []Pattern

	// extensions are the recognized image extensions used to decide
	// whether a quoted string literal denotes an image path.
	extensions map[string]bool

	// imagesPrefix, when set, marks quoted literals starting with this
	// directory name (e.g. "images/") as image references even without
	// a recognized extension.
	imagesPrefix string

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithUserPatterns appends compiled user patterns to the built-in table.
func WithUserPatterns(patterns []Pattern) Option {
	return func(e *Extractor) {
		e.patterns = append(e.patterns, patterns...)
	}
}

// WithImagesPrefix marks quoted literals beginning with the given
// directory name as image references.
func WithImagesPrefix(prefix string) Option {
	return func(e *Extractor) {
		prefix = strings.ToLower(strings.Trim(prefix, "/"))
		if prefix != "" {
			e.imagesPrefix = prefix + "/"
		}
	}
}

// WithLogger sets a custom logger for the extractor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor for scripts with the given extension.
// caseSensitive must match the normalizer's setting so that the pattern
// table and the identifier rules agree.
func New(normalizer *normalize.Normalizer, scriptExt string, imageExts []string, caseSensitive bool, opts ...Option) *Extractor {
	e := &Extractor{
		normalizer: normalizer,
		scriptExt:  strings.ToLower(scriptExt),
		patterns:   builtinPatterns(caseSensitive),
		extensions: make(map[string]bool, len(imageExts)),
		logger:     slog.Default(),
	}

	for _, ext := range imageExts {
		e.extensions[strings.ToLower(ext)] = true
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// CompilePatterns compiles user pattern configs for WithUserPatterns.
func CompilePatterns(configs []config.PatternConfig, caseSensitive bool) ([]Pattern, error) {
	return compileUserPatterns(configs, caseSensitive)
}

// Extract walks scriptsRoot and returns the usage index built from every
// reference found. The error is non-nil only for a missing root or
// cancellation; unreadable or non-text files are skipped with warnings.
func (e *Extractor) Extract(ctx context.Context, scriptsRoot string) (*model.UsageIndex, error) {
	root, err := filepath.Abs(scriptsRoot)
	if err != nil {
		return nil, err
	}

	usage := model.NewUsageIndex()
	scripts := 0

	walkErr := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if de.IsDir() || strings.ToLower(filepath.Ext(osPathname)) != e.scriptExt {
				return nil
			}

			scripts++
			if err := e.extractFile(osPathname, usage); err != nil {
				usage.Warnings = append(usage.Warnings, model.NewWarning(
					model.WarningUnreadableFile, osPathname, "%v", err))
			}
			return nil
		},
		ErrorCallback: func(osPathname string, err error) godirwalk.ErrorAction {
			if ctx.Err() != nil {
				return godirwalk.Halt
			}
			usage.Warnings = append(usage.Warnings, model.NewWarning(
				model.WarningUnreadableFile, osPathname, "%v", err))
			return godirwalk.SkipNode
		},
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to walk scripts root: %w", walkErr)
	}

	e.logger.Debug("references extracted",
		"root", root,
		"scripts", scripts,
		"identifiers", usage.Len(),
	)

	return usage, nil
}

// ScriptCount walks scriptsRoot counting script files without extracting.
// Used for report statistics when the extract step is skipped.
func (e *Extractor) ScriptCount(root string) int {
	count := 0
	_ = godirwalk.Walk(root, &godirwalk.Options{ //nolint:errcheck // Count is best-effort
		Unsorted: true,
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if !de.IsDir() && strings.ToLower(filepath.Ext(osPathname)) == e.scriptExt {
				count++
			}
			return nil
		},
		ErrorCallback: func(string, error) godirwalk.ErrorAction {
			return godirwalk.SkipNode
		},
	})
	return count
}

// extractFile scans one script file line by line.
func (e *Extractor) extractFile(path string, usage *model.UsageIndex) error {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from our own directory walk
	if err != nil {
		return err
	}
	if !utf8.Valid(data) {
		return fmt.Errorf("not valid UTF-8 text")
	}

	for i, line := range strings.Split(string(data), "\n") {
		lineNo := i + 1

		for _, p := range e.patterns {
			for _, m := range p.re.FindAllStringSubmatch(line, -1) {
				if p.group >= len(m) {
					continue
				}
				for _, raw := range p.expand(m[p.group]) {
					usage.Add(model.ReferenceToken{
						Raw:    raw,
						ID:     e.normalizer.Normalize(raw),
						Script: path,
						Line:   lineNo,
					})
				}
			}
		}

		e.extractLiterals(line, path, lineNo, usage)
	}

	return nil
}

// extractLiterals records quoted string literals that plausibly denote an
// image: literals carrying a recognized image extension (after stripping
// runtime placeholders like "%s") or starting with the images directory
// name. This covers imagebutton/imagemap declarations, screen language
// `add` statements, and plain Python expressions building image paths.
func (e *Extractor) extractLiterals(line, script string, lineNo int, usage *model.UsageIndex) {
	for _, m := range stringLiteralRe.FindAllStringSubmatch(line, -1) {
		literal := m[1]
		if literal == "" {
			literal = m[2]
		}

		cleaned := stripPlaceholders(literal)
		if cleaned == "" || !e.looksLikeImage(cleaned) {
			continue
		}

		usage.Add(model.ReferenceToken{
			Raw:    literal,
			ID:     e.normalizer.Normalize(cleaned),
			Script: script,
			Line:   lineNo,
		})
	}
}

// looksLikeImage reports whether a cleaned literal denotes an image path.
func (e *Extractor) looksLikeImage(s string) bool {
	lower := strings.ToLower(strings.TrimPrefix(strings.ReplaceAll(s, "\\", "/"), "/"))
	if e.extensions[filepath.Ext(lower)] {
		return true
	}
	return e.imagesPrefix != "" && strings.HasPrefix(lower, e.imagesPrefix)
}
