package normalize

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
)

// Normalizer converts paths and reference tokens into normalized
// identifiers: case-folded, separator-unified, extension-stripped, with a
// configurable root prefix removed. Normalize is idempotent, so an
// already-normalized identifier passes through unchanged.
type Normalizer struct {
	// rootPrefix is stripped from the front of identifiers so that
	// references relative to the images root and indexed paths compare
	// equal. Stored in normalized form with a trailing slash.
	rootPrefix string

	// caseSensitive disables case folding.
	caseSensitive bool

	// extensions are the recognized image extensions, lowercase with dot.
	extensions map[string]bool

	// folder performs Unicode case folding. Nil when case-sensitive.
	folder *cases.Caser
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithRootPrefix sets a prefix stripped from identifiers, typically the
// images directory name (e.g. "images"). The prefix itself is normalized
// with the same separator and case rules.
func WithRootPrefix(prefix string) Option {
	return func(n *Normalizer) {
		n.rootPrefix = prefix
	}
}

// WithCaseSensitive disables case folding. Ren'Py treats image names
// case-insensitively on most platforms, so folding is the default.
func WithCaseSensitive(sensitive bool) Option {
	return func(n *Normalizer) {
		n.caseSensitive = sensitive
	}
}

// WithExtensions sets the recognized image extensions to strip.
// Extensions are lowercased; a missing dot is added.
func WithExtensions(exts []string) Option {
	return func(n *Normalizer) {
		n.extensions = make(map[string]bool, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(ext)
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			n.extensions[ext] = true
		}
	}
}

// New creates a Normalizer with the given options.
// Without WithExtensions no extension stripping happens, which is almost
// never what callers want; the indexer and extractor always pass the
// configured image extension set.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		extensions: make(map[string]bool),
	}

	for _, opt := range opts {
		opt(n)
	}

	if !n.caseSensitive {
		folder := cases.Fold()
		n.folder = &folder
	}

	// Normalize the prefix with the same rules so comparisons line up.
	if n.rootPrefix != "" {
		prefix := n.unify(n.rootPrefix)
		n.rootPrefix = strings.TrimSuffix(prefix, "/") + "/"
	}

	return n
}

// Normalize canonicalizes a path or reference token into an identifier.
// It never fails; input with no applicable rule is returned as-is (after
// case folding when enabled).
func (n *Normalizer) Normalize(s string) string {
	s = n.unify(s)

	// Strip the prefix until the identifier no longer begins with it.
	// References sometimes repeat the images directory
	// ("images/images/bg") while the indexed path carries it once; both
	// must land on the same identifier, and a single strip would leave
	// Normalize non-idempotent for the repeated form.
	for n.rootPrefix != "" && strings.HasPrefix(s, n.rootPrefix) {
		s = strings.TrimPrefix(s, n.rootPrefix)
	}

	// Strip recognized extensions until none remain so that
	// Normalize(Normalize(x)) == Normalize(x) even for inputs like
	// "sprite.png.png".
	for {
		ext := path.Ext(s)
		if ext == "" || !n.extensions[strings.ToLower(ext)] {
			break
		}
		s = strings.TrimSuffix(s, ext)
	}

	return s
}

// Basename returns the final path element of an identifier.
// Used by the resolver's basename fallback rule.
func (n *Normalizer) Basename(id string) string {
	if i := strings.LastIndexByte(id, '/'); i >= 0 {
		return id[i+1:]
	}
	return id
}

// unify applies case folding and separator normalization.
func (n *Normalizer) unify(s string) string {
	s = strings.ReplaceAll(s, "\\", "/")
	s = strings.TrimPrefix(s, "./")
	s = strings.TrimPrefix(s, "/")
	if n.folder != nil {
		s = n.folder.String(s)
	}
	return s
}
