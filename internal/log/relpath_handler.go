package log

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// pathKeys contains attribute keys whose values are treated as
// filesystem paths and rewritten to project-relative form.
var pathKeys = map[string]bool{
	"path":         true,
	"file":         true,
	"script":       true,
	"image":        true,
	"dir":          true,
	"root":         true,
	"images_root":  true,
	"scripts_root": true,
	"target":       true,
	"output":       true,
}

// RelPathHandler wraps an slog.Handler to rewrite absolute paths under
// the project root into relative form.
//
// A handler wrapper rather than a custom logger keeps it compatible
// with standard slog APIs and any underlying handler (text, JSON).
type RelPathHandler struct {
	// handler is the underlying slog handler that receives rewritten records.
	handler slog.Handler

	// root is the project root that gets stripped from path values.
	// Stored with a trailing separator so prefix matching cannot turn
	// /project-other into a sibling of /project.
	root string
}

// NewRelPathHandler creates a RelPathHandler wrapping the given handler.
// Paths under root are logged relative to it; everything else passes
// through unchanged. An empty root disables rewriting. If handler is
// nil, the returned handler uses slog.Default().Handler().
func NewRelPathHandler(handler slog.Handler, root string) *RelPathHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
		if !strings.HasSuffix(root, string(filepath.Separator)) {
			root += string(filepath.Separator)
		}
	}
	return &RelPathHandler{handler: handler, root: root}
}

// Enabled reports whether the handler handles records at the given level.
func (h *RelPathHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites the record's path attributes and passes it on.
func (h *RelPathHandler) Handle(ctx context.Context, r slog.Record) error {
	rewritten := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		rewritten.AddAttrs(h.rewriteAttr(a))
		return true
	})

	return h.handler.Handle(ctx, rewritten)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *RelPathHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rewritten := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		rewritten[i] = h.rewriteAttr(a)
	}
	return &RelPathHandler{handler: h.handler.WithAttrs(rewritten), root: h.root}
}

// WithGroup returns a new handler with the given group name.
func (h *RelPathHandler) WithGroup(name string) slog.Handler {
	return &RelPathHandler{handler: h.handler.WithGroup(name), root: h.root}
}

// rewriteAttr rewrites a single attribute, recursively handling groups.
func (h *RelPathHandler) rewriteAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		rewritten := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			rewritten[i] = h.rewriteAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(rewritten...)}
	}

	if h.root == "" || a.Value.Kind() != slog.KindString {
		return a
	}
	if !pathKeys[strings.ToLower(a.Key)] {
		return a
	}

	value := a.Value.String()
	if rel, ok := strings.CutPrefix(value, h.root); ok && rel != "" {
		return slog.String(a.Key, rel)
	}
	return a
}

// NewProjectLogger creates a slog.Logger whose path attributes are
// logged relative to the given project root.
//
// Parameters:
//   - w: the io.Writer to write log output to (typically os.Stderr)
//   - root: the project root; empty disables path rewriting
//   - verbose: if true, sets log level to Debug; otherwise Warn
func NewProjectLogger(w io.Writer, root string, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	return slog.New(NewRelPathHandler(textHandler, root))
}

// NewProjectJSONLogger is NewProjectLogger with JSON output, for
// structured log aggregation.
func NewProjectJSONLogger(w io.Writer, root string, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	return slog.New(NewRelPathHandler(jsonHandler, root))
}
