package report

import (
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"

	"github.com/renutil/rensweep/internal/model"
)

// MarkdownWriter outputs reports in GitHub Flavored Markdown, for pasting
// into issues or project documentation. The nao1215/markdown library
// gives type-safe tables and alert blocks.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.SweepReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeUnused(md, report)
	w.writeCollisions(md, report)
	w.writeDuplicates(md, report)
	w.writeWarnings(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.SweepReport) {
	md.H1("Rensweep Report")
	md.PlainText("")

	rows := [][]string{
		{"Images root", "`" + report.ImagesRoot + "`"},
		{"Scripts root", "`" + report.ScriptsRoot + "`"},
		{"Scan date", report.DateScanned.Format("2006-01-02 15:04:05 MST")},
		{"Status", w.statusText(report)},
	}
	if report.ProjectRoot != "" {
		rows = append([][]string{{"Project", "`" + report.ProjectRoot + "`"}}, rows...)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// statusText returns the status cell based on report state.
func (w *MarkdownWriter) statusText(report *model.SweepReport) string {
	if report.Cancelled {
		return "⚠️ Cancelled (partial results)"
	}
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	return "✅ Complete"
}

// writeSummary writes the counts section with an alert verdict.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.SweepReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Images indexed", strconv.Itoa(report.ImageCount)},
			{"Scripts scanned", strconv.Itoa(report.ScriptCount)},
			{"Referenced identifiers", strconv.Itoa(report.ReferenceCount)},
			{"**Unused images**", "**" + strconv.Itoa(report.UnusedCount()) + "**"},
		},
	})
	md.PlainText("")

	switch {
	case report.UnusedCount() > 0:
		md.Warningf(
			"%d unused image(s) found, %s reclaimable. Review the list below before deleting.",
			report.UnusedCount(),
			humanize.Bytes(uint64(report.Unused.TotalSize())), //nolint:gosec // Sizes are non-negative
		)
	case report.ImageCount > 0:
		md.Tip("Every indexed image is referenced by at least one script.")
	default:
		md.Note("No images were indexed.")
	}
	md.PlainText("")
}

// writeUnused writes the unused image table.
func (w *MarkdownWriter) writeUnused(md *markdown.Markdown, report *model.SweepReport) {
	if report.Unused == nil || report.Unused.Len() == 0 {
		return
	}

	md.H2("Unused Images")
	md.PlainText("")

	rows := make([][]string, 0, report.Unused.Len())
	for _, img := range report.Unused.Images {
		rows = append(rows, []string{
			"`" + img.ID + "`",
			"`" + joinPaths(img.Paths) + "`",
			humanize.Bytes(uint64(img.Size)), //nolint:gosec // Sizes are non-negative
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Identifier", "File(s)", "Size"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeCollisions writes the ambiguous identifier section.
func (w *MarkdownWriter) writeCollisions(md *markdown.Markdown, report *model.SweepReport) {
	if len(report.Collisions) == 0 {
		return
	}

	md.H2("Ambiguous Identifiers")
	md.PlainText("")
	md.Important("The following identifiers map to more than one file. Ambiguous matches are never resolved automatically; all files are kept when the identifier is referenced.")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Collisions))
	for _, id := range sortedKeys(report.Collisions) {
		rows = append(rows, []string{"`" + id + "`", "`" + joinPaths(report.Collisions[id]) + "`"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Identifier", "Files"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeDuplicates writes the duplicate content section.
func (w *MarkdownWriter) writeDuplicates(md *markdown.Markdown, report *model.SweepReport) {
	if len(report.Duplicates) == 0 {
		return
	}

	md.H2("Duplicate Content")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Duplicates))
	for _, hash := range sortedKeys(report.Duplicates) {
		short := hash
		if len(short) > 12 {
			short = short[:12]
		}
		rows = append(rows, []string{"`" + short + "`", "`" + joinPaths(report.Duplicates[hash]) + "`"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Hash", "Files"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeWarnings writes the warnings section.
func (w *MarkdownWriter) writeWarnings(md *markdown.Markdown, report *model.SweepReport) {
	if len(report.Warnings) == 0 {
		return
	}

	md.H2("Warnings")
	md.PlainText("")

	items := make([]string, 0, len(report.Warnings))
	for _, warning := range report.Warnings {
		items = append(items, warning.String())
	}
	md.BulletList(items...)
	md.PlainText("")
}

// joinPaths joins paths for a single table cell.
func joinPaths(paths []string) string {
	out := ""
	for i, p := range paths {
		if i > 0 {
			out += "`, `"
		}
		out += p
	}
	return out
}
