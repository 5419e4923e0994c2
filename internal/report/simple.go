package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/renutil/rensweep/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// Plain ASCII formatting keeps the output pipeable and readable in every
// terminal without color-capability detection.
type SimpleWriter struct {
	baseWriter

	// verbose adds run details such as the performed pipeline steps.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables additional detail in the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.SweepReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeUnused(&sb, report)
	w.writeCollisions(&sb, report)
	w.writeDuplicates(&sb, report)
	w.writeWarnings(&sb, report)

	if w.verbose && len(report.PerformedSteps) > 0 {
		sb.WriteString(fmt.Sprintf("Steps: %s\n\n", strings.Join(report.PerformedSteps, " -> ")))
	}

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.SweepReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         RENSWEEP REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	if report.ProjectRoot != "" {
		sb.WriteString(fmt.Sprintf("Project:      %s\n", report.ProjectRoot))
	}
	sb.WriteString(fmt.Sprintf("Images root:  %s\n", report.ImagesRoot))
	sb.WriteString(fmt.Sprintf("Scripts root: %s\n", report.ScriptsRoot))
	sb.WriteString(fmt.Sprintf("Scan date:    %s\n", report.DateScanned.Format("2006-01-02 15:04:05 MST")))

	switch {
	case report.Cancelled:
		sb.WriteString("Status:       CANCELLED (partial results)\n")
	case report.ErrorMessage != "":
		sb.WriteString(fmt.Sprintf("Status:       ERROR - %s\n", report.ErrorMessage))
	default:
		sb.WriteString("Status:       Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the counts section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.SweepReport) {
	w.section(sb, "SUMMARY")

	sb.WriteString(fmt.Sprintf("  Images indexed:     %d\n", report.ImageCount))
	sb.WriteString(fmt.Sprintf("  Scripts scanned:    %d\n", report.ScriptCount))
	sb.WriteString(fmt.Sprintf("  Referenced IDs:     %d\n", report.ReferenceCount))
	sb.WriteString(fmt.Sprintf("  Unused images:      %d", report.UnusedCount()))
	if report.UnusedCount() > 0 {
		sb.WriteString(fmt.Sprintf(" (%s reclaimable)", humanize.Bytes(uint64(report.Unused.TotalSize())))) //nolint:gosec // Sizes are non-negative
	}
	sb.WriteString("\n\n")
}

// writeUnused lists the unused identifiers with their concrete files.
func (w *SimpleWriter) writeUnused(sb *strings.Builder, report *model.SweepReport) {
	if report.Unused == nil {
		return
	}

	w.section(sb, "UNUSED IMAGES")

	if report.Unused.Len() == 0 {
		sb.WriteString("  No unused images found.\n\n")
		return
	}

	for _, img := range report.Unused.Images {
		sb.WriteString(fmt.Sprintf("  [-] %s\n", img.ID))
		for _, path := range img.Paths {
			sb.WriteString(fmt.Sprintf("      %s\n", path))
		}
	}
	sb.WriteString("\n")
}

// writeCollisions lists identifiers shared by multiple files.
func (w *SimpleWriter) writeCollisions(sb *strings.Builder, report *model.SweepReport) {
	if len(report.Collisions) == 0 {
		return
	}

	w.section(sb, "AMBIGUOUS IDENTIFIERS")

	for _, id := range sortedKeys(report.Collisions) {
		sb.WriteString(fmt.Sprintf("  [!] %s\n", id))
		for _, path := range report.Collisions[id] {
			sb.WriteString(fmt.Sprintf("      %s\n", path))
		}
	}
	sb.WriteString("\n")
}

// writeDuplicates lists byte-identical image groups.
func (w *SimpleWriter) writeDuplicates(sb *strings.Builder, report *model.SweepReport) {
	if len(report.Duplicates) == 0 {
		return
	}

	w.section(sb, "DUPLICATE CONTENT")

	for _, hash := range sortedKeys(report.Duplicates) {
		short := hash
		if len(short) > 12 {
			short = short[:12]
		}
		sb.WriteString(fmt.Sprintf("  [=] %s...\n", short))
		for _, path := range report.Duplicates[hash] {
			sb.WriteString(fmt.Sprintf("      %s\n", path))
		}
	}
	sb.WriteString("\n")
}

// writeWarnings lists the non-fatal problems from the run.
func (w *SimpleWriter) writeWarnings(sb *strings.Builder, report *model.SweepReport) {
	if len(report.Warnings) == 0 {
		return
	}

	w.section(sb, "WARNINGS")

	for _, warning := range report.Warnings {
		sb.WriteString(fmt.Sprintf("  * %s\n", warning))
	}
	sb.WriteString("\n")
}

// section writes a section divider with a title.
func (w *SimpleWriter) section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// sortedKeys returns map keys in sorted order for stable output.
func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
