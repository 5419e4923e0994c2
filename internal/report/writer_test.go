package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/renutil/rensweep/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.SweepReport {
	r := model.NewSweepReport("/project/images", "/project/game")
	r.ProjectRoot = "/project"
	r.DateScanned = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	r.ImageCount = 3
	r.ScriptCount = 2
	r.ReferenceCount = 2
	r.Unused = &model.UnusedSet{Images: []model.UnusedImage{
		{ID: "unused_sprite", Paths: []string{"/project/images/unused_sprite.png"}, Size: 2048},
	}}
	r.Collisions = map[string][]string{
		"title": {"/project/images/title.jpg", "/project/images/title.png"},
	}
	r.AddWarnings(model.NewWarning(
		model.WarningUnreadableFile, "/project/game/broken.rpy", "permission denied"))
	return r
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and roots", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "RENSWEEP REPORT") {
			t.Error("expected output to contain the report header")
		}
		if !strings.Contains(output, "/project/images") {
			t.Error("expected output to contain the images root")
		}
	})

	t.Run("lists unused images with paths", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "unused_sprite") {
			t.Error("expected output to contain the unused identifier")
		}
		if !strings.Contains(output, "/project/images/unused_sprite.png") {
			t.Error("expected output to contain the concrete path")
		}
	})

	t.Run("reports collisions and warnings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "AMBIGUOUS IDENTIFIERS") {
			t.Error("expected the collision section")
		}
		if !strings.Contains(output, "unreadable_file") {
			t.Error("expected the warning to be listed")
		}
	})

	t.Run("empty unused set says so", func(t *testing.T) {
		t.Parallel()

		r := createTestReport()
		r.Unused = &model.UnusedSet{}

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "No unused images found.") {
			t.Error("expected the empty-set message")
		}
	})

	t.Run("verbose lists performed steps", func(t *testing.T) {
		t.Parallel()

		r := createTestReport()
		r.PerformedSteps = []string{"index_images", "extract_references", "resolve_unused"}

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "index_images -> extract_references") {
			t.Error("expected performed steps in verbose output")
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes markdown structure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# Rensweep Report") {
			t.Error("expected H1 header")
		}
		if !strings.Contains(output, "## Unused Images") {
			t.Error("expected unused images section")
		}
		if !strings.Contains(output, "unused_sprite") {
			t.Error("expected the unused identifier")
		}
	})

	t.Run("clean report has no unused section", func(t *testing.T) {
		t.Parallel()

		r := createTestReport()
		r.Unused = &model.UnusedSet{}
		r.Collisions = nil
		r.Warnings = nil

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "## Unused Images") {
			t.Error("expected no unused section for a clean report")
		}
	})
}

// TestMultiWriter verifies fan-out to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&a), NewMarkdownWriter(&b))

	if _, err := mw.Write(createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.Len() == 0 || b.Len() == 0 {
		t.Error("expected both writers to receive output")
	}
}
