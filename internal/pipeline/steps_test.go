package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/renutil/rensweep/internal/extract"
	"github.com/renutil/rensweep/internal/index"
	"github.com/renutil/rensweep/internal/model"
	"github.com/renutil/rensweep/internal/normalize"
	"github.com/renutil/rensweep/internal/resolve"
)

var testExtensions = []string{".png", ".jpg", ".jpeg", ".avif", ".webp", ".svg"}

// writeFile creates a file with parent directories.
func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

// newProject builds a minimal project with images and scripts directories.
func newProject(t *testing.T) (imagesRoot, scriptsRoot string) {
	t.Helper()
	project := t.TempDir()
	imagesRoot = filepath.Join(project, "images")
	scriptsRoot = filepath.Join(project, "game")

	writeFile(t, imagesRoot, "bg_room.png", "room")
	writeFile(t, imagesRoot, "unused_sprite.png", "sprite")
	writeFile(t, scriptsRoot, "script.rpy", "label start:\n    show bg_room\n")

	return imagesRoot, scriptsRoot
}

// defaultSteps wires the full default pipeline for a test project.
func defaultSteps(hashing bool) []Step {
	n := normalize.New(normalize.WithExtensions(testExtensions))
	indexer := index.New(n, testExtensions, index.WithHashing(hashing))
	extractor := extract.New(n, ".rpy", testExtensions, false)

	return []Step{
		NewIndexStep(indexer),
		NewExtractStep(extractor),
		NewResolveStep(n, resolve.Options{BasenameFallback: true}),
	}
}

// TestDefaultStepsEndToEnd runs the full pipeline over a fixture project.
func TestDefaultStepsEndToEnd(t *testing.T) {
	t.Parallel()

	imagesRoot, scriptsRoot := newProject(t)

	p := New()
	p.AddSteps(defaultSteps(false)...)

	report := model.NewSweepReport(imagesRoot, scriptsRoot)
	if err := p.Execute(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.ImageCount != 2 {
		t.Errorf("expected 2 images indexed, got %d", report.ImageCount)
	}
	if report.ScriptCount != 1 {
		t.Errorf("expected 1 script scanned, got %d", report.ScriptCount)
	}
	if got := report.Unused.IDs(); len(got) != 1 || got[0] != "unused_sprite" {
		t.Errorf("expected [unused_sprite], got %v", got)
	}
}

// TestResolveStepRequiresIndexes verifies the wiring check.
func TestResolveStepRequiresIndexes(t *testing.T) {
	t.Parallel()

	n := normalize.New(normalize.WithExtensions(testExtensions))
	step := NewResolveStep(n, resolve.Options{})

	report := model.NewSweepReport("/img", "/scripts")
	if err := step.Do(context.Background(), report); err == nil {
		t.Fatal("expected error when indexes are missing")
	}
}

// TestDuplicateStep verifies hash-based duplicate grouping via the pipeline.
func TestDuplicateStep(t *testing.T) {
	t.Parallel()

	imagesRoot, scriptsRoot := newProject(t)
	writeFile(t, imagesRoot, "copy_of_room.png", "room")

	p := New()
	p.AddSteps(defaultSteps(true)...)
	p.AddSteps(NewDuplicateStep())

	report := model.NewSweepReport(imagesRoot, scriptsRoot)
	if err := p.Execute(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Duplicates) != 1 {
		t.Fatalf("expected 1 duplicate group, got %v", report.Duplicates)
	}
}

// TestBatchProcessor verifies concurrent multi-project sweeps.
func TestBatchProcessor(t *testing.T) {
	t.Parallel()

	var targets []Target
	for range 3 {
		imagesRoot, scriptsRoot := newProject(t)
		targets = append(targets, Target{ImagesRoot: imagesRoot, ScriptsRoot: scriptsRoot})
	}

	bp := NewBatchProcessor(func(Target) *Pipeline {
		p := New()
		p.AddSteps(defaultSteps(false)...)
		return p
	}, WithConcurrency(2))

	var mu sync.Mutex
	reports := make([]*model.SweepReport, len(targets))

	err := bp.ProcessBatch(context.Background(), targets, func(report *model.SweepReport, i int) {
		mu.Lock()
		defer mu.Unlock()
		reports[i] = report
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, report := range reports {
		if report == nil {
			t.Fatalf("missing report for target %d", i)
		}
		if report.UnusedCount() != 1 {
			t.Errorf("target %d: expected 1 unused image, got %d", i, report.UnusedCount())
		}
	}
}
