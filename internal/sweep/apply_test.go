package sweep

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/renutil/rensweep/internal/model"
)

// writeFile creates a file with parent directories under root.
func writeFile(t *testing.T, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte("image-bytes"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

// exists reports whether the file is still on disk.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// TestApply verifies that exactly the decided subset is deleted.
func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("deletes decided ids and keeps the rest", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		doomed := writeFile(t, root, "old_logo.png")
		kept := writeFile(t, root, "maybe_later.png")
		used := writeFile(t, root, "bg_room.png")

		unused := &model.UnusedSet{Images: []model.UnusedImage{
			{ID: "old_logo", Paths: []string{doomed}},
			{ID: "maybe_later", Paths: []string{kept}},
		}}

		result, warnings := New(root).Apply(context.Background(), unused, map[string]Decision{
			"old_logo": Delete,
			// maybe_later intentionally absent: missing means keep.
		})

		if len(warnings) != 0 {
			t.Errorf("unexpected warnings: %v", warnings)
		}
		if len(result.Deleted) != 1 || result.Deleted[0] != doomed {
			t.Errorf("expected only %q deleted, got %v", doomed, result.Deleted)
		}
		if exists(doomed) {
			t.Error("expected decided file to be removed from disk")
		}
		if !exists(kept) || !exists(used) {
			t.Error("expected undecided and used files to be untouched")
		}
		if result.FreedBytes == 0 {
			t.Error("expected freed bytes to be counted")
		}
	})

	t.Run("deletes every path under a colliding id", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		a := writeFile(t, root, "title.png")
		b := writeFile(t, root, "title.jpg")

		unused := &model.UnusedSet{Images: []model.UnusedImage{
			{ID: "title", Paths: []string{a, b}},
		}}

		result, _ := New(root).Apply(context.Background(), unused, DeleteAll(unused))
		if len(result.Deleted) != 2 {
			t.Errorf("expected 2 deletions, got %v", result.Deleted)
		}
		if exists(a) || exists(b) {
			t.Error("expected both colliding files to be removed")
		}
	})

	t.Run("missing file is recorded and does not block others", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		present := writeFile(t, root, "present.png")
		missing := filepath.Join(root, "already_gone.png")

		unused := &model.UnusedSet{Images: []model.UnusedImage{
			{ID: "already_gone", Paths: []string{missing}},
			{ID: "present", Paths: []string{present}},
		}}

		result, warnings := New(root).Apply(context.Background(), unused, DeleteAll(unused))

		if len(result.Failed) != 1 || result.Failed[0].Path != missing {
			t.Errorf("expected failure for %q, got %v", missing, result.Failed)
		}
		if len(result.Deleted) != 1 || result.Deleted[0] != present {
			t.Errorf("expected %q to still be deleted, got %v", present, result.Deleted)
		}

		var failed bool
		for _, w := range warnings {
			if w.Type == model.WarningDeletionFailed {
				failed = true
			}
		}
		if !failed {
			t.Error("expected a deletion_failed warning")
		}
	})
}

// TestApplyContainment verifies the safety boundary: files resolving
// outside the images root are skipped, never deleted.
func TestApplyContainment(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	outside := writeFile(t, t.TempDir(), "escape.png")

	unused := &model.UnusedSet{Images: []model.UnusedImage{
		{ID: "escape", Paths: []string{outside}},
	}}

	result, warnings := New(filepath.Join(root, "images2")).Apply(
		context.Background(), unused, DeleteAll(unused))

	if len(result.Deleted) != 0 {
		t.Errorf("expected no deletions, got %v", result.Deleted)
	}
	if !exists(outside) {
		t.Fatal("file outside the images root must never be deleted")
	}

	var skipped bool
	for _, w := range warnings {
		if w.Type == model.WarningSkippedUnsafePath {
			skipped = true
		}
	}
	if !skipped {
		t.Errorf("expected a skipped_unsafe_path warning, got %v", warnings)
	}
}

// TestApplyDryRun verifies that dry-run reports without deleting.
func TestApplyDryRun(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeFile(t, root, "unused.png")

	unused := &model.UnusedSet{Images: []model.UnusedImage{
		{ID: "unused", Paths: []string{path}},
	}}

	result, _ := New(root, WithDryRun(true)).Apply(context.Background(), unused, DeleteAll(unused))

	if len(result.Deleted) != 1 {
		t.Errorf("expected dry-run to report 1 deletion, got %v", result.Deleted)
	}
	if !exists(path) {
		t.Error("expected dry-run to leave the file on disk")
	}
}
