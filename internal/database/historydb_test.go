package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/renutil/rensweep/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) (*HistoryDB, func()) {
	t.Helper()

	tmpDir := t.TempDir()

	db, err := Open(tmpDir, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return db, cleanup
}

// sampleReport builds a report with one unused image.
func sampleReport(project string) *model.SweepReport {
	r := model.NewSweepReport(filepath.Join(project, "game", "images"), filepath.Join(project, "game"))
	r.ProjectRoot = project
	r.ImageCount = 5
	r.ReferenceCount = 4
	r.Unused = &model.UnusedSet{Images: []model.UnusedImage{
		{ID: "old_bg", Paths: []string{filepath.Join(project, "game", "images", "old_bg.png")}, Size: 1024},
	}}
	return r
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		dbPath := filepath.Join(dbDir, "rensweep.db")
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "missing")

		_, err := Open(dbDir, Options{CreateIfNotExists: false})
		if err == nil {
			t.Fatal("expected error for missing database")
		}
	})
}

// TestSaveSweepReport tests storing and retrieving sweep reports.
func TestSaveSweepReport(t *testing.T) {
	t.Parallel()

	t.Run("round-trips a report", func(t *testing.T) {
		t.Parallel()

		db, cleanup := setupTestDB(t)
		defer cleanup()

		ctx := context.Background()
		report := sampleReport("/project")

		id, err := db.SaveSweepReport(ctx, report)
		if err != nil {
			t.Fatalf("failed to save sweep: %v", err)
		}
		if id == 0 {
			t.Error("expected a non-zero sweep id")
		}

		record, err := db.GetSweep(ctx, id)
		if err != nil {
			t.Fatalf("failed to get sweep: %v", err)
		}
		if record.Project != "/project" {
			t.Errorf("expected project /project, got %s", record.Project)
		}
		if record.UnusedCount != 1 {
			t.Errorf("expected unused count 1, got %d", record.UnusedCount)
		}
		if record.Report == nil || record.Report.Unused.Len() != 1 {
			t.Error("expected the stored report to retain its unused set")
		}
		if record.Report.Unused.Images[0].ID != "old_bg" {
			t.Errorf("expected unused id old_bg, got %s", record.Report.Unused.Images[0].ID)
		}
	})

	t.Run("keys by images root when project is unset", func(t *testing.T) {
		t.Parallel()

		db, cleanup := setupTestDB(t)
		defer cleanup()

		ctx := context.Background()
		report := model.NewSweepReport("/assets/images", "/assets/scripts")

		if _, err := db.SaveSweepReport(ctx, report); err != nil {
			t.Fatalf("failed to save sweep: %v", err)
		}

		records, err := db.ListSweeps(ctx, "/assets/images", 0)
		if err != nil {
			t.Fatalf("failed to list sweeps: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 record keyed by images root, got %d", len(records))
		}
	})
}

// TestListSweeps tests listing and ordering of stored sweeps.
func TestListSweeps(t *testing.T) {
	t.Parallel()

	t.Run("returns newest first", func(t *testing.T) {
		t.Parallel()

		db, cleanup := setupTestDB(t)
		defer cleanup()

		ctx := context.Background()
		first := sampleReport("/project")
		second := sampleReport("/project")
		second.ImageCount = 6

		if _, err := db.SaveSweepReport(ctx, first); err != nil {
			t.Fatalf("failed to save first sweep: %v", err)
		}
		if _, err := db.SaveSweepReport(ctx, second); err != nil {
			t.Fatalf("failed to save second sweep: %v", err)
		}

		records, err := db.ListSweeps(ctx, "/project", 0)
		if err != nil {
			t.Fatalf("failed to list sweeps: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		if records[0].ImageCount != 6 {
			t.Errorf("expected the newest sweep first, got image count %d", records[0].ImageCount)
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		t.Parallel()

		db, cleanup := setupTestDB(t)
		defer cleanup()

		ctx := context.Background()
		for range 3 {
			if _, err := db.SaveSweepReport(ctx, sampleReport("/project")); err != nil {
				t.Fatalf("failed to save sweep: %v", err)
			}
		}

		records, err := db.ListSweeps(ctx, "/project", 2)
		if err != nil {
			t.Fatalf("failed to list sweeps: %v", err)
		}
		if len(records) != 2 {
			t.Errorf("expected 2 records with limit, got %d", len(records))
		}
	})

	t.Run("filters by project", func(t *testing.T) {
		t.Parallel()

		db, cleanup := setupTestDB(t)
		defer cleanup()

		ctx := context.Background()
		if _, err := db.SaveSweepReport(ctx, sampleReport("/a")); err != nil {
			t.Fatalf("failed to save sweep: %v", err)
		}
		if _, err := db.SaveSweepReport(ctx, sampleReport("/b")); err != nil {
			t.Fatalf("failed to save sweep: %v", err)
		}

		records, err := db.ListSweeps(ctx, "/a", 0)
		if err != nil {
			t.Fatalf("failed to list sweeps: %v", err)
		}
		if len(records) != 1 {
			t.Errorf("expected 1 record for /a, got %d", len(records))
		}

		projects, err := db.ListProjects(ctx)
		if err != nil {
			t.Fatalf("failed to list projects: %v", err)
		}
		if len(projects) != 2 {
			t.Errorf("expected 2 projects, got %d", len(projects))
		}
	})
}

// TestLatestSweeps tests retrieving the latest runs for diffing.
func TestLatestSweeps(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrNoSweeps for unknown project", func(t *testing.T) {
		t.Parallel()

		db, cleanup := setupTestDB(t)
		defer cleanup()

		_, err := db.LatestSweeps(context.Background(), "/nowhere")
		if !errors.Is(err, ErrNoSweeps) {
			t.Errorf("expected ErrNoSweeps, got %v", err)
		}
	})

	t.Run("returns at most two records", func(t *testing.T) {
		t.Parallel()

		db, cleanup := setupTestDB(t)
		defer cleanup()

		ctx := context.Background()
		for range 3 {
			if _, err := db.SaveSweepReport(ctx, sampleReport("/project")); err != nil {
				t.Fatalf("failed to save sweep: %v", err)
			}
		}

		records, err := db.LatestSweeps(ctx, "/project")
		if err != nil {
			t.Fatalf("failed to get latest sweeps: %v", err)
		}
		if len(records) != 2 {
			t.Errorf("expected 2 records, got %d", len(records))
		}
	})
}

// TestGetSweep tests single-record retrieval errors.
func TestGetSweep(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := db.GetSweep(context.Background(), 42)
	if !errors.Is(err, ErrNoSweeps) {
		t.Errorf("expected ErrNoSweeps for missing id, got %v", err)
	}
}
