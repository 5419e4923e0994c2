package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/renutil/rensweep/internal/model"
)

// ErrNoSweeps is returned when a project has no stored sweeps.
var ErrNoSweeps = errors.New("no sweeps recorded for project")

// HistoryDB stores sweep reports in a single SQLite database file.
// One file holds every project's history, which keeps cross-project
// queries and backups simple.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Recommended.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in the specified directory.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "rensweep.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite: mode=rw prevents creating new files,
	// mode=rwc allows creation.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports a single writer; extra connections only add
	// lock contention for this workload.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Sweeps store complete sweep reports as JSON plus queryable counts
	CREATE TABLE IF NOT EXISTS sweeps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project TEXT NOT NULL,
		images_root TEXT NOT NULL,
		scripts_root TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		image_count INTEGER NOT NULL,
		reference_count INTEGER NOT NULL,
		unused_count INTEGER NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sweeps_project ON sweeps(project);
	CREATE INDEX IF NOT EXISTS idx_sweeps_timestamp ON sweeps(timestamp);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SweepRecord is a stored sweep with its database metadata.
type SweepRecord struct {
	// ID is the database row id, used to address a sweep in diffs.
	ID int64

	// Project identifies the swept project (project root, or the images
	// root when no project mode was used).
	Project string

	// Timestamp is when the sweep was stored.
	Timestamp time.Time

	// ImageCount, ReferenceCount and UnusedCount are the summary counts.
	ImageCount     int
	ReferenceCount int
	UnusedCount    int

	// Report is the full deserialized report.
	Report *model.SweepReport
}

// SaveSweepReport stores a sweep report.
func (hdb *HistoryDB) SaveSweepReport(ctx context.Context, report *model.SweepReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO sweeps (project, images_root, scripts_root, image_count, reference_count, unused_count, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := hdb.db.ExecContext(ctx, query,
		projectKey(report),
		report.ImagesRoot,
		report.ScriptsRoot,
		report.ImageCount,
		report.ReferenceCount,
		report.UnusedCount(),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert sweep: %w", err)
	}

	return result.LastInsertId()
}

// ListSweeps returns the stored sweeps for a project, newest first.
func (hdb *HistoryDB) ListSweeps(ctx context.Context, project string, limit int) ([]SweepRecord, error) {
	query := `
	SELECT id, project, timestamp, image_count, reference_count, unused_count, report_json
	FROM sweeps
	WHERE project = ?
	ORDER BY timestamp DESC, id DESC
	`
	args := []any{project}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sweeps: %w", err)
	}
	defer rows.Close()

	var records []SweepRecord
	for rows.Next() {
		record, err := scanSweep(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// ListProjects returns every project with at least one stored sweep.
func (hdb *HistoryDB) ListProjects(ctx context.Context) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx,
		"SELECT DISTINCT project FROM sweeps ORDER BY project")
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetSweep retrieves a single sweep by id.
func (hdb *HistoryDB) GetSweep(ctx context.Context, id int64) (*SweepRecord, error) {
	query := `
	SELECT id, project, timestamp, image_count, reference_count, unused_count, report_json
	FROM sweeps
	WHERE id = ?
	`

	row := hdb.db.QueryRowContext(ctx, query, id)
	record, err := scanSweep(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sweep %d: %w", id, ErrNoSweeps)
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// LatestSweeps returns the two most recent sweeps for a project,
// newest first. Returns ErrNoSweeps when none exist; a single-element
// slice when only one run is recorded.
func (hdb *HistoryDB) LatestSweeps(ctx context.Context, project string) ([]SweepRecord, error) {
	records, err := hdb.ListSweeps(ctx, project, 2)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", project, ErrNoSweeps)
	}
	return records, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanSweep.
type scanner interface {
	Scan(dest ...any) error
}

// scanSweep reads one sweep row.
func scanSweep(s scanner) (SweepRecord, error) {
	var record SweepRecord
	var timestamp string
	var reportJSON string

	err := s.Scan(
		&record.ID,
		&record.Project,
		&timestamp,
		&record.ImageCount,
		&record.ReferenceCount,
		&record.UnusedCount,
		&reportJSON,
	)
	if err != nil {
		return SweepRecord{}, err
	}

	record.Timestamp = parseTimestamp(timestamp)

	var report model.SweepReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return SweepRecord{}, fmt.Errorf("failed to parse stored report: %w", err)
	}
	record.Report = &report

	return record, nil
}

// projectKey returns the history key for a report: the project root when
// known, otherwise the images root.
func projectKey(report *model.SweepReport) string {
	if report.ProjectRoot != "" {
		return report.ProjectRoot
	}
	return report.ImagesRoot
}

// parseTimestamp parses a SQLite timestamp, which may arrive in several
// formats depending on driver and schema defaults.
func parseTimestamp(s string) time.Time {
	formats := []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006-01-02T15:04:05Z",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
