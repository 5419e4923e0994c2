package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/renutil/rensweep/internal/config"
	"github.com/renutil/rensweep/internal/database"
)

// NewHistoryCmd creates the history command.
// It compares sweep results with historical data stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [project-dir]",
		Short: "Compare sweep results with previous runs",
		Long: `History shows how a project's unused-image set changed between runs.

Every scan is recorded in the history database. This command retrieves
those records and reports:
- Images that became unused since the previous run
- Images that are no longer unused (cleaned up or newly referenced)
- The change in total image and unused counts

The comparison requires at least two recorded sweeps for the project.

Examples:
  # Compare the latest two sweeps of a project
  rensweep history ~/projects/mygame

  # List all recorded sweeps for a project
  rensweep history --list ~/projects/mygame

  # Compare the latest sweep with a specific earlier one
  rensweep history --with-sweep-id 5 ~/projects/mygame

  # Output the comparison as JSON
  rensweep history --json ~/projects/mygame

  # List every project in the database
  rensweep history --list-projects`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List recorded sweeps for the project")
	cmd.Flags().BoolP("list-projects", "L", false,
		"List all projects in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-sweep-id", "i", 0,
		"Compare with a specific sweep by ID (use --list to see available IDs)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listProjects, err := cmd.Flags().GetBool("list-projects")
	if err != nil {
		return err
	}

	// Resolve the project key before opening the database so argument
	// problems fail without touching it.
	var project string
	if !listProjects {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		project, err = filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("invalid project directory: %w", err)
		}
	}

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if listProjects {
		return listSweptProjects(ctx, db)
	}

	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if list {
		return listSweepHistory(ctx, db, project)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	withSweepID, err := cmd.Flags().GetInt64("with-sweep-id")
	if err != nil {
		return err
	}

	return runHistoryDiff(ctx, db, project, withSweepID, jsonOutput)
}

// listSweptProjects lists all projects that have sweep records.
func listSweptProjects(ctx context.Context, db *database.HistoryDB) error {
	projects, err := db.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	if len(projects) == 0 {
		fmt.Println("No recorded sweeps in the database.")
		fmt.Println("\nUse 'rensweep scan <project-dir>' to record one.")
		return nil
	}

	fmt.Printf("Projects with recorded sweeps (%d):\n\n", len(projects))
	for _, project := range projects {
		fmt.Printf("  • %s\n", project)
	}
	fmt.Println("\nUse 'rensweep history --list <project-dir>' to see a project's sweeps.")

	return nil
}

// listSweepHistory lists all sweep records for a project.
func listSweepHistory(ctx context.Context, db *database.HistoryDB, project string) error {
	records, err := db.ListSweeps(ctx, project, 0)
	if err != nil {
		return fmt.Errorf("failed to get sweep history: %w", err)
	}

	if len(records) == 0 {
		fmt.Printf("No sweep history found for %s\n", project)
		fmt.Println("\nUse 'rensweep scan' to sweep this project.")
		return nil
	}

	fmt.Printf("Sweep history for %s (%d sweeps):\n\n", project, len(records))
	fmt.Printf("  %-6s  %-20s  %-8s  %s\n", "ID", "Date", "Images", "Unused")
	fmt.Println("  " + strings.Repeat("-", 50))

	for _, record := range records {
		fmt.Printf("  %-6d  %-20s  %-8d  %d\n",
			record.ID,
			record.Timestamp.Format("2006-01-02 15:04:05"),
			record.ImageCount,
			record.UnusedCount,
		)
	}

	fmt.Println("\nUse 'rensweep history <project-dir>' to compare the latest two sweeps.")
	fmt.Println("Use 'rensweep history --with-sweep-id <id> <project-dir>' to compare with a specific sweep.")

	return nil
}

// HistoryDiff holds the result of comparing two sweep records.
type HistoryDiff struct {
	// Project is the compared project.
	Project string `json:"project"`

	// Previous and Current describe the two compared sweeps.
	Previous SweepSummary `json:"previous"`
	Current  SweepSummary `json:"current"`

	// NewlyUnused lists identifiers unused now but not before.
	NewlyUnused []string `json:"newly_unused,omitempty"`

	// NoLongerUnused lists identifiers that were unused before but are
	// now referenced or deleted.
	NoLongerUnused []string `json:"no_longer_unused,omitempty"`

	// UnchangedCount is the number of identifiers unused in both sweeps.
	UnchangedCount int `json:"unchanged_count"`
}

// SweepSummary is the per-sweep metadata shown in a diff.
type SweepSummary struct {
	// ID is the sweep's database id.
	ID int64 `json:"id"`

	// Timestamp is when the sweep ran.
	Timestamp time.Time `json:"timestamp"`

	// ImageCount and UnusedCount are the sweep's summary counts.
	ImageCount  int `json:"image_count"`
	UnusedCount int `json:"unused_count"`
}

// runHistoryDiff compares the latest sweep with an earlier one.
func runHistoryDiff(ctx context.Context, db *database.HistoryDB, project string, withSweepID int64, jsonOutput bool) error {
	latest, err := db.LatestSweeps(ctx, project)
	if err != nil {
		return err
	}

	current := latest[0]
	var previous database.SweepRecord

	if withSweepID > 0 {
		record, err := db.GetSweep(ctx, withSweepID)
		if err != nil {
			return err
		}
		if record.Project != project {
			return fmt.Errorf("sweep %d belongs to %s, not %s", withSweepID, record.Project, project)
		}
		previous = *record
	} else {
		if len(latest) < 2 {
			return fmt.Errorf("at least 2 sweeps are required for comparison (found %d)", len(latest))
		}
		previous = latest[1]
	}

	diff := diffSweeps(previous, current)

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(diff)
	}
	printHistoryDiff(diff)
	return nil
}

// diffSweeps computes the identifier-level diff between two sweeps.
func diffSweeps(previous, current database.SweepRecord) *HistoryDiff {
	diff := &HistoryDiff{
		Project:  current.Project,
		Previous: summarize(previous),
		Current:  summarize(current),
	}

	previousIDs := unusedIDSet(previous)
	currentIDs := unusedIDSet(current)

	for id := range currentIDs {
		if previousIDs[id] {
			diff.UnchangedCount++
		} else {
			diff.NewlyUnused = append(diff.NewlyUnused, id)
		}
	}
	for id := range previousIDs {
		if !currentIDs[id] {
			diff.NoLongerUnused = append(diff.NoLongerUnused, id)
		}
	}

	sort.Strings(diff.NewlyUnused)
	sort.Strings(diff.NoLongerUnused)

	return diff
}

// summarize extracts the display metadata from a sweep record.
func summarize(record database.SweepRecord) SweepSummary {
	return SweepSummary{
		ID:          record.ID,
		Timestamp:   record.Timestamp,
		ImageCount:  record.ImageCount,
		UnusedCount: record.UnusedCount,
	}
}

// unusedIDSet collects the unused identifiers of a stored sweep.
func unusedIDSet(record database.SweepRecord) map[string]bool {
	ids := make(map[string]bool)
	if record.Report == nil || record.Report.Unused == nil {
		return ids
	}
	for _, img := range record.Report.Unused.Images {
		ids[img.ID] = true
	}
	return ids
}

// printHistoryDiff outputs the diff in human-readable text format.
func printHistoryDiff(diff *HistoryDiff) {
	fmt.Printf("Sweep Comparison: %s\n", diff.Project)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\nPrevious sweep: #%d  %s\n",
		diff.Previous.ID, diff.Previous.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("Current sweep:  #%d  %s\n",
		diff.Current.ID, diff.Current.Timestamp.Format("2006-01-02 15:04:05"))

	fmt.Println("\nSummary:")
	fmt.Printf("  %-10s  %-10s  %-10s  %-10s\n", "Metric", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Images",
		diff.Previous.ImageCount, diff.Current.ImageCount,
		formatDelta(diff.Current.ImageCount-diff.Previous.ImageCount))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Unused",
		diff.Previous.UnusedCount, diff.Current.UnusedCount,
		formatDelta(diff.Current.UnusedCount-diff.Previous.UnusedCount))

	if len(diff.NewlyUnused) > 0 {
		fmt.Printf("\nNewly unused (%d):\n", len(diff.NewlyUnused))
		for _, id := range diff.NewlyUnused {
			fmt.Printf("  [+] %s\n", id)
		}
	}

	if len(diff.NoLongerUnused) > 0 {
		fmt.Printf("\nNo longer unused (%d):\n", len(diff.NoLongerUnused))
		for _, id := range diff.NoLongerUnused {
			fmt.Printf("  [-] %s\n", id)
		}
	}

	if diff.UnchangedCount > 0 {
		fmt.Printf("\nStill unused: %d identifier(s)\n", diff.UnchangedCount)
	}

	if len(diff.NewlyUnused) == 0 && len(diff.NoLongerUnused) == 0 {
		fmt.Println("\nNo changes between the two sweeps.")
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return fmt.Sprintf("+%d", delta)
	}
	return fmt.Sprintf("%d", delta)
}
