package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/renutil/rensweep/internal/config"
	"github.com/renutil/rensweep/internal/model"
	"github.com/renutil/rensweep/internal/pipeline"
	"github.com/renutil/rensweep/internal/sweep"
)

// NewCleanCmd creates the clean command.
func NewCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [project-dir]",
		Short: "Delete images that no script references",
		Long: `Clean runs the same analysis as scan and then deletes the unused images.

Deletion only ever touches files inside the images directory; a path that
resolves outside it is skipped with a warning. A single failed deletion is
recorded and the remaining files are still processed.

By default clean asks for one confirmation before deleting anything.
Use --dry-run to see what would happen, --interactive to decide per
identifier, or --yes to skip the prompt in scripts.

Examples:
  # Preview without deleting
  rensweep clean --dry-run ~/projects/mygame

  # Confirm once, then delete everything unused
  rensweep clean ~/projects/mygame

  # Decide identifier by identifier
  rensweep clean --interactive ~/projects/mygame

  # No prompt (for CI or scripts)
  rensweep clean --yes ~/projects/mygame`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCleanCmd,
	}

	addSweepFlags(cmd)

	cmd.Flags().BoolP("dry-run", "n", false,
		"Report what would be deleted without deleting anything")
	cmd.Flags().BoolP("yes", "y", false,
		"Delete without asking for confirmation")
	cmd.Flags().Bool("interactive", false,
		"Confirm each identifier individually")

	return cmd
}

// runCleanCmd executes the clean command.
func runCleanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return err
	}
	interactive, err := cmd.Flags().GetBool("interactive")
	if err != nil {
		return err
	}

	// History records the pre-deletion state of the project.
	cfg.SaveToDB = !dryRun

	ctx, cancel := signalContext(slog.Default())
	defer cancel()

	targets, err := resolveTargets(cfg)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg, targets)
	slog.SetDefault(logger)

	var sweepReport *model.SweepReport
	var target pipeline.Target
	err = runSweeps(ctx, cfg, targets, logger, func(r *model.SweepReport, t pipeline.Target) {
		sweepReport = r
		target = t
	})
	if err != nil {
		return err
	}

	return cleanUnused(ctx, cfg, target, sweepReport, logger, cleanMode{
		dryRun:      dryRun,
		yes:         yes,
		interactive: interactive,
		in:          cmd.InOrStdin(),
		out:         cmd.OutOrStdout(),
	})
}

// cleanMode bundles the deletion-behavior flags and streams.
type cleanMode struct {
	dryRun      bool
	yes         bool
	interactive bool
	in          io.Reader
	out         io.Writer
}

// cleanUnused decides what to delete and applies the decisions.
func cleanUnused(ctx context.Context, cfg *config.Config, target pipeline.Target, sweepReport *model.SweepReport, logger *slog.Logger, mode cleanMode) error {
	if sweepReport == nil || sweepReport.Unused.Len() == 0 {
		fmt.Fprintln(mode.out, "Nothing to delete.")
		return nil
	}

	decisions, err := buildDecisions(sweepReport.Unused, mode)
	if err != nil {
		return err
	}

	applier := sweep.New(target.ImagesRoot,
		sweep.WithDryRun(mode.dryRun),
		sweep.WithLogger(logger),
	)

	result, warnings := applier.Apply(ctx, sweepReport.Unused, decisions)
	printCleanResult(mode.out, result, warnings, mode.dryRun)

	if cfg.Verbose {
		for _, w := range warnings {
			logger.Warn("clean warning", "type", string(w.Type), "path", w.Path)
		}
	}

	return nil
}

// buildDecisions turns the mode flags (and, interactively, the user's
// answers) into a per-identifier decision map. Anything not explicitly
// marked Delete is kept.
func buildDecisions(unused *model.UnusedSet, mode cleanMode) (map[string]sweep.Decision, error) {
	if mode.dryRun || mode.yes {
		return sweep.DeleteAll(unused), nil
	}

	reader := bufio.NewReader(mode.in)

	if mode.interactive {
		decisions := make(map[string]sweep.Decision, unused.Len())
		for _, img := range unused.Images {
			fmt.Fprintf(mode.out, "Delete %s (%s, %s)? [y/N] ",
				img.ID,
				strings.Join(img.Paths, ", "),
				humanize.Bytes(uint64(img.Size)), //nolint:gosec // Sizes are non-negative
			)
			if confirmed(reader) {
				decisions[img.ID] = sweep.Delete
			}
		}
		return decisions, nil
	}

	// Single confirmation for the whole set
	fmt.Fprintf(mode.out, "Delete %d unused image(s), freeing %s? [y/N] ",
		unused.Len(),
		humanize.Bytes(uint64(unused.TotalSize())), //nolint:gosec // Sizes are non-negative
	)
	if !confirmed(reader) {
		fmt.Fprintln(mode.out, "Aborted.")
		return map[string]sweep.Decision{}, nil
	}

	return sweep.DeleteAll(unused), nil
}

// confirmed reads one line and reports whether it is an affirmative answer.
// EOF or a read error counts as "no".
func confirmed(reader *bufio.Reader) bool {
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// printCleanResult summarizes the deletion outcome.
func printCleanResult(out io.Writer, result *model.SweepResult, warnings []model.Warning, dryRun bool) {
	verb := "Deleted"
	if dryRun {
		verb = "Would delete"
	}

	fmt.Fprintf(out, "\n%s %d file(s), freeing %s.\n",
		verb,
		len(result.Deleted),
		humanize.Bytes(uint64(result.FreedBytes)), //nolint:gosec // Sizes are non-negative
	)

	if len(result.Failed) > 0 {
		fmt.Fprintf(out, "Failed to delete %d file(s):\n", len(result.Failed))
		for _, f := range result.Failed {
			fmt.Fprintf(out, "  %s: %s\n", f.Path, f.Reason)
		}
	}

	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped %d file(s).\n", len(result.Skipped))
	}

	for _, w := range warnings {
		if w.Type == model.WarningSkippedUnsafePath {
			fmt.Fprintf(out, "  ! %s\n", w.String())
		}
	}
}
