// Package main provides the entry point for the rensweep CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for rensweep.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rensweep",
		Short: "Find and remove unused images in visual novel projects",
		Long: `Rensweep indexes every image under a project's images directory,
scans the project's scripts for image references, and reports the images
no script uses.

Classification deliberately errs toward "used": an image is only reported
as unused when no reference form matches it. Nothing is ever deleted by
the scan command; use 'rensweep clean' to remove files after review.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewCleanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
