package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Release builds inject these via -ldflags. Development builds leave them
// empty and versionInfo falls back to the VCS stamp in the binary's build
// info.
var (
	version = ""
	commit  = ""
	date    = ""
)

// versionInfo is the resolved build metadata shown by the version command.
type versionInfo struct {
	version string
	commit  string
	date    string
}

// resolveVersionInfo fills in each field from ldflags first, then the
// module's build info, then a placeholder.
func resolveVersionInfo() versionInfo {
	info := versionInfo{version: version, commit: commit, date: date}

	if info.version == "" {
		info.version = moduleVersion()
	}
	if info.commit == "" {
		info.commit = shortRevision(buildSetting("vcs.revision"))
	}
	if info.date == "" {
		if t := buildSetting("vcs.time"); t != "" {
			info.date = t
		} else {
			info.date = "unknown"
		}
	}
	return info
}

// getVersion is the version string used for cobra's --version flag.
func getVersion() string {
	return resolveVersionInfo().version
}

// moduleVersion reads the main module version from build info.
func moduleVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// buildSetting returns one -buildinfo setting value, or "" when absent.
func buildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// shortRevision abbreviates a VCS revision to the familiar 7 characters.
func shortRevision(rev string) string {
	if rev == "" {
		return "unknown"
	}
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of rensweep.`,
		Run: func(cmd *cobra.Command, _ []string) {
			info := resolveVersionInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "rensweep version %s\n", info.version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", info.commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", info.date)
		},
	}
}
