package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestResolveVersionInfo tests build metadata resolution.
func TestResolveVersionInfo(t *testing.T) {
	t.Run("prefers ldflags values", func(t *testing.T) {
		origVersion, origCommit, origDate := version, commit, date
		defer func() { version, commit, date = origVersion, origCommit, origDate }()

		version, commit, date = "v1.2.3", "abc1234", "2026-08-23"
		info := resolveVersionInfo()
		if info.version != "v1.2.3" {
			t.Errorf("expected v1.2.3, got %q", info.version)
		}
		if info.commit != "abc1234" {
			t.Errorf("expected abc1234, got %q", info.commit)
		}
		if info.date != "2026-08-23" {
			t.Errorf("expected 2026-08-23, got %q", info.date)
		}
	})

	t.Run("never returns empty fields", func(t *testing.T) {
		info := resolveVersionInfo()
		if info.version == "" || info.commit == "" || info.date == "" {
			t.Errorf("expected non-empty fields, got %+v", info)
		}
	})
}

// TestShortRevision tests revision abbreviation.
func TestShortRevision(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"0123456789abcdef": "0123456",
		"abc1234":          "abc1234",
		"ab":               "ab",
		"":                 "unknown",
	}
	for in, want := range tests {
		if got := shortRevision(in); got != want {
			t.Errorf("shortRevision(%q) = %q, expected %q", in, got, want)
		}
	}
}

// TestNewVersionCmd tests the version command.
func TestNewVersionCmd(t *testing.T) {
	t.Run("prints version information", func(t *testing.T) {
		cmd := NewVersionCmd()

		var buf bytes.Buffer
		cmd.SetOut(&buf)

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "rensweep version") {
			t.Errorf("expected version line, got: %s", output)
		}
		if !strings.Contains(output, "commit:") {
			t.Errorf("expected commit line, got: %s", output)
		}
		if !strings.Contains(output, "built:") {
			t.Errorf("expected build date line, got: %s", output)
		}
	})
}
