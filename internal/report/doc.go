// Package report renders sweep results for humans and tooling.
// It provides a plain-text writer for terminals and a Markdown writer
// for documentation; JSON output is handled by the CLI with a plain
// encoder since the report model already carries JSON tags.
package report
