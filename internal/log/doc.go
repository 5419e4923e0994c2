// Package log provides project-aware logging built on top of the
// standard slog package.
//
// The RelPathHandler rewrites absolute filesystem paths in log
// attributes to project-relative form. Sweeps touch thousands of files
// under a single root; logging full absolute paths buries the useful
// part of every line in the shared prefix and leaks the machine's
// directory layout into logs that may be attached to bug reports.
//
// # Usage
//
//	logger := log.NewProjectLogger(os.Stderr, "/home/alice/mygame", verbose)
//	logger.Info("skipping file",
//	    "path", "/home/alice/mygame/game/images/bg.png", // logged as game/images/bg.png
//	)
package log
