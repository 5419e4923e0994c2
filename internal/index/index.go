package index

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
	"golang.org/x/crypto/blake2b"

	"github.com/renutil/rensweep/internal/model"
	"github.com/renutil/rensweep/internal/normalize"
)

// Indexer enumerates image files under a root directory and assigns each
// one a normalized identifier. The traversal is read-only; unreadable
// directories are recorded as warnings and skipped, never aborting the walk.
type Indexer struct {
	// normalizer computes identifiers. It must be the same instance the
	// extractor uses, otherwise the two sides of the comparison drift.
	normalizer *normalize.Normalizer

	// extensions are the recognized image extensions, lowercase with dot.
	extensions map[string]bool

	// hashContents enables BLAKE2b hashing for duplicate detection.
	hashContents bool

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithHashing enables content hashing of every indexed file.
// Hashing reads each file fully, so it is off by default.
func WithHashing(enabled bool) Option {
	return func(ix *Indexer) {
		ix.hashContents = enabled
	}
}

// WithLogger sets a custom logger for the indexer.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) {
		ix.logger = logger
	}
}

// New creates an Indexer recognizing the given image extensions.
func New(normalizer *normalize.Normalizer, extensions []string, opts ...Option) *Indexer {
	ix := &Indexer{
		normalizer: normalizer,
		extensions: make(map[string]bool, len(extensions)),
		logger:     slog.Default(),
	}

	for _, ext := range extensions {
		ix.extensions[strings.ToLower(ext)] = true
	}

	for _, opt := range opts {
		opt(ix)
	}

	return ix
}

// Index walks imagesRoot and returns the resulting image index.
// The returned error is non-nil only for a missing root or cancellation;
// per-file problems become warnings on the index.
func (ix *Indexer) Index(ctx context.Context, imagesRoot string) (*model.ImageIndex, error) {
	root, err := filepath.Abs(imagesRoot)
	if err != nil {
		return nil, err
	}

	result := model.NewImageIndex()

	walkErr := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true, // Ordering is restored by sorted map iteration later
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if de.IsDir() || !ix.recognized(osPathname) {
				return nil
			}

			asset, err := ix.buildAsset(root, osPathname)
			if err != nil {
				result.Warnings = append(result.Warnings, model.NewWarning(
					model.WarningUnreadableFile, osPathname, "%v", err))
				return nil
			}

			result.Add(asset)
			return nil
		},
		ErrorCallback: func(osPathname string, err error) godirwalk.ErrorAction {
			if ctx.Err() != nil {
				return godirwalk.Halt
			}
			result.Warnings = append(result.Warnings, model.NewWarning(
				model.WarningUnreadableFile, osPathname, "%v", err))
			return godirwalk.SkipNode
		},
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to walk images root: %w", walkErr)
	}

	// Report collisions: ambiguous identifiers are kept under one key but
	// must never be silently resolved to an arbitrary file.
	for _, id := range sortedCollisionIDs(result) {
		paths := result.Paths(id)
		sort.Strings(paths)
		result.Warnings = append(result.Warnings, model.NewWarning(
			model.WarningAmbiguousImageID, paths[0],
			"%d files normalize to %q: %s", len(paths), id, strings.Join(paths, ", ")))
	}

	ix.logger.Debug("image index built",
		"root", root,
		"identifiers", result.Len(),
		"files", result.FileCount(),
	)

	return result, nil
}

// recognized reports whether the path carries a recognized image extension.
func (ix *Indexer) recognized(path string) bool {
	return ix.extensions[strings.ToLower(filepath.Ext(path))]
}

// buildAsset creates the ImageAsset for one file, hashing its contents
// when duplicate detection is enabled.
func (ix *Indexer) buildAsset(root, path string) (model.ImageAsset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.ImageAsset{}, err
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return model.ImageAsset{}, err
	}

	asset := model.ImageAsset{
		Path: path,
		ID:   ix.normalizer.Normalize(filepath.ToSlash(rel)),
		Ext:  strings.ToLower(filepath.Ext(path)),
		Size: info.Size(),
	}

	if ix.hashContents {
		hash, err := hashFile(path)
		if err != nil {
			return model.ImageAsset{}, err
		}
		asset.Hash = hash
	}

	return asset, nil
}

// hashFile returns the hex BLAKE2b-256 digest of the file contents.
func hashFile(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // Path comes from our own directory walk
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Duplicates groups indexed files by content hash and returns the groups
// with more than one member. Files without a hash are ignored.
func Duplicates(ix *model.ImageIndex) map[string][]string {
	byHash := make(map[string][]string)
	for _, assets := range ix.Assets {
		for _, a := range assets {
			if a.Hash != "" {
				byHash[a.Hash] = append(byHash[a.Hash], a.Path)
			}
		}
	}

	dups := make(map[string][]string)
	for hash, paths := range byHash {
		if len(paths) > 1 {
			sort.Strings(paths)
			dups[hash] = paths
		}
	}
	return dups
}

// sortedCollisionIDs returns colliding identifiers in stable order so
// warning output is deterministic.
func sortedCollisionIDs(ix *model.ImageIndex) []string {
	var ids []string
	for id, assets := range ix.Assets {
		if len(assets) > 1 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
