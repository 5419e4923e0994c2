package resolve

import (
	"sort"

	"github.com/renutil/rensweep/internal/model"
	"github.com/renutil/rensweep/internal/normalize"
)

// Options control the fallback match strategies applied before an image
// is declared unused.
type Options struct {
	// BasenameFallback also matches an image by its bare filename.
	// Ren'Py resolves images by base name regardless of directory, so a
	// script may say "bg_room" for "characters/bg_room.png", and may
	// equally say "characters/bg_room" for a top-level "bg_room.png".
	// Both directions are covered.
	BasenameFallback bool

	// Protect lists normalized identifiers that are never flagged,
	// regardless of references (from the configuration file).
	Protect []string
}

// Resolve returns the unused set for the given image index and usage
// index. It is a pure function: neither argument is mutated, and the
// result depends only on the inputs.
//
// Every tie-break here leans toward "used". A false "used" keeps an
// unused file on disk; a false "unused" deletes an asset the game needs.
func Resolve(index *model.ImageIndex, usage *model.UsageIndex, n *normalize.Normalizer, opts Options) *model.UnusedSet {
	// Basenames of every used reference, for the reverse fallback:
	// a reference "characters/bg_room" marks a top-level "bg_room" used.
	usedBasenames := make(map[string]bool)
	if opts.BasenameFallback {
		for ref := range usage.References {
			usedBasenames[n.Basename(ref)] = true
		}
	}

	protected := make(map[string]bool, len(opts.Protect))
	for _, id := range opts.Protect {
		protected[n.Normalize(id)] = true
	}

	result := &model.UnusedSet{}
	for id, assets := range index.Assets {
		if usage.Contains(id) || protected[id] {
			continue
		}

		if opts.BasenameFallback {
			base := n.Basename(id)
			if usage.Contains(base) || usedBasenames[base] {
				continue
			}
		}

		entry := model.UnusedImage{ID: id}
		for _, a := range assets {
			entry.Paths = append(entry.Paths, a.Path)
			entry.Size += a.Size
		}
		sort.Strings(entry.Paths)
		result.Images = append(result.Images, entry)
	}

	sort.Slice(result.Images, func(i, j int) bool {
		return result.Images[i].ID < result.Images[j].ID
	})

	return result
}
