package model

// ReferenceToken is a single image reference found in a script file.
// Tokens are produced by the extractor and folded into a UsageIndex
// immediately; they are not persisted beyond the run.
type ReferenceToken struct {
	// Raw is the matched text before normalization.
	Raw string `json:"raw"`

	// ID is the normalized identifier for the match.
	ID string `json:"id"`

	// Script is the absolute path of the script file containing the match.
	Script string `json:"script"`

	// Line is the 1-based line number of the match.
	Line int `json:"line"`
}

// Location records where a reference was seen.
type Location struct {
	// Script is the absolute path of the script file.
	Script string `json:"script"`

	// Line is the 1-based line number within the script.
	Line int `json:"line"`
}

// UsageIndex maps normalized identifiers to the script locations that
// reference them. Every key holds at least one location by construction.
type UsageIndex struct {
	// References maps a normalized ID to the locations referencing it.
	References map[string][]Location `json:"references"`

	// Warnings collects non-fatal problems from the scripts walk,
	// such as unreadable or non-text files that were skipped.
	Warnings []Warning `json:"warnings,omitempty"`
}

// NewUsageIndex creates an empty UsageIndex.
func NewUsageIndex() *UsageIndex {
	return &UsageIndex{
		References: make(map[string][]Location),
	}
}

// Add records a reference token in the index.
// Tokens with an empty normalized ID are ignored; an empty ID can only
// come from degenerate matches (e.g. a bare extension) and would otherwise
// mark every image as used.
func (u *UsageIndex) Add(token ReferenceToken) {
	if token.ID == "" {
		return
	}
	u.References[token.ID] = append(u.References[token.ID], Location{
		Script: token.Script,
		Line:   token.Line,
	})
}

// Contains reports whether the given normalized ID is referenced.
func (u *UsageIndex) Contains(id string) bool {
	_, ok := u.References[id]
	return ok
}

// Count returns the number of recorded references for the given ID.
func (u *UsageIndex) Count(id string) int {
	return len(u.References[id])
}

// Len returns the number of distinct referenced IDs.
func (u *UsageIndex) Len() int {
	return len(u.References)
}

// UnusedImage is a single entry in the unused set: a normalized ID
// together with every concrete file carrying that ID.
type UnusedImage struct {
	// ID is the normalized identifier.
	ID string `json:"id"`

	// Paths are the absolute paths of the files indexed under ID.
	Paths []string `json:"paths"`

	// Size is the combined size in bytes of all files under ID.
	Size int64 `json:"size"`
}

// UnusedSet is the resolver output: indexed images whose ID is absent
// from the usage index under every enabled fallback rule.
// Invariant: no entry's ID appears in the UsageIndex it was resolved against.
type UnusedSet struct {
	// Images holds the unused entries sorted by ID.
	Images []UnusedImage `json:"images"`
}

// Len returns the number of unused identifiers.
func (s *UnusedSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Images)
}

// IDs returns the unused identifiers in sorted order.
func (s *UnusedSet) IDs() []string {
	ids := make([]string, 0, s.Len())
	for _, img := range s.Images {
		ids = append(ids, img.ID)
	}
	return ids
}

// TotalSize returns the combined byte size of all unused files.
func (s *UnusedSet) TotalSize() int64 {
	var total int64
	for _, img := range s.Images {
		total += img.Size
	}
	return total
}
