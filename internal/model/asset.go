package model

// ImageAsset describes a single image file discovered under the images root.
// Assets are created during indexing and never mutated afterward; the only
// way an asset leaves the model is when the applier deletes its file.
type ImageAsset struct {
	// Path is the absolute path to the image file.
	Path string `json:"path"`

	// ID is the normalized identifier computed relative to the images root.
	// Two assets may share an ID (a collision); see ImageIndex.Collisions.
	ID string `json:"id"`

	// Ext is the original file extension including the dot (e.g. ".png").
	Ext string `json:"ext"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// Hash is the hex-encoded BLAKE2b-256 digest of the file contents.
	// Empty unless duplicate detection was enabled for the run.
	Hash string `json:"hash,omitempty"`
}

// ImageIndex maps normalized identifiers to the assets that produced them.
// The value is a list because distinct files can normalize to the same ID;
// such collisions are never resolved to an arbitrary file.
type ImageIndex struct {
	// Assets maps a normalized ID to every asset carrying that ID.
	Assets map[string][]ImageAsset `json:"assets"`

	// Warnings collects non-fatal problems encountered during the walk,
	// including one AmbiguousImageID warning per colliding identifier.
	Warnings []Warning `json:"warnings,omitempty"`
}

// NewImageIndex creates an empty ImageIndex.
func NewImageIndex() *ImageIndex {
	return &ImageIndex{
		Assets: make(map[string][]ImageAsset),
	}
}

// Add records an asset under its normalized ID.
// The second and later assets for the same ID are collisions.
func (ix *ImageIndex) Add(asset ImageAsset) {
	ix.Assets[asset.ID] = append(ix.Assets[asset.ID], asset)
}

// Paths returns the concrete file paths stored under the given ID.
func (ix *ImageIndex) Paths(id string) []string {
	assets := ix.Assets[id]
	paths := make([]string, 0, len(assets))
	for _, a := range assets {
		paths = append(paths, a.Path)
	}
	return paths
}

// Collisions returns the IDs that map to more than one file, with their paths.
func (ix *ImageIndex) Collisions() map[string][]string {
	collisions := make(map[string][]string)
	for id, assets := range ix.Assets {
		if len(assets) > 1 {
			collisions[id] = ix.Paths(id)
		}
	}
	return collisions
}

// Len returns the number of distinct normalized IDs in the index.
func (ix *ImageIndex) Len() int {
	return len(ix.Assets)
}

// FileCount returns the total number of indexed files across all IDs.
func (ix *ImageIndex) FileCount() int {
	n := 0
	for _, assets := range ix.Assets {
		n += len(assets)
	}
	return n
}
