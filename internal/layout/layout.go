// Package layout defines the on-disk thumbnail directory conventions and
// the optional per-level cache manifest.
package layout

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
)

// Thumbnail describes the on-disk layout rooted at a stack's directory.
type Thumbnail struct {
	Root string // directory_path
}

// New returns a Thumbnail layout rooted at directory.
func New(directory string) Thumbnail {
	return Thumbnail{Root: directory}
}

// ThumbnailRoot is the ".thumbnail" directory under Root.
func (t Thumbnail) ThumbnailRoot() string {
	return filepath.Join(t.Root, ".thumbnail")
}

// LevelDir is the output directory for level L.
func (t Thumbnail) LevelDir(level int) string {
	return filepath.Join(t.ThumbnailRoot(), fmt.Sprint(level))
}

// OutputPath returns the path of output index i within level, zero-padded
// to indexWidth digits, with extension ext (no leading dot expected, e.g.
// "tif").
func (t Thumbnail) OutputPath(level, index, indexWidth int, ext string) string {
	name := fmt.Sprintf("%0*d.%s", indexWidth, index, ext)
	return filepath.Join(t.LevelDir(level), name)
}

// EnsureLevelDir creates the level directory (and .thumbnail/ if needed).
func (t Thumbnail) EnsureLevelDir(level int) error {
	return os.MkdirAll(t.LevelDir(level), 0o755)
}

// ManifestPath is the path of the optional cache manifest for level.
func (t Thumbnail) ManifestPath(level int) string {
	return filepath.Join(t.LevelDir(level), "manifest.json")
}

// Manifest is the optional on-disk record written after a level completes
// successfully, used to detect stale caches on a subsequent run.
type Manifest struct {
	Level        int    `json:"level"`
	SliceCount   int    `json:"slice_count"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	BitDepth     int    `json:"bit_depth"`
	SourceDigest uint64 `json:"source_digest"`
}

// SourceDigest computes an FNV-64a hash over a level's input file names and
// sizes, used to detect a source that changed shape without changing file
// count.
func SourceDigest(names []string, sizes []int64) uint64 {
	h := fnv.New64a()
	for i, name := range names {
		fmt.Fprintf(h, "%s:%d;", name, sizes[i])
	}
	return h.Sum64()
}

// WriteManifest writes m to the level's manifest.json.
func (t Thumbnail) WriteManifest(m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("layout: marshal manifest: %w", err)
	}
	return os.WriteFile(t.ManifestPath(m.Level), data, 0o644)
}

// ReadManifest reads the manifest for level, if present. A missing file is
// not an error; callers should fall back to the count-only caching rule.
func (t Thumbnail) ReadManifest(level int) (Manifest, bool, error) {
	data, err := os.ReadFile(t.ManifestPath(level))
	if os.IsNotExist(err) {
		return Manifest{}, false, nil
	}
	if err != nil {
		return Manifest{}, false, fmt.Errorf("layout: read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, false, fmt.Errorf("layout: parse manifest: %w", err)
	}
	return m, true, nil
}

// CountOutputs returns the number of regular files present in a level's
// directory, excluding manifest.json. Used by the cache check (before any
// manifest comparison) and by the post-level output count verification.
func (t Thumbnail) CountOutputs(level int) (int, error) {
	entries, err := os.ReadDir(t.LevelDir(level))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("layout: read level dir: %w", err)
	}
	n := 0
	for _, e := range entries {
		if e.Type().IsRegular() && e.Name() != "manifest.json" {
			n++
		}
	}
	return n, nil
}
