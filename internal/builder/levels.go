package builder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jikhanjung/ctharvester/internal/coordinator"
	"github.com/jikhanjung/ctharvester/internal/layout"
	"github.com/jikhanjung/ctharvester/internal/pyramid"
	"github.com/jikhanjung/ctharvester/internal/stack"
)

// inputPath returns the path of input index i feeding level.LevelIndex: the
// source directory for level 1, the previous level's output directory
// otherwise.
func inputPath(lay layout.Thumbnail, desc stack.Descriptor, level pyramid.LevelSpec, i int) string {
	if level.LevelIndex == 1 {
		return desc.FilePath(desc.SeqBegin + i)
	}
	return lay.OutputPath(level.LevelIndex-1, i, desc.IndexWidth, "tif")
}

// buildWorkUnits constructs the pair-downsample tasks for level, consuming
// prevSliceCount inputs (desc.SliceCount() for level 1, the prior level's
// slice count otherwise).
func buildWorkUnits(lay layout.Thumbnail, desc stack.Descriptor, level pyramid.LevelSpec, prevSliceCount int) []coordinator.WorkUnit {
	units := make([]coordinator.WorkUnit, 0, level.SliceCount)
	for k := 0; k < level.SliceCount; k++ {
		a := inputPath(lay, desc, level, 2*k)
		b := ""
		if 2*k+1 < prevSliceCount {
			b = inputPath(lay, desc, level, 2*k+1)
		}
		units = append(units, coordinator.WorkUnit{
			LevelIndex:  level.LevelIndex,
			OutputIndex: k,
			InputPathA:  a,
			InputPathB:  b,
			OutputPath:  lay.OutputPath(level.LevelIndex, k, desc.IndexWidth, "tif"),
			BitDepth:    desc.BitDepth,
		})
	}
	return units
}

// levelIsCached reports whether level's on-disk outputs can be reused: the
// file count must match slice_count_L, and if a manifest is present its
// digest must also match (a missing manifest falls back to the count-only
// rule, for directories built before this feature existed).
func levelIsCached(lay layout.Thumbnail, desc stack.Descriptor, level pyramid.LevelSpec, prevSliceCount int) (bool, error) {
	n, err := lay.CountOutputs(level.LevelIndex)
	if err != nil {
		return false, err
	}
	if n != level.SliceCount {
		return false, nil
	}

	manifest, ok, err := lay.ReadManifest(level.LevelIndex)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}

	digest, err := sourceDigestForLevel(lay, desc, level, prevSliceCount)
	if err != nil {
		return false, err
	}
	return manifest.SourceDigest == digest, nil
}

// sourceDigestForLevel hashes the names and sizes of level's input files.
func sourceDigestForLevel(lay layout.Thumbnail, desc stack.Descriptor, level pyramid.LevelSpec, prevSliceCount int) (uint64, error) {
	names := make([]string, 0, prevSliceCount)
	sizes := make([]int64, 0, prevSliceCount)
	for i := 0; i < prevSliceCount; i++ {
		p := inputPath(lay, desc, level, i)
		info, err := os.Stat(p)
		if err != nil {
			return 0, fmt.Errorf("stat %s: %w", p, err)
		}
		names = append(names, filepath.Base(p))
		sizes = append(sizes, info.Size())
	}
	return layout.SourceDigest(names, sizes), nil
}
