// Package stack scans a directory of sequentially numbered grayscale images
// and builds the StackDescriptor the rest of the pipeline plans against.
package stack

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jikhanjung/ctharvester/internal/imgcodec"
	"github.com/jikhanjung/ctharvester/internal/pathsafe"
)

// allowedExtensions is the grayscale container format set the scanner
// retains; case-insensitive.
var allowedExtensions = map[string]bool{
	"bmp": true, "jpg": true, "jpeg": true, "png": true, "tif": true, "tiff": true,
}

var nameRe = regexp.MustCompile(`^(.*?)(\d+)\.([A-Za-z]+)$`)

// Descriptor describes one validated input image sequence.
type Descriptor struct {
	DirectoryPath string
	FilePrefix    string
	IndexWidth    int
	Extension     string
	SeqBegin      int
	SeqEnd        int
	Width         int
	Height        int
	BitDepth      int // 8 or 16
}

// SliceCount returns the number of slices in [SeqBegin, SeqEnd].
func (d Descriptor) SliceCount() int {
	return d.SeqEnd - d.SeqBegin + 1
}

// FileName returns the file name for sequence index i, e.g. "0007.tif".
func (d Descriptor) FileName(i int) string {
	return fmt.Sprintf("%s%0*d.%s", d.FilePrefix, d.IndexWidth, i, d.Extension)
}

// FilePath returns the full path of sequence index i within DirectoryPath.
func (d Descriptor) FilePath(i int) string {
	return filepath.Join(d.DirectoryPath, d.FileName(i))
}

type group struct {
	prefix      string
	indexWidth  int
	extension   string
	indices     []int
	nameByIndex map[int]string
}

// Scan enumerates directory, validates its entries, and returns a
// Descriptor for the largest group of sequentially numbered, same-format
// files found. Returns an error if the directory is unreadable, empty, or
// no valid group is found.
func Scan(directory string) (Descriptor, error) {
	if err := pathsafe.ValidateDir(directory); err != nil {
		return Descriptor{}, fmt.Errorf("stack: invalid input directory: %w", err)
	}

	entries, err := os.ReadDir(directory)
	if err != nil {
		return Descriptor{}, fmt.Errorf("stack: invalid input directory: %w", err)
	}

	groups := map[string]*group{}
	for _, e := range entries {
		name := e.Name()
		if err := pathsafe.ValidateName(name); err != nil {
			continue // never fatal; just skip
		}
		if e.IsDir() {
			continue
		}
		if e.Type()&os.ModeSymlink != 0 {
			continue
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		if !allowedExtensions[ext] {
			continue
		}

		m := nameRe.FindStringSubmatch(name)
		if m == nil {
			continue // unmatched filenames are skipped, never fatal
		}
		prefix, digits, fileExt := m[1], m[2], strings.ToLower(m[3])
		if !allowedExtensions[fileExt] {
			continue
		}
		idx, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}

		key := fmt.Sprintf("%s\x00%d\x00%s", prefix, len(digits), fileExt)
		g, ok := groups[key]
		if !ok {
			g = &group{prefix: prefix, indexWidth: len(digits), extension: fileExt, nameByIndex: map[int]string{}}
			groups[key] = g
		}
		g.indices = append(g.indices, idx)
		g.nameByIndex[idx] = name
	}

	if len(groups) == 0 {
		return Descriptor{}, fmt.Errorf("stack: no valid image group found in %q", directory)
	}

	best := selectLargestGroup(groups)
	if len(best.indices) < 1 {
		return Descriptor{}, fmt.Errorf("stack: chosen group in %q has no members", directory)
	}

	sort.Ints(best.indices)
	seqBegin := best.indices[0]
	seqEnd := best.indices[len(best.indices)-1]

	probePath := filepath.Join(directory, best.nameByIndex[seqBegin])
	p, err := imgcodec.ProbeFile(probePath)
	if err != nil {
		return Descriptor{}, fmt.Errorf("stack: probe %s: %w", probePath, err)
	}

	return Descriptor{
		DirectoryPath: directory,
		FilePrefix:    best.prefix,
		IndexWidth:    best.indexWidth,
		Extension:     best.extension,
		SeqBegin:      seqBegin,
		SeqEnd:        seqEnd,
		Width:         p.Width,
		Height:        p.Height,
		BitDepth:      int(p.BitDepth),
	}, nil
}

// selectLargestGroup picks the group with the most members; ties break by
// lexicographically smallest prefix.
func selectLargestGroup(groups map[string]*group) *group {
	var best *group
	for _, g := range groups {
		if best == nil {
			best = g
			continue
		}
		if len(g.indices) > len(best.indices) {
			best = g
			continue
		}
		if len(g.indices) == len(best.indices) && g.prefix < best.prefix {
			best = g
		}
	}
	return best
}
