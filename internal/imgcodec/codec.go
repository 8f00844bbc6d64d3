// Package imgcodec decodes and encodes the slice image formats CT stacks
// arrive in (TIFF, PNG, BMP, JPEG) and reports the bit depth the Directory
// Scanner and Pyramid Builder need without requiring a full pixel decode.
package imgcodec

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	_ "image/jpeg"
	_ "image/png"
)

// BitDepth is the per-channel sample depth the pyramid builder cares about.
type BitDepth int

const (
	// Depth8 covers 8-bit grayscale and any format the decoder widens to
	// 8-bit (RGB slices are reduced to luminance at load time).
	Depth8 BitDepth = 8
	// Depth16 covers 16-bit single-channel slices, the common case for raw
	// CT reconstructions.
	Depth16 BitDepth = 16
)

// Probe holds the information the scanner needs from a slice file without
// decoding its full pixel data.
type Probe struct {
	Width    int
	Height   int
	BitDepth BitDepth
}

// ProbeFile opens path and reads just enough of the container format to
// report dimensions and bit depth.
func ProbeFile(path string) (Probe, error) {
	f, err := os.Open(path)
	if err != nil {
		return Probe{}, fmt.Errorf("imgcodec: open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	cfg, _, err := image.DecodeConfig(br)
	if err != nil {
		return Probe{}, fmt.Errorf("imgcodec: probe %s: %w", path, err)
	}

	return Probe{Width: cfg.Width, Height: cfg.Height, BitDepth: depthFromModel(cfg.ColorModel)}, nil
}

// depthFromModel classifies a decoded color.Model as 8-bit or 16-bit. Every
// format this package registers decodes grayscale slices into either
// color.GrayModel or color.Gray16Model; anything else (RGB/RGBA/YCbCr) is
// treated as 8-bit since the Volume builder flattens it to luminance.
func depthFromModel(m color.Model) BitDepth {
	if m == color.Gray16Model {
		return Depth16
	}
	return Depth8
}
