package imgcodec

import (
	"bufio"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Load decodes a slice file with the registered decoder matching its
// content and returns the decoded image as is. Color inputs keep their
// decoded color model; Load does not convert them to grayscale.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imgcodec: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("imgcodec: decode %s: %w", path, err)
	}
	return img, nil
}

// Write encodes img to path, choosing an encoder from the file extension.
// TIFF output uses Deflate compression, lossless for the 8/16-bit grayscale
// pyramids this package produces.
func Write(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imgcodec: create %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	switch ext := strings.ToLower(pathExt(path)); ext {
	case ".tif", ".tiff":
		err = tiff.Encode(bw, img, &tiff.Options{Compression: tiff.Deflate, Predictor: false})
	case ".png":
		err = png.Encode(bw, img)
	case ".bmp":
		err = bmp.Encode(bw, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(bw, img, &jpeg.Options{Quality: 95})
	default:
		return fmt.Errorf("imgcodec: unsupported output extension %q", ext)
	}
	if err != nil {
		return fmt.Errorf("imgcodec: encode %s: %w", path, err)
	}
	return bw.Flush()
}

func pathExt(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[i:]
}
