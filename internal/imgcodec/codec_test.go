package imgcodec

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestGray16(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray16(x, y, color.Gray16{Y: uint16((x + y) * 257)})
		}
	}
	require.NoError(t, Write(path, img))
}

func writeTestGray8(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x + y)})
		}
	}
	require.NoError(t, Write(path, img))
}

func TestProbeFile_Detects16BitTIFF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0001.tif")
	writeTestGray16(t, path, 32, 24)

	p, err := ProbeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 32, p.Width)
	assert.Equal(t, 24, p.Height)
	assert.Equal(t, Depth16, p.BitDepth)
}

func TestProbeFile_Detects8BitPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0001.png")
	writeTestGray8(t, path, 16, 16)

	p, err := ProbeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 16, p.Width)
	assert.Equal(t, 16, p.Height)
	assert.Equal(t, Depth8, p.BitDepth)
}

func TestLoadWriteRoundTrip_TIFF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0001.tif")
	writeTestGray16(t, path, 8, 8)

	img, err := Load(path)
	require.NoError(t, err)
	g, ok := img.(*image.Gray16)
	require.True(t, ok, "expected *image.Gray16, got %T", img)
	assert.Equal(t, uint16(3*257), g.Gray16At(3, 0).Y)
}

func TestWrite_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	err := Write(filepath.Join(dir, "out.weird"), img)
	assert.Error(t, err)
}

func TestBufferPool_ReusesByLength(t *testing.T) {
	a := GetBytes(128)
	a[0] = 0xFF
	PutBytes(a)

	b := GetBytes(128)
	assert.Equal(t, byte(0), b[0], "pooled buffer must be cleared before reuse")
}
