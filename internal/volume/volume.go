// Package volume holds the in-memory smallest-resolution pyramid level and
// implements cropped sub-volume extraction.
package volume

import (
	"errors"
	"fmt"
)

// ErrInvalidCrop is returned when a crop request violates its preconditions.
// Crop has no partial-success state, so it is a sentinel rather than a
// structured error.
var ErrInvalidCrop = errors.New("volume: invalid crop request")

// Minimum is the smallest computed pyramid level, held in memory as a dense
// row-major u8 array of shape (Depth, Height, Width).
type Minimum struct {
	Depth  int
	Height int
	Width  int
	Data   []uint8 // len == Depth*Height*Width
}

// At returns the value at (z, y, x).
func (m Minimum) At(z, y, x int) uint8 {
	return m.Data[(z*m.Height+y)*m.Width+x]
}

// Cropped is a 3D sub-array of a Minimum volume.
type Cropped struct {
	Depth  int
	Height int
	Width  int
	Data   []uint8
}

// Crop extracts a sub-volume. zBottom/zTop are half-open Z indices
// ([zBottom, zTop)); x0,y0,x1,y1 are normalized floats in [0,1] relative to
// m's width/height, converted to half-open pixel indices via floor(v*extent)
// with no adjustment, so the requested boundary is always included.
func Crop(m Minimum, zBottom, zTop int, x0, y0, x1, y1 float64) (Cropped, error) {
	if zTop <= zBottom {
		return Cropped{}, fmt.Errorf("%w: z_top (%d) must be greater than z_bottom (%d)", ErrInvalidCrop, zTop, zBottom)
	}
	if zTop > m.Depth {
		return Cropped{}, fmt.Errorf("%w: z_top (%d) exceeds depth (%d)", ErrInvalidCrop, zTop, m.Depth)
	}
	if zBottom < 0 {
		return Cropped{}, fmt.Errorf("%w: z_bottom (%d) is negative", ErrInvalidCrop, zBottom)
	}

	x0i := floorScaled(x0, m.Width)
	x1i := floorScaled(x1, m.Width)
	y0i := floorScaled(y0, m.Height)
	y1i := floorScaled(y1, m.Height)

	if x1i <= x0i || y1i <= y0i {
		return Cropped{}, fmt.Errorf("%w: xy box has non-positive extent", ErrInvalidCrop)
	}
	if x0i < 0 || y0i < 0 || x1i > m.Width || y1i > m.Height {
		return Cropped{}, fmt.Errorf("%w: xy box out of bounds", ErrInvalidCrop)
	}

	outDepth := zTop - zBottom
	outHeight := y1i - y0i
	outWidth := x1i - x0i
	data := make([]uint8, outDepth*outHeight*outWidth)

	for z := 0; z < outDepth; z++ {
		srcZ := zBottom + z
		for y := 0; y < outHeight; y++ {
			srcY := y0i + y
			srcRowStart := (srcZ*m.Height+srcY)*m.Width + x0i
			dstRowStart := (z*outHeight + y) * outWidth
			copy(data[dstRowStart:dstRowStart+outWidth], m.Data[srcRowStart:srcRowStart+outWidth])
		}
	}

	return Cropped{Depth: outDepth, Height: outHeight, Width: outWidth, Data: data}, nil
}

func floorScaled(v float64, extent int) int {
	return int(v * float64(extent))
}
