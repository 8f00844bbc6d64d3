// Package downsample implements the pair-average plus nearest-neighbor
// decimation used to produce one pyramid level output from one or two input
// slices.
package downsample

import "fmt"

// Pair averages A and B (when B is present) and spatially decimates the
// result by 2 using nearest-neighbor sampling. A and B must share identical
// dimensions; if B is nil, A passes through the average step unchanged
// (the odd-slice-count case, last output of a level).
//
// Decimation is fixed as the canonical strategy: output[y,x] = M[2y,2x].
// Rows/columns beyond 2*floor(h/2) / 2*floor(w/2) are dropped.
func Pair8(h, w int, a, b []uint8) (outH, outW int, out []uint8, err error) {
	if len(a) != h*w {
		return 0, 0, nil, fmt.Errorf("downsample: a has len %d, want %d", len(a), h*w)
	}
	if b != nil && len(b) != h*w {
		return 0, 0, nil, fmt.Errorf("downsample: shape mismatch: b has len %d, want %d", len(b), h*w)
	}

	outH, outW = h/2, w/2
	out = make([]uint8, outH*outW)
	for y := 0; y < outH; y++ {
		sy := 2 * y
		for x := 0; x < outW; x++ {
			sx := 2 * x
			idx := sy*w + sx
			var m uint8
			if b != nil {
				m = uint8((uint16(a[idx]) + uint16(b[idx])) / 2)
			} else {
				m = a[idx]
			}
			out[y*outW+x] = m
		}
	}
	return outH, outW, out, nil
}

// Pair16 is the 16-bit counterpart of Pair8.
func Pair16(h, w int, a, b []uint16) (outH, outW int, out []uint16, err error) {
	if len(a) != h*w {
		return 0, 0, nil, fmt.Errorf("downsample: a has len %d, want %d", len(a), h*w)
	}
	if b != nil && len(b) != h*w {
		return 0, 0, nil, fmt.Errorf("downsample: shape mismatch: b has len %d, want %d", len(b), h*w)
	}

	outH, outW = h/2, w/2
	out = make([]uint16, outH*outW)
	for y := 0; y < outH; y++ {
		sy := 2 * y
		for x := 0; x < outW; x++ {
			sx := 2 * x
			idx := sy*w + sx
			var m uint16
			if b != nil {
				m = uint16((uint32(a[idx]) + uint32(b[idx])) / 2)
			} else {
				m = a[idx]
			}
			out[y*outW+x] = m
		}
	}
	return outH, outW, out, nil
}
