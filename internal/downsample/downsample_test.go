package downsample

import "testing"

func constU8(h, w int, v uint8) []uint8 {
	s := make([]uint8, h*w)
	for i := range s {
		s[i] = v
	}
	return s
}

func constU16(h, w int, v uint16) []uint16 {
	s := make([]uint16, h*w)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestPair8_AverageNoOverflow(t *testing.T) {
	a := constU8(2, 2, 100)
	b := constU8(2, 2, 200)

	h, w, out, err := Pair8(2, 2, a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != 1 || w != 1 {
		t.Fatalf("expected shape (1,1), got (%d,%d)", h, w)
	}
	if out[0] != 150 {
		t.Fatalf("expected 150, got %d", out[0])
	}
}

func TestPair16_AveragePreservesDtype(t *testing.T) {
	a := constU16(2, 2, 10000)
	b := constU16(2, 2, 20000)

	h, w, out, err := Pair16(2, 2, a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != 1 || w != 1 {
		t.Fatalf("expected shape (1,1), got (%d,%d)", h, w)
	}
	if out[0] != 15000 {
		t.Fatalf("expected 15000, got %d", out[0])
	}
}

func TestPair8_OddCountPassesThroughSingleInput(t *testing.T) {
	a := constU8(4, 4, 42)
	h, w, out, err := Pair8(4, 4, a, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != 2 || w != 2 {
		t.Fatalf("expected shape (2,2), got (%d,%d)", h, w)
	}
	for _, v := range out {
		if v != 42 {
			t.Fatalf("expected 42, got %d", v)
		}
	}
}

func TestPair8_OddDimensionDropsTrailingRowColumn(t *testing.T) {
	// 5x5 input: output should be floor(5/2) = 2 on each axis.
	a := make([]uint8, 25)
	for i := range a {
		a[i] = uint8(i)
	}
	h, w, out, err := Pair8(5, 5, a, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != 2 || w != 2 {
		t.Fatalf("expected shape (2,2), got (%d,%d)", h, w)
	}
	if len(out) != 4 {
		t.Fatalf("expected 4 output pixels, got %d", len(out))
	}
}

func TestPair8_NearestNeighborSampling(t *testing.T) {
	// 4x4 checkerboard where only even/even positions carry a distinct value.
	a := make([]uint8, 16)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if x%2 == 0 && y%2 == 0 {
				a[y*4+x] = 255
			} else {
				a[y*4+x] = 1
			}
		}
	}
	_, _, out, err := Pair8(4, 4, a, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range out {
		if v != 255 {
			t.Fatalf("expected nearest-neighbor sample to pick the even-index pixel (255), got %d", v)
		}
	}
}

func TestPair8_ShapeMismatchErrors(t *testing.T) {
	a := constU8(2, 2, 1)
	b := constU8(3, 3, 1)
	if _, _, _, err := Pair8(2, 2, a, b); err == nil {
		t.Fatal("expected shape mismatch error")
	}
}
