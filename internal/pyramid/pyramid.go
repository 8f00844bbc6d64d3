// Package pyramid computes the level ladder and per-level work weights that
// drive a single monotonic progress percentage across a thumbnail build.
package pyramid

import "math"

// MinDim is the default halving threshold: the planner produces another
// level while the current level's smaller side is at least MinDim, so the
// last generated level may itself be smaller than MinDim.
const MinDim = 512

// LevelSpec describes one pyramid level.
type LevelSpec struct {
	LevelIndex int // 1 = first downsample of the source
	Width      int
	Height     int
	SliceCount int
	Weight     float64 // normalized, sums to 1.0 across a plan
}

// PyramidPlan is the ordered list of levels a build must produce, plus the
// bookkeeping the Progress Model needs.
type PyramidPlan struct {
	Levels     []LevelSpec
	TotalWork  float64 // sum of unnormalized weights
	SampleSize int
}

// Plan computes the pyramid ladder for a source of the given dimensions and
// slice count. It keeps halving while the smaller side of the current level
// (the source, for the first halving) is at least minDim; the test is on
// the input to each halving, so the last level may fall below minDim. If
// minDim <= 0, MinDim is used.
func Plan(width, height, sliceCount int, minDim int) PyramidPlan {
	if minDim <= 0 {
		minDim = MinDim
	}

	type raw struct {
		w, h, n int
	}
	var levels []raw
	w, h, n := width, height, sliceCount
	for min(w, h) >= minDim {
		w2, h2 := w/2, h/2
		n2 := (n + 1) / 2
		levels = append(levels, raw{w2, h2, n2})
		w, h, n = w2, h2, n2
	}

	srcW := float64(width)
	specs := make([]LevelSpec, len(levels))
	var totalWork float64
	for i, l := range levels {
		sizeFactor := (float64(l.w) / srcW) * (float64(l.w) / srcW)
		weight := float64(l.n) * sizeFactor
		specs[i] = LevelSpec{
			LevelIndex: i + 1,
			Width:      l.w,
			Height:     l.h,
			SliceCount: l.n,
			Weight:     weight,
		}
		totalWork += weight
	}
	if totalWork > 0 {
		for i := range specs {
			specs[i].Weight /= totalWork
		}
	}

	sampleSize := 0
	if totalWork > 0 {
		sampleSize = clampInt(int(math.Floor(totalWork*0.02)), 20, 30)
	}

	return PyramidPlan{Levels: specs, TotalWork: totalWork, SampleSize: sampleSize}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
