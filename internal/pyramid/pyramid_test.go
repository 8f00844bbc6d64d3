package pyramid

import (
	"math"
	"testing"
)

func TestPlan_BelowMinDimProducesNoLevels(t *testing.T) {
	p := Plan(400, 400, 10, MinDim)
	if len(p.Levels) != 0 {
		t.Fatalf("expected zero levels, got %d", len(p.Levels))
	}
}

func TestPlan_AtOrAboveMinDimProducesAtLeastOneLevel(t *testing.T) {
	p := Plan(512, 512, 10, MinDim)
	if len(p.Levels) < 1 {
		t.Fatalf("expected at least one level, got %d", len(p.Levels))
	}
}

func TestPlan_ThreeLevelCase(t *testing.T) {
	p := Plan(3072, 3072, 1514, MinDim)

	want := []LevelSpec{
		{LevelIndex: 1, Width: 1536, Height: 1536, SliceCount: 757},
		{LevelIndex: 2, Width: 768, Height: 768, SliceCount: 379},
		{LevelIndex: 3, Width: 384, Height: 384, SliceCount: 190},
	}
	if len(p.Levels) != len(want) {
		t.Fatalf("expected %d levels, got %d", len(want), len(p.Levels))
	}
	for i, w := range want {
		got := p.Levels[i]
		if got.LevelIndex != w.LevelIndex || got.Width != w.Width || got.Height != w.Height || got.SliceCount != w.SliceCount {
			t.Errorf("level %d: got %+v, want dims/count %+v", i, got, w)
		}
	}
}

func TestPlan_SliceCountAndDimensionRecurrence(t *testing.T) {
	p := Plan(3072, 3072, 1514, MinDim)
	prevW, prevH, prevN := 3072, 3072, 1514
	for _, l := range p.Levels {
		wantW := prevW / 2
		wantH := prevH / 2
		wantN := (prevN + 1) / 2
		if l.Width != wantW || l.Height != wantH || l.SliceCount != wantN {
			t.Errorf("level %d: got (w=%d,h=%d,n=%d), want (w=%d,h=%d,n=%d)",
				l.LevelIndex, l.Width, l.Height, l.SliceCount, wantW, wantH, wantN)
		}
		prevW, prevH, prevN = l.Width, l.Height, l.SliceCount
	}
}

func TestPlan_NormalizedWeightsSumToOne(t *testing.T) {
	p := Plan(3072, 3072, 1514, MinDim)
	var sum float64
	for _, l := range p.Levels {
		sum += l.Weight
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("expected weights to sum to 1.0, got %v", sum)
	}
}

func TestPlan_SampleSizeWithinBounds(t *testing.T) {
	p := Plan(3072, 3072, 1514, MinDim)
	if p.SampleSize < 20 || p.SampleSize > 30 {
		t.Fatalf("sample size %d out of bounds [20,30]", p.SampleSize)
	}
}

func TestPlan_EmptyPlanHasZeroSampleSize(t *testing.T) {
	p := Plan(256, 256, 5, MinDim)
	if p.SampleSize != 0 {
		t.Fatalf("expected sample size 0 for empty plan, got %d", p.SampleSize)
	}
}
