// Package coordinator dispatches per-pair downsampling work for one
// pyramid level to a bounded worker pool and aggregates completions into
// the shared progress model.
package coordinator

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/jikhanjung/ctharvester/internal/downsample"
	"github.com/jikhanjung/ctharvester/internal/imgcodec"
	"github.com/jikhanjung/ctharvester/internal/progress"
)

// WorkUnit is one pair-average + decimate task.
type WorkUnit struct {
	LevelIndex  int
	OutputIndex int
	InputPathA  string
	InputPathB  string // empty if absent (odd input count, last output)
	OutputPath  string
	BitDepth    int // 8 or 16
}

// Result is the outcome of one WorkUnit.
type Result struct {
	OutputIndex int
	Err         error
}

// Outcome is what a level's coordination run produced.
type Outcome int

const (
	// Completed means every unit that did not fail wrote its output, and
	// the failure rate stayed under the escalation threshold.
	Completed Outcome = iota
	// Cancelled means cancellation was observed mid-level; in-flight units
	// were allowed to finish, no new units were submitted.
	Cancelled
	// Failed means the failure-escalation policy tripped.
	Failed
)

// EscalationPolicy decides whether accumulated per-unit failures should
// abort a level. levelIndex is 1-based; failed and total describe the
// level's units so far.
type EscalationPolicy func(levelIndex, failed, total int) bool

// DefaultEscalationPolicy implements the conservative policy: any failure
// in level 1 is fatal; for level L>1, escalate once failures exceed 10% of
// the level's unit count.
func DefaultEscalationPolicy(levelIndex, failed, total int) bool {
	if failed == 0 {
		return false
	}
	if levelIndex == 1 {
		return true
	}
	return float64(failed) > 0.10*float64(total)
}

// Run dispatches units to a pool of workerCount goroutines, advancing prog
// by weightPerUnit for every completed unit (success or failure alike —
// progress tracks data processed, not successful outcomes). It returns once
// all units have been accounted for, cancellation was observed, or the
// escalation policy tripped.
//
// Errs collects one entry per failed unit, keyed by output index, for the
// caller to log or surface.
func Run(units []WorkUnit, workerCount int, weightPerUnit float64, prog *progress.State, policy EscalationPolicy) (Outcome, map[int]error) {
	if policy == nil {
		policy = DefaultEscalationPolicy
	}
	if workerCount < 1 {
		workerCount = 1
	}
	if len(units) == 0 {
		return Completed, nil
	}

	jobs := make(chan WorkUnit)
	// Buffered to len(units): every unit submitted is guaranteed exactly
	// one send, so workers never block even if the consumer below stops
	// reading early (escalation) before all sends land.
	results := make(chan Result, len(units))

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				results <- processUnit(u)
			}
		}()
	}

	var stop atomic.Bool
	go func() {
		defer close(jobs)
		for _, u := range units {
			if prog.CancelRequested() || stop.Load() {
				return
			}
			jobs <- u
		}
	}()

	// Closes results once every worker has returned, unblocking the range
	// below whether the level ran to completion, stopped early on
	// cancellation (fewer than len(units) sends happened), or escalated.
	go func() {
		wg.Wait()
		close(results)
	}()

	levelIndex := units[0].LevelIndex
	errs := map[int]error{}
	completed := 0
	failed := 0
	escalated := false

	for r := range results {
		completed++
		if r.Err != nil {
			failed++
			errs[r.OutputIndex] = r.Err
		}
		prog.Advance(weightPerUnit)

		if !escalated && policy(levelIndex, failed, completed) {
			escalated = true
			stop.Store(true)
		}
	}

	if escalated {
		return Failed, errs
	}
	if prog.CancelRequested() {
		return Cancelled, errs
	}
	return Completed, errs
}

func processUnit(u WorkUnit) Result {
	switch u.BitDepth {
	case 8:
		return process8(u)
	case 16:
		return process16(u)
	default:
		return Result{OutputIndex: u.OutputIndex, Err: fmt.Errorf("coordinator: unsupported bit depth %d for unit %d", u.BitDepth, u.OutputIndex)}
	}
}

func process8(u WorkUnit) Result {
	a, h, w, err := loadGray8(u.InputPathA)
	if err != nil {
		return Result{OutputIndex: u.OutputIndex, Err: err}
	}
	defer imgcodec.PutBytes(a)

	var b []uint8
	if u.InputPathB != "" {
		var hb, wb int
		b, hb, wb, err = loadGray8(u.InputPathB)
		if err != nil {
			return Result{OutputIndex: u.OutputIndex, Err: err}
		}
		defer imgcodec.PutBytes(b)
		if hb != h || wb != w {
			return Result{OutputIndex: u.OutputIndex, Err: fmt.Errorf("coordinator: shape mismatch between %s and %s", u.InputPathA, u.InputPathB)}
		}
	}

	_, _, out, err := downsample.Pair8(h, w, a, b)
	if err != nil {
		return Result{OutputIndex: u.OutputIndex, Err: err}
	}
	if err := writeGray8(u.OutputPath, w/2, h/2, out); err != nil {
		return Result{OutputIndex: u.OutputIndex, Err: err}
	}
	return Result{OutputIndex: u.OutputIndex}
}

func process16(u WorkUnit) Result {
	a, h, w, err := loadGray16(u.InputPathA)
	if err != nil {
		return Result{OutputIndex: u.OutputIndex, Err: err}
	}
	var b []uint16
	if u.InputPathB != "" {
		var hb, wb int
		b, hb, wb, err = loadGray16(u.InputPathB)
		if err != nil {
			return Result{OutputIndex: u.OutputIndex, Err: err}
		}
		if hb != h || wb != w {
			return Result{OutputIndex: u.OutputIndex, Err: fmt.Errorf("coordinator: shape mismatch between %s and %s", u.InputPathA, u.InputPathB)}
		}
	}

	_, _, out, err := downsample.Pair16(h, w, a, b)
	if err != nil {
		return Result{OutputIndex: u.OutputIndex, Err: err}
	}
	if err := writeGray16(u.OutputPath, w/2, h/2, out); err != nil {
		return Result{OutputIndex: u.OutputIndex, Err: err}
	}
	return Result{OutputIndex: u.OutputIndex}
}

// loadGray8 decodes path into a row-major u8 buffer drawn from imgcodec's
// scratch pool; the caller must return it with imgcodec.PutBytes once done.
func loadGray8(path string) (pix []uint8, h, w int, err error) {
	img, err := imgcodec.Load(path)
	if err != nil {
		return nil, 0, 0, err
	}
	bounds := img.Bounds()
	h, w = bounds.Dy(), bounds.Dx()
	out := imgcodec.GetBytes(h * w)

	if g, ok := img.(*image.Gray); ok && g.Stride == w {
		copy(out, g.Pix)
		return out, h, w, nil
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			out[(y-bounds.Min.Y)*w+(x-bounds.Min.X)] = c.Y
		}
	}
	return out, h, w, nil
}

func loadGray16(path string) (pix []uint16, h, w int, err error) {
	img, err := imgcodec.Load(path)
	if err != nil {
		return nil, 0, 0, err
	}
	bounds := img.Bounds()
	h, w = bounds.Dy(), bounds.Dx()

	g, ok := img.(*image.Gray16)
	if !ok {
		return nil, 0, 0, fmt.Errorf("coordinator: %s is not 16-bit grayscale", path)
	}
	out := make([]uint16, h*w)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := g.PixOffset(x, y)
			out[(y-bounds.Min.Y)*w+(x-bounds.Min.X)] = uint16(g.Pix[i])<<8 | uint16(g.Pix[i+1])
		}
	}
	return out, h, w, nil
}

func writeGray8(path string, w, h int, pix []uint8) error {
	img := image.NewGray(image.Rect(0, 0, w, h))
	copy(img.Pix, pix)
	return imgcodec.Write(path, img)
}

func writeGray16(path string, w, h int, pix []uint16) error {
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for i, v := range pix {
		img.Pix[2*i] = byte(v >> 8)
		img.Pix[2*i+1] = byte(v)
	}
	return imgcodec.Write(path, img)
}
