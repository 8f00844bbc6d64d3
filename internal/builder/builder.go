// Package builder orchestrates the Directory Scanner, Pyramid Planner,
// Worker Coordinator, and MinimumVolume load into one end-to-end pyramid
// build, with a rotating verbose log.
package builder

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jikhanjung/ctharvester/internal/coordinator"
	"github.com/jikhanjung/ctharvester/internal/layout"
	"github.com/jikhanjung/ctharvester/internal/progress"
	"github.com/jikhanjung/ctharvester/internal/pyramid"
	"github.com/jikhanjung/ctharvester/internal/stack"
	"github.com/jikhanjung/ctharvester/internal/sysinfo"
	"github.com/jikhanjung/ctharvester/internal/volume"
)

// Config controls one Build call.
type Config struct {
	WorkerCount        int // 0 = auto
	MinDim             int // 0 = pyramid.MinDim
	ThumbnailFormat    string
	SampleSizeOverride int // 0 = auto
	PerSliceBytes      int64 // estimate fed to sysinfo.ComputeWorkerCount; 0 = skip memory bound
	Verbose            bool
	LogPath            string // rotating log destination; empty disables file logging
}

// ProgressSink receives progress updates from the coordinator's collection
// loop. It must not block.
type ProgressSink func(percentInt int, etaSeconds *float64, statusMessage string)

// CancelToken is a shared, idempotent, caller-settable cancellation flag.
type CancelToken struct {
	flag atomic.Bool
}

// Set marks the token as cancelled. Idempotent, safe from any goroutine.
func (c *CancelToken) Set() { c.flag.Store(true) }

// IsSet reports whether Set has been called.
func (c *CancelToken) IsSet() bool { return c.flag.Load() }

// Outcome is the result of a Build call.
type Outcome struct {
	Plan      pyramid.PyramidPlan
	Volume    volume.Minimum
	Elapsed   time.Duration
	Cancelled bool
}

// ErrorKind classifies a fatal build-time failure. Exported so callers
// outside this package (the root ctharvester facade) can map it onto their
// own public error-kind enum without string-matching.
type ErrorKind int

const (
	KindInvalidInputDir ErrorKind = iota
	KindIOFailure
	KindConsistencyError
	KindBuildFailed
)

// Error is a fatal build error, tagged with the component and path (if any)
// that produced it.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("builder: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("builder: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// InvalidInputDir wraps err as a fatal directory-scan failure.
func InvalidInputDir(err error) error { return &Error{Kind: KindInvalidInputDir, Err: err} }

// IOFailure wraps err as a fatal filesystem failure unrelated to the input
// directory's shape (e.g. creating the thumbnail cache).
func IOFailure(path string, err error) error { return &Error{Kind: KindIOFailure, Path: path, Err: err} }

// ConsistencyError wraps err as a fatal post-level verification failure.
func ConsistencyError(level int, err error) error {
	return &Error{Kind: KindConsistencyError, Path: fmt.Sprintf("level %d", level), Err: err}
}

// BuildFailed wraps err as a fatal escalated-failure-rate outcome.
func BuildFailed(level int, err error) error {
	return &Error{Kind: KindBuildFailed, Path: fmt.Sprintf("level %d", level), Err: err}
}

// Canceller reports whether cancellation has been requested. CancelToken
// implements it; callers wrapping Build behind their own cancel type can
// pass anything satisfying this instead.
type Canceller interface {
	IsSet() bool
}

// Build runs the full pyramid build against directory, per cfg.
func Build(directory string, cfg Config, sink ProgressSink, cancel Canceller) (Outcome, error) {
	runID := uuid.New().String()
	logger := newLogger(cfg)
	defer logger.close()
	logger.Printf("build %s: starting, directory=%s", runID, directory)

	desc, err := stack.Scan(directory)
	if err != nil {
		logger.Printf("build %s: scan failed: %v", runID, err)
		return Outcome{}, InvalidInputDir(err)
	}
	logger.Printf("build %s: scanned %d slices (%dx%d, %d-bit)", runID, desc.SliceCount(), desc.Width, desc.Height, desc.BitDepth)

	lay := layout.New(directory)
	if err := os.MkdirAll(lay.ThumbnailRoot(), 0o755); err != nil {
		return Outcome{}, IOFailure(lay.ThumbnailRoot(), err)
	}

	plan := pyramid.Plan(desc.Width, desc.Height, desc.SliceCount(), cfg.MinDim)
	sampleSize := plan.SampleSize
	if cfg.SampleSizeOverride > 0 {
		sampleSize = cfg.SampleSizeOverride
	}

	prog := progress.New(func(percent int, eta float64, etaKnown bool) {
		if sink == nil {
			return
		}
		var etaPtr *float64
		if etaKnown {
			v := eta
			etaPtr = &v
		}
		sink(percent, etaPtr, statusForPercent(percent))
	})
	if cancel != nil {
		prog.BindExternalCancel(cancel.IsSet)
	}
	prog.Start(plan.TotalWork, sampleSize)

	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = sysinfo.ComputeWorkerCount(cfg.PerSliceBytes)
	}

	start := time.Now()
	prevSliceCount := desc.SliceCount()

	if prog.CancelRequested() {
		logger.Printf("build %s: cancelled before start", runID)
		return Outcome{Plan: plan, Cancelled: true, Elapsed: time.Since(start)}, nil
	}

	for _, level := range plan.Levels {
		if prog.CancelRequested() {
			logger.Printf("build %s: cancelled before level %d", runID, level.LevelIndex)
			return Outcome{Plan: plan, Cancelled: true, Elapsed: time.Since(start)}, nil
		}

		cached, err := levelIsCached(lay, desc, level, prevSliceCount)
		if err != nil {
			return Outcome{}, ConsistencyError(level.LevelIndex, err)
		}
		if cached {
			logger.Printf("build %s: level %d cached, skipping", runID, level.LevelIndex)
			prog.Advance(level.Weight * plan.TotalWork)
			prevSliceCount = level.SliceCount
			continue
		}

		if err := lay.EnsureLevelDir(level.LevelIndex); err != nil {
			return Outcome{}, IOFailure(lay.LevelDir(level.LevelIndex), err)
		}

		units := buildWorkUnits(lay, desc, level, prevSliceCount)
		weightPerUnit := level.Weight * plan.TotalWork / float64(level.SliceCount)

		outcome, errs := coordinator.Run(units, workerCount, weightPerUnit, prog, nil)
		for idx, e := range errs {
			logger.Printf("build %s: level %d unit %d failed: %v", runID, level.LevelIndex, idx, e)
		}

		switch outcome {
		case coordinator.Cancelled:
			logger.Printf("build %s: cancelled during level %d", runID, level.LevelIndex)
			return Outcome{Plan: plan, Cancelled: true, Elapsed: time.Since(start)}, nil
		case coordinator.Failed:
			return Outcome{}, BuildFailed(level.LevelIndex, fmt.Errorf("%d unit(s) failed", len(errs)))
		}

		n, err := lay.CountOutputs(level.LevelIndex)
		if err != nil {
			return Outcome{}, ConsistencyError(level.LevelIndex, err)
		}
		if n != level.SliceCount {
			return Outcome{}, ConsistencyError(level.LevelIndex, fmt.Errorf("expected %d outputs, found %d", level.SliceCount, n))
		}

		digest, err := sourceDigestForLevel(lay, desc, level, prevSliceCount)
		if err == nil {
			_ = lay.WriteManifest(layout.Manifest{
				Level:        level.LevelIndex,
				SliceCount:   level.SliceCount,
				Width:        level.Width,
				Height:       level.Height,
				BitDepth:     desc.BitDepth,
				SourceDigest: digest,
			})
		}
		prevSliceCount = level.SliceCount
	}

	// Floating-point weight accumulation can leave current a hair short of
	// total; snap to exactly 100% once every level has genuinely finished.
	if remaining := prog.Total() - prog.Current(); remaining > 0 {
		prog.Advance(remaining)
	}

	vol, err := loadMinimumVolume(lay, desc, plan)
	if err != nil {
		return Outcome{}, ConsistencyError(len(plan.Levels), err)
	}

	logger.Printf("build %s: complete in %s", runID, time.Since(start))
	return Outcome{Plan: plan, Volume: vol, Elapsed: time.Since(start)}, nil
}

func statusForPercent(percent int) string {
	if percent >= 100 {
		return "complete"
	}
	return "building"
}

type buildLogger struct {
	verbose bool
	file    *lumberjack.Logger
}

func newLogger(cfg Config) *buildLogger {
	l := &buildLogger{verbose: cfg.Verbose}
	if cfg.LogPath != "" {
		l.file = &lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	}
	return l
}

func (l *buildLogger) Printf(format string, args ...any) {
	if l.verbose {
		log.Printf(format, args...)
	}
	if l.file != nil {
		fmt.Fprintf(l.file, format+"\n", args...)
	}
}

func (l *buildLogger) close() {
	if l.file != nil {
		l.file.Close()
	}
}
