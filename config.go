package ctharvester

import "sync/atomic"

// Config controls one Build call. The zero value is a usable default:
// auto worker count, default minimum dimension, TIFF thumbnails, auto
// sample size, no memory budget, quiet.
type Config struct {
	// WorkerCount bounds the pyramid build's concurrency. 0 selects
	// min(logical CPUs, memory budget / PerSliceBytes, 8).
	WorkerCount int

	// MinDim is the minimum level dimension that still produces another
	// level (spec.md §4.2). 0 selects pyramid.MinDim (512).
	MinDim int

	// ThumbnailFormat is passed through to the builder, which does not read
	// it: level outputs are always written as TIFF (".tif") whatever its
	// value.
	ThumbnailFormat string

	// SampleSizeOverride replaces the planner's computed ETA sample size
	// when positive.
	SampleSizeOverride int

	// PerSliceBytes estimates one in-flight slice's memory footprint, fed
	// into the auto worker-count calculation when WorkerCount is 0. 0
	// skips the memory bound entirely.
	PerSliceBytes int64

	// Verbose mirrors build progress to the standard logger in addition
	// to any configured LogPath.
	Verbose bool

	// LogPath, if non-empty, receives a rotating build log (10MB per
	// file, 3 backups, 28 day retention).
	LogPath string
}

// ProgressSink receives progress updates from the coordinator's collection
// loop. It is never called from a worker goroutine and must not block.
// etaSeconds is nil until enough samples have accumulated to estimate it.
type ProgressSink func(percentInt int, etaSeconds *float64, statusMessage string)

// CancelToken is a shared, idempotent, caller-settable cancellation flag.
// The zero value is ready to use.
type CancelToken struct {
	flag atomic.Bool
}

// Set marks the token as cancelled. Idempotent, safe from any goroutine.
func (c *CancelToken) Set() { c.flag.Store(true) }

// IsSet reports whether Set has been called.
func (c *CancelToken) IsSet() bool { return c.flag.Load() }
