package ctharvester

import (
	"github.com/jikhanjung/ctharvester/internal/builder"
	"github.com/jikhanjung/ctharvester/internal/pyramid"
	"github.com/jikhanjung/ctharvester/internal/volume"
)

// BuildOutcome is the result of a successful (or cancelled) Build call.
type BuildOutcome struct {
	Plan           pyramid.PyramidPlan
	MinimumVolume  volume.Minimum
	ElapsedSeconds float64
	Cancelled      bool
}

// Volume is a cropped sub-volume returned by Crop: a dense row-major u8
// array of shape (Depth, Height, Width).
type Volume struct {
	Depth  int
	Height int
	Width  int
	Data   []uint8
}

// Build scans directory for a CT slice stack, builds (or reuses a cached)
// multi-level thumbnail pyramid under directory/.thumbnail, and loads the
// smallest level (or the source stack itself, below cfg.MinDim) into
// memory as the returned BuildOutcome's MinimumVolume.
//
// sink, if non-nil, receives progress updates from the single goroutine
// collecting worker results — never concurrently, never from a worker
// goroutine. cancel, if non-nil, is polled cooperatively before the first
// level and between and during levels; a cancelled build returns a zero
// error with
// BuildOutcome.Cancelled == true, not an error.
func Build(directory string, cfg Config, sink ProgressSink, cancel *CancelToken) (BuildOutcome, error) {
	bcfg := builder.Config{
		WorkerCount:        cfg.WorkerCount,
		MinDim:             cfg.MinDim,
		ThumbnailFormat:    cfg.ThumbnailFormat,
		SampleSizeOverride: cfg.SampleSizeOverride,
		PerSliceBytes:      cfg.PerSliceBytes,
		Verbose:            cfg.Verbose,
		LogPath:            cfg.LogPath,
	}

	var bsink builder.ProgressSink
	if sink != nil {
		bsink = builder.ProgressSink(sink)
	}

	var bcancel builder.Canceller
	if cancel != nil {
		bcancel = cancel
	}

	out, err := builder.Build(directory, bcfg, bsink, bcancel)
	if err != nil {
		return BuildOutcome{}, asBuildError(err)
	}

	return BuildOutcome{
		Plan:           out.Plan,
		MinimumVolume:  out.Volume,
		ElapsedSeconds: out.Elapsed.Seconds(),
		Cancelled:      out.Cancelled,
	}, nil
}

// Crop extracts a cropped sub-volume from outcome's MinimumVolume. zBottom
// and zTop form a half-open interval [zBottom, zTop) of slice indices; x0,
// y0, x1, y1 are fractions of the volume's width/height in [0, 1].
func Crop(outcome BuildOutcome, zBottom, zTop int, x0, y0, x1, y1 float64) (Volume, error) {
	c, err := volume.Crop(outcome.MinimumVolume, zBottom, zTop, x0, y0, x1, y1)
	if err != nil {
		return Volume{}, err
	}
	return Volume{Depth: c.Depth, Height: c.Height, Width: c.Width, Data: c.Data}, nil
}
