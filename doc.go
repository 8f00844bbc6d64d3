// Package ctharvester builds a multi-level thumbnail pyramid from a
// directory of CT slice images and extracts cropped sub-volumes from it.
//
// A typical caller scans a directory, builds the pyramid once (caching
// per-level outputs under .thumbnail/), then makes repeated Crop calls
// against the resulting BuildOutcome while the user adjusts a bounding box
// interactively.
package ctharvester
