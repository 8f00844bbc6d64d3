// Package progress implements the thread-safe weighted progress counter
// shared between the worker coordinator and the caller's progress sink.
package progress

import (
	"sync"
	"sync/atomic"
	"time"
)

// sampleWindow is the ring buffer size used for ETA smoothing (K ~ 10).
const sampleWindow = 10

// State is the single shared progress instance for one build. Zero value is
// not usable; construct with New.
type State struct {
	mu sync.Mutex

	total      float64
	current    float64
	sampleSize int
	startedAt  time.Time

	ring      [sampleWindow]sample
	ringLen   int
	ringHead  int
	isSamplng bool

	lastEmittedPercent int
	onUpdate           func(percent int, etaSeconds float64, etaKnown bool)

	cancelRequested atomic.Bool
	externalCancel  func() bool
}

type sample struct {
	at      time.Time
	current float64
}

// New constructs a State ready for Start. onUpdate, if non-nil, is invoked
// synchronously from advance whenever the integer percentage changes; it
// must not block.
func New(onUpdate func(percent int, etaSeconds float64, etaKnown bool)) *State {
	return &State{onUpdate: onUpdate, lastEmittedPercent: -1}
}

// Start resets State to begin a new build of the given total work and
// sample size.
func (s *State) Start(total float64, sampleSize int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total = total
	s.current = 0
	s.sampleSize = sampleSize
	s.startedAt = time.Now()
	s.ringLen = 0
	s.ringHead = 0
	s.isSamplng = false
	s.lastEmittedPercent = -1
	s.cancelRequested.Store(false)
}

// Advance adds delta (non-negative) to current, clamped at total, records a
// sampling-window observation, and emits onUpdate if the integer percentage
// changed.
func (s *State) Advance(delta float64) {
	if delta < 0 {
		delta = 0
	}

	s.mu.Lock()
	s.current += delta
	if s.total > 0 && s.current > s.total {
		s.current = s.total
	}
	now := time.Now()
	s.pushSample(now, s.current)
	if s.sampleSize > 0 && s.current >= float64(s.sampleSize) {
		s.isSamplng = true
	}

	percent := s.percentLocked()
	emit := percent != s.lastEmittedPercent
	if emit {
		s.lastEmittedPercent = percent
	}
	eta, etaKnown := s.etaLocked()
	cb := s.onUpdate
	s.mu.Unlock()

	if emit && cb != nil {
		cb(percent, eta, etaKnown)
	}
}

func (s *State) pushSample(at time.Time, current float64) {
	idx := (s.ringHead + s.ringLen) % sampleWindow
	if s.ringLen < sampleWindow {
		s.ring[idx] = sample{at: at, current: current}
		s.ringLen++
		return
	}
	// Ring is full: overwrite the oldest slot and advance head.
	s.ring[s.ringHead] = sample{at: at, current: current}
	s.ringHead = (s.ringHead + 1) % sampleWindow
}

// Percent returns the current integer percentage (0-100).
func (s *State) Percent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.percentLocked()
}

func (s *State) percentLocked() int {
	if s.total <= 0 {
		return 100
	}
	pct := int(s.current / s.total * 100)
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// ETA returns the smoothed estimated seconds remaining and whether an
// estimate is available yet (false once sampling hasn't started, or the
// smoothed speed is non-positive).
func (s *State) ETA() (seconds float64, known bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.etaLocked()
}

func (s *State) etaLocked() (float64, bool) {
	if !s.isSamplng || s.ringLen < 2 {
		return 0, false
	}
	oldest := s.ring[s.ringHead]
	newestIdx := (s.ringHead + s.ringLen - 1) % sampleWindow
	newest := s.ring[newestIdx]

	dt := newest.at.Sub(oldest.at).Seconds()
	dc := newest.current - oldest.current
	if dt <= 0 || dc <= 0 {
		return 0, false
	}
	speed := dc / dt
	if speed <= 0 {
		return 0, false
	}
	remaining := s.total - s.current
	if remaining < 0 {
		remaining = 0
	}
	return remaining / speed, true
}

// RequestCancel sets the cooperative cancellation flag. Safe to call from
// any goroutine, any number of times.
func (s *State) RequestCancel() {
	s.cancelRequested.Store(true)
}

// BindExternalCancel wires an external cancel source (e.g. a caller-owned
// CancelToken) into CancelRequested, so the coordinator observes the
// caller's cancel request without the builder needing to poll it and call
// RequestCancel itself on every tick.
func (s *State) BindExternalCancel(isSet func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.externalCancel = isSet
}

// CancelRequested reports whether cancellation has been requested, either
// directly via RequestCancel or through a bound external source.
func (s *State) CancelRequested() bool {
	if s.cancelRequested.Load() {
		return true
	}
	s.mu.Lock()
	fn := s.externalCancel
	s.mu.Unlock()
	return fn != nil && fn()
}

// Current returns the current raw progress value (same scale as total).
func (s *State) Current() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Total returns the total work value passed to Start.
func (s *State) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}
