package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_AdvanceClampsAtTotal(t *testing.T) {
	s := New(nil)
	s.Start(10, 0)
	s.Advance(15)
	assert.Equal(t, float64(10), s.Current())
	assert.Equal(t, 100, s.Percent())
}

func TestState_AdvanceNeverDecreases(t *testing.T) {
	s := New(nil)
	s.Start(10, 0)
	s.Advance(3)
	first := s.Current()
	s.Advance(2)
	assert.Greater(t, s.Current(), first)
}

func TestState_EmitsOnlyOnPercentChange(t *testing.T) {
	var emitted []int
	s := New(func(percent int, _ float64, _ bool) {
		emitted = append(emitted, percent)
	})
	s.Start(100, 0)
	for i := 0; i < 5; i++ {
		s.Advance(0.1) // 0.5 total, stays at 0% after the initial emission
	}
	require.Len(t, emitted, 1, "only the first Advance call should emit while percent stays at 0")
	assert.Equal(t, 0, emitted[0])

	s.Advance(1) // current = 1.5, now 1%
	require.Len(t, emitted, 2)
	assert.Equal(t, 1, emitted[1])
}

func TestState_ETAUnknownBeforeSampleSize(t *testing.T) {
	s := New(nil)
	s.Start(1000, 20)
	s.Advance(5)
	_, known := s.ETA()
	assert.False(t, known, "ETA should be unknown before sample_size units complete")
}

func TestState_ETAKnownAfterSampleSize(t *testing.T) {
	s := New(nil)
	s.Start(1000, 5)
	for i := 0; i < 6; i++ {
		s.Advance(1)
		time.Sleep(time.Millisecond)
	}
	eta, known := s.ETA()
	assert.True(t, known)
	assert.GreaterOrEqual(t, eta, float64(0))
}

func TestState_CancelRequested(t *testing.T) {
	s := New(nil)
	s.Start(10, 0)
	assert.False(t, s.CancelRequested())
	s.RequestCancel()
	assert.True(t, s.CancelRequested())
}

func TestState_PercentAtZeroTotalIsComplete(t *testing.T) {
	s := New(nil)
	s.Start(0, 0)
	assert.Equal(t, 100, s.Percent())
}
