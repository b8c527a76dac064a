// Package timing paces the emulation loop against real time and holds the
// machine's clock constants.
package timing

import "time"

// DMG clock constants: the master clock and the dot length of one frame
// (154 scanlines of 456 dots).
const (
	CyclesPerFrame = 70224
	CPUFrequency   = 4194304
)

// Limiter paces frame production. Implementations decide how strictly:
// the no-op limiter runs flat out, TickerLimiter is a plain time.Ticker at the hardware frame rate, and
// AdaptiveLimiter chases the exact hardware frame rate.
type Limiter interface {
	// WaitForNextFrame blocks until the next frame is due, returning
	// immediately when the loop is already behind.
	WaitForNextFrame()

	// Reset discards accumulated timing state, e.g. after a pause.
	Reset()
}

// TargetFPS is the exact hardware frame rate, ~59.73 Hz.
func TargetFPS() float64 {
	return float64(CPUFrequency) / float64(CyclesPerFrame)
}

// FrameDuration is the wall-clock length of one frame at TargetFPS.
func FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / TargetFPS())
}

// NewNoOpLimiter returns a limiter that never waits, for headless and
// benchmark runs.
func NewNoOpLimiter() Limiter {
	return noOpLimiter{}
}

type noOpLimiter struct{}

func (noOpLimiter) WaitForNextFrame() {}
func (noOpLimiter) Reset()            {}
