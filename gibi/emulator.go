package gibi

import (
	"github.com/mkoenig/go-gibi/gibi/debug"
	"github.com/mkoenig/go-gibi/gibi/input/action"
	"github.com/mkoenig/go-gibi/gibi/timing"
	"github.com/mkoenig/go-gibi/gibi/video"
)

// Emulator is the surface a backend drives the core system through: advance
// by one frame, read back the finished frame, forward input, and pull debug
// state without reaching into DMG internals.
type Emulator interface {
	RunUntilFrame() error
	GetCurrentFrame() *video.FrameBuffer
	HandleAction(act action.Action, pressed bool)
	ExtractDebugData() *debug.CompleteDebugData
	SetFrameLimiter(limiter timing.Limiter)
	ResetFrameTiming()
}

var _ Emulator = (*DMG)(nil)
