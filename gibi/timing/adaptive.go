package timing

import (
	"log/slog"
	"time"
)

// AdaptiveLimiter tracks an absolute schedule of frame deadlines instead of
// sleeping a fixed duration per frame, so oversleeps don't accumulate. It
// sleeps until close to the deadline and busy-waits the final stretch, then
// nudges the schedule when measured drift grows too large.
type AdaptiveLimiter struct {
	targetFrameTime time.Duration
	nextFrameTime   time.Time
	frameCounter    int64
}

func NewAdaptiveLimiter() *AdaptiveLimiter {
	return &AdaptiveLimiter{
		targetFrameTime: FrameDuration(),
		nextFrameTime:   time.Now(),
	}
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	now := time.Now()
	sleepTime := a.nextFrameTime.Sub(now)

	if sleepTime > 0 {
		if sleepTime < 2*time.Millisecond {
			// Short waits busy-spin; time.Sleep overshoots at this scale.
			for time.Now().Before(a.nextFrameTime) {
			}
		} else {
			time.Sleep(sleepTime - time.Millisecond)
			for time.Now().Before(a.nextFrameTime) {
			}
		}
	} else if sleepTime < -5*time.Millisecond {
		// Too far behind to catch up frame by frame; rebase the schedule.
		a.nextFrameTime = now
	}

	a.nextFrameTime = a.nextFrameTime.Add(a.targetFrameTime)
	a.frameCounter++

	if a.frameCounter%60 == 0 {
		drift := time.Now().Sub(a.nextFrameTime)
		if drift.Abs() > 10*time.Millisecond {
			// Correct a tenth of the drift per check so the adjustment
			// never shows up as a visible hitch.
			a.nextFrameTime = a.nextFrameTime.Add(drift / 10)
			slog.Debug("Frame timing drift correction", "drift_ms", drift.Milliseconds())
		}
	}
}

func (a *AdaptiveLimiter) Reset() {
	a.nextFrameTime = time.Now()
	a.frameCounter = 0
}
