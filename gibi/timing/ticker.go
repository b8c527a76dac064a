package timing

import "time"

// TickerLimiter paces frames with a plain time.Ticker. It drifts slightly
// against the hardware rate but has no busy-waiting; AdaptiveLimiter is the
// accurate option.
type TickerLimiter struct {
	ticker *time.Ticker
	ch     <-chan time.Time
}

func NewTickerLimiter() *TickerLimiter {
	ticker := time.NewTicker(FrameDuration())
	return &TickerLimiter{ticker: ticker, ch: ticker.C}
}

func (t *TickerLimiter) WaitForNextFrame() {
	<-t.ch
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(FrameDuration())
}

// Stop releases the underlying ticker. The limiter must not be used after.
func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
