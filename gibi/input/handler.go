package input

import (
	"time"

	"github.com/mkoenig/go-gibi/gibi/backend"
	"github.com/mkoenig/go-gibi/gibi/input/action"
	"github.com/mkoenig/go-gibi/gibi/input/event"
)

// Handler manages input processing with debouncing for UI actions
type Handler struct {
	lastActionTime map[action.Action]time.Time
	debounceDelay  time.Duration
}

func NewHandler() *Handler {
	return &Handler{
		lastActionTime: make(map[action.Action]time.Time),
		debounceDelay:  300 * time.Millisecond,
	}
}

// ProcessEvent processes an input event, debouncing Press events for actions
// flagged as one-shot (UI toggles, snapshots). Game Boy buttons, releases and
// holds always pass through.
// Returns true if the event should be handled, false if it was debounced.
func (h *Handler) ProcessEvent(evt backend.InputEvent) bool {
	if evt.Type != event.Press || !action.GetInfo(evt.Action).Debounce {
		return true
	}

	now := time.Now()
	if lastTime, exists := h.lastActionTime[evt.Action]; exists && now.Sub(lastTime) < h.debounceDelay {
		return false
	}
	h.lastActionTime[evt.Action] = now
	return true
}
