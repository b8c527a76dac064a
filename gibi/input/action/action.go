// Package action enumerates every logical input the emulator understands,
// decoupled from the physical keys each backend binds to them.
package action

// Action is a logical input: a Game Boy button, an emulator control, or a
// debug shortcut.
type Action int

const (
	// Game Boy hardware controls
	GBButtonA Action = iota
	GBButtonB
	GBButtonStart
	GBButtonSelect
	GBDPadUp
	GBDPadDown
	GBDPadLeft
	GBDPadRight

	// Emulator features
	EmulatorDebugToggle
	EmulatorDebugUpdate
	EmulatorSnapshot
	EmulatorPauseToggle
	EmulatorStepFrame
	EmulatorStepInstruction
	EmulatorTestPatternCycle
	EmulatorQuit

	// Audio debugging
	AudioToggleChannel1
	AudioToggleChannel2
	AudioToggleChannel3
	AudioToggleChannel4
	AudioSoloChannel1
	AudioSoloChannel2
	AudioSoloChannel3
	AudioSoloChannel4
	AudioShowStatus

	// Debug controls
	DebugLogLevelIncrease
	DebugLogLevelDecrease
)

// Category routes an action to the component that handles it.
type Category int

const (
	CategoryGameInput Category = iota // forwarded to the joypad
	CategoryEmulator                  // core emulator features (pause, step, quit)
	CategoryBackend                   // backend-specific (snapshots, test patterns)
	CategoryAudio                     // APU debug controls
	CategoryDebug                     // debug views and log filtering
)

// ActionInfo describes how an action behaves: which component owns it,
// whether rapid repeats should be debounced, and a label for UIs and logs.
type ActionInfo struct {
	Action      Action
	Category    Category
	Debounce    bool
	Description string
}

func info(a Action, cat Category, debounce bool, desc string) ActionInfo {
	return ActionInfo{Action: a, Category: cat, Debounce: debounce, Description: desc}
}

var actionInfoMap = map[Action]ActionInfo{
	GBButtonA:      info(GBButtonA, CategoryGameInput, false, "A button"),
	GBButtonB:      info(GBButtonB, CategoryGameInput, false, "B button"),
	GBButtonStart:  info(GBButtonStart, CategoryGameInput, false, "Start button"),
	GBButtonSelect: info(GBButtonSelect, CategoryGameInput, false, "Select button"),
	GBDPadUp:       info(GBDPadUp, CategoryGameInput, false, "D-Pad Up"),
	GBDPadDown:     info(GBDPadDown, CategoryGameInput, false, "D-Pad Down"),
	GBDPadLeft:     info(GBDPadLeft, CategoryGameInput, false, "D-Pad Left"),
	GBDPadRight:    info(GBDPadRight, CategoryGameInput, false, "D-Pad Right"),

	EmulatorDebugToggle:      info(EmulatorDebugToggle, CategoryDebug, true, "Toggle debug display"),
	EmulatorDebugUpdate:      info(EmulatorDebugUpdate, CategoryDebug, false, "Update debug display"),
	EmulatorSnapshot:         info(EmulatorSnapshot, CategoryBackend, true, "Take snapshot"),
	EmulatorPauseToggle:      info(EmulatorPauseToggle, CategoryEmulator, true, "Toggle pause"),
	EmulatorStepFrame:        info(EmulatorStepFrame, CategoryEmulator, true, "Step one frame"),
	EmulatorStepInstruction:  info(EmulatorStepInstruction, CategoryEmulator, true, "Step one instruction"),
	EmulatorTestPatternCycle: info(EmulatorTestPatternCycle, CategoryBackend, true, "Cycle test patterns"),
	EmulatorQuit:             info(EmulatorQuit, CategoryEmulator, true, "Quit"),

	AudioToggleChannel1: info(AudioToggleChannel1, CategoryAudio, true, "Toggle audio channel 1"),
	AudioToggleChannel2: info(AudioToggleChannel2, CategoryAudio, true, "Toggle audio channel 2"),
	AudioToggleChannel3: info(AudioToggleChannel3, CategoryAudio, true, "Toggle audio channel 3"),
	AudioToggleChannel4: info(AudioToggleChannel4, CategoryAudio, true, "Toggle audio channel 4"),
	AudioSoloChannel1:   info(AudioSoloChannel1, CategoryAudio, true, "Solo audio channel 1"),
	AudioSoloChannel2:   info(AudioSoloChannel2, CategoryAudio, true, "Solo audio channel 2"),
	AudioSoloChannel3:   info(AudioSoloChannel3, CategoryAudio, true, "Solo audio channel 3"),
	AudioSoloChannel4:   info(AudioSoloChannel4, CategoryAudio, true, "Solo audio channel 4"),
	AudioShowStatus:     info(AudioShowStatus, CategoryAudio, true, "Show audio status"),

	DebugLogLevelIncrease: info(DebugLogLevelIncrease, CategoryDebug, true, "Log level up"),
	DebugLogLevelDecrease: info(DebugLogLevelDecrease, CategoryDebug, true, "Log level down"),
}

// GetInfo returns an action's metadata, with a safe fallback for values
// outside the known set.
func GetInfo(a Action) ActionInfo {
	if i, ok := actionInfoMap[a]; ok {
		return i
	}
	return ActionInfo{Action: a, Category: CategoryEmulator, Description: "Unknown action"}
}
