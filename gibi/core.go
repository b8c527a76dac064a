package gibi

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/mkoenig/go-gibi/gibi/addr"
	"github.com/mkoenig/go-gibi/gibi/audio"
	"github.com/mkoenig/go-gibi/gibi/cpu"
	"github.com/mkoenig/go-gibi/gibi/debug"
	"github.com/mkoenig/go-gibi/gibi/input/action"
	"github.com/mkoenig/go-gibi/gibi/memory"
	"github.com/mkoenig/go-gibi/gibi/timing"
	"github.com/mkoenig/go-gibi/gibi/video"
)

// DebuggerState represents the current debugger mode
type DebuggerState int

const (
	DebuggerRunning   DebuggerState = iota // Normal execution
	DebuggerPaused                         // Paused, waiting for commands
	DebuggerStep                           // Execute one instruction then pause
	DebuggerStepFrame                      // Execute one frame then pause
)

// DMG is the root struct and entry point for running the emulation: it owns
// the CPU, GPU and MMU (which in turn owns the APU, timer, serial port and
// joypad) and drives them one instruction at a time.
type DMG struct {
	cpu *cpu.CPU
	gpu *video.GPU
	mem *memory.MMU

	limiter timing.Limiter

	// Debugger state
	debuggerState    DebuggerState
	debuggerMutex    sync.RWMutex
	stepRequested    bool
	frameRequested   bool
	instructionCount uint64
	frameCount       uint64

	// Completion detection for headless test-rom runs (see
	// ConfigureCompletionDetection / RunUntilComplete).
	completionEnabled      bool
	completionMaxFrames    uint64
	completionMinLoopCount int
}

func (e *DMG) init(mem *memory.MMU) {
	e.cpu = cpu.New(mem)
	e.gpu = video.NewGpu(mem)
	e.mem = mem
	e.limiter = timing.NewNoOpLimiter()
}

// New creates a new emulator instance
func New() *DMG {
	e := &DMG{}
	e.init(memory.NewWithCartridge(memory.NewCartridge()))

	return e
}

// NewWithFile creates a new emulator instance and loads the file specified into it.
func NewWithFile(path string) (*DMG, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	slog.Debug("Loaded ROM data", "size", len(data))

	cart := memory.NewCartridgeWithData(data)
	if err := cart.Validate(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	slog.Info("Cartridge loaded", "header", cart.String())

	e := &DMG{}
	e.init(memory.NewWithCartridge(cart))

	return e, nil
}

// tickInstruction executes one CPU instruction and advances every other
// component (GPU, APU, timer, serial, DMA, RTC) by the same number of dots.
func (e *DMG) tickInstruction() int {
	cycles := e.cpu.Tick()
	e.gpu.Tick(cycles)
	e.mem.Tick(cycles)
	e.mem.APU.Tick(cycles)
	e.instructionCount++
	return cycles
}

// RunUntilFrame advances the emulator until a full frame (70224 dots) has
// been produced, honoring whatever debugger mode is currently active.
func (e *DMG) RunUntilFrame() error {
	e.debuggerMutex.RLock()
	state := e.debuggerState
	e.debuggerMutex.RUnlock()

	switch state {
	case DebuggerPaused:
		return nil

	case DebuggerStep:
		e.debuggerMutex.Lock()
		requested := e.stepRequested
		e.stepRequested = false
		e.debuggerMutex.Unlock()

		if !requested {
			return nil
		}

		oldPC := e.cpu.GetPC()
		e.tickInstruction()
		slog.Debug("Step executed", "pc", fmt.Sprintf("0x%04X", oldPC), "new_pc", fmt.Sprintf("0x%04X", e.cpu.GetPC()))
		e.SetDebuggerState(DebuggerPaused)
		return nil

	case DebuggerStepFrame:
		e.debuggerMutex.Lock()
		requested := e.frameRequested
		e.frameRequested = false
		e.debuggerMutex.Unlock()

		if !requested {
			return nil
		}

		e.runFrame()
		e.SetDebuggerState(DebuggerPaused)
		return nil

	default:
		e.runFrame()
		if e.frameCount%60 == 0 {
			slog.Debug("Frame completed", "frame", e.frameCount, "pc", fmt.Sprintf("0x%04X", e.cpu.GetPC()))
		}
		e.limiter.WaitForNextFrame()
		return nil
	}
}

func (e *DMG) runFrame() {
	total := 0
	for total < timing.CyclesPerFrame {
		total += e.tickInstruction()
	}
	e.frameCount++
}

func (e *DMG) GetCurrentFrame() *video.FrameBuffer {
	return e.gpu.GetFrameBuffer()
}

// HandleAction routes a logical input action to the joypad, ignoring
// anything outside the hardware-button category.
func (e *DMG) HandleAction(act action.Action, pressed bool) {
	key, ok := joypadKeyFor(act)
	if !ok {
		return
	}

	if pressed {
		e.mem.HandleKeyPress(key)
	} else {
		e.mem.HandleKeyRelease(key)
	}
}

func joypadKeyFor(act action.Action) (memory.JoypadKey, bool) {
	switch act {
	case action.GBButtonA:
		return memory.JoypadA, true
	case action.GBButtonB:
		return memory.JoypadB, true
	case action.GBButtonStart:
		return memory.JoypadStart, true
	case action.GBButtonSelect:
		return memory.JoypadSelect, true
	case action.GBDPadUp:
		return memory.JoypadUp, true
	case action.GBDPadDown:
		return memory.JoypadDown, true
	case action.GBDPadLeft:
		return memory.JoypadLeft, true
	case action.GBDPadRight:
		return memory.JoypadRight, true
	default:
		return 0, false
	}
}

func (e *DMG) HandleKeyPress(key memory.JoypadKey) {
	e.mem.HandleKeyPress(key)
}

func (e *DMG) HandleKeyRelease(key memory.JoypadKey) {
	e.mem.HandleKeyRelease(key)
}

func (e *DMG) GetCPU() *cpu.CPU {
	return e.cpu
}

// SetFrameLimiter installs a frame pacer; passing nil reverts to unthrottled
// execution.
func (e *DMG) SetFrameLimiter(limiter timing.Limiter) {
	if limiter == nil {
		e.limiter = timing.NewNoOpLimiter()
		return
	}
	e.limiter = limiter
}

func (e *DMG) ResetFrameTiming() {
	e.limiter.Reset()
}

// Debugger control methods
func (e *DMG) SetDebuggerState(state DebuggerState) {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.debuggerState = state
	slog.Debug("Debugger state changed", "state", state)
}

func (e *DMG) GetDebuggerState() DebuggerState {
	e.debuggerMutex.RLock()
	defer e.debuggerMutex.RUnlock()
	return e.debuggerState
}

func (e *DMG) DebuggerPause() {
	e.SetDebuggerState(DebuggerPaused)
	slog.Info("Emulator paused")
}

func (e *DMG) DebuggerResume() {
	e.SetDebuggerState(DebuggerRunning)
	slog.Info("Emulator resumed")
}

func (e *DMG) DebuggerStepInstruction() {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.stepRequested = true
	e.debuggerState = DebuggerStep
	slog.Info("Step instruction requested")
}

func (e *DMG) DebuggerStepFrame() {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.frameRequested = true
	e.debuggerState = DebuggerStepFrame
	slog.Info("Step frame requested")
}

func (e *DMG) GetInstructionCount() uint64 {
	return e.instructionCount
}

func (e *DMG) GetFrameCount() uint64 {
	return e.frameCount
}

func (e *DMG) GetMMU() *memory.MMU {
	return e.mem
}

func (e *DMG) GetAudioProvider() audio.Provider {
	return e.mem.APU
}

// SaveBatteryRAM writes the cartridge's battery-backed RAM (and RTC state,
// for MBC3) to path. A cartridge with no battery is a no-op.
func (e *DMG) SaveBatteryRAM(path string) error {
	data := e.mem.SnapshotBatteryRAM()
	if data == nil {
		return nil
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing save file: %w", err)
	}
	slog.Debug("Battery RAM saved", "path", path, "size", len(data))
	return nil
}

// LoadBatteryRAM restores battery-backed RAM from path. A missing save file
// is not an error; it just means this is the first session.
func (e *DMG) LoadBatteryRAM(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading save file: %w", err)
	}
	e.mem.RestoreBatteryRAM(data)
	slog.Debug("Battery RAM restored", "path", path, "size", len(data))
	return nil
}

// ConfigureCompletionDetection arms RunUntilComplete's early-exit check:
// most blargg-style test ROMs finish by settling into a tight loop on one
// PC (often a literal "jr $" or "jp $"), so seeing the same PC at a frame
// boundary minLoopCount times is treated as "test finished." maxFrames is
// an unconditional upper bound in case the ROM never loops detectably.
func (e *DMG) ConfigureCompletionDetection(maxFrames uint64, minLoopCount int) {
	e.completionEnabled = true
	e.completionMaxFrames = maxFrames
	e.completionMinLoopCount = minLoopCount
}

// RunUntilComplete runs full frames until completion is detected (per
// ConfigureCompletionDetection) or completionMaxFrames is reached.
func (e *DMG) RunUntilComplete() {
	pcVisits := make(map[uint16]int)
	var frame uint64

	for e.completionMaxFrames == 0 || frame < e.completionMaxFrames {
		e.runFrame()
		frame++

		if !e.completionEnabled || e.completionMinLoopCount <= 0 {
			continue
		}

		pc := e.cpu.GetPC()
		pcVisits[pc]++
		if pcVisits[pc] >= e.completionMinLoopCount {
			slog.Debug("Completion loop detected", "pc", fmt.Sprintf("0x%04X", pc), "frame", frame)
			return
		}
	}
}

// debugSnapshotRadius is how many bytes of memory around PC ExtractDebugData
// captures, enough for a few lines of disassembly in either direction.
const debugSnapshotRadius = 100

// ExtractDebugData builds a point-in-time snapshot of CPU/memory state for
// debug UIs. Returns nil if the emulator has not been initialized yet.
func (e *DMG) ExtractDebugData() *debug.CompleteDebugData {
	if e.cpu == nil || e.mem == nil {
		return nil
	}

	pc := e.cpu.GetPC()

	var startAddr uint16
	if pc > debugSnapshotRadius {
		startAddr = pc - debugSnapshotRadius
	}

	size := debugSnapshotRadius * 2
	if uint32(startAddr)+uint32(size) > 0xFFFF {
		size = int(0x10000 - uint32(startAddr))
	}

	snapshot := make([]byte, size)
	for i := 0; i < size; i++ {
		snapshot[i] = e.mem.Read(startAddr + uint16(i))
	}

	spriteVis := debug.ExtractSpriteData(e.mem, e.mem.Read(addr.LY))
	bgVis := debug.ExtractBackgroundData(e.mem)
	layers := video.NewRenderLayers()
	bgVis.RenderBackgroundLayer(layers)

	return &debug.CompleteDebugData{
		SpriteVis:     spriteVis,
		BackgroundVis: bgVis,
		PaletteVis:    debug.ExtractPaletteData(e.mem),
		Audio:         debug.ExtractAudioData(e.mem, e.mem.APU),
		LayerBuffers:  layers,
		CPU: &debug.CPUState{
			A:      e.cpu.GetA(),
			F:      e.cpu.GetF(),
			B:      e.cpu.GetB(),
			C:      e.cpu.GetC(),
			D:      e.cpu.GetD(),
			E:      e.cpu.GetE(),
			H:      e.cpu.GetH(),
			L:      e.cpu.GetL(),
			SP:     e.cpu.GetSP(),
			PC:     pc,
			IME:    e.cpu.InterruptsEnabled(),
			Cycles: e.cpu.GetCycles(),
		},
		Memory: &debug.MemorySnapshot{
			StartAddr: startAddr,
			Bytes:     snapshot,
		},
		DebuggerState:   debug.DebuggerState(e.GetDebuggerState()),
		InterruptEnable: e.mem.Read(addr.IE),
		InterruptFlags:  e.mem.Read(addr.IF),
	}
}
