package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkoenig/go-gibi/gibi"
	"github.com/mkoenig/go-gibi/gibi/backend"
	"github.com/mkoenig/go-gibi/gibi/backend/sdl2"
	"github.com/mkoenig/go-gibi/gibi/events"
	"github.com/mkoenig/go-gibi/gibi/input/action"
	"github.com/mkoenig/go-gibi/gibi/input/event"
	"github.com/mkoenig/go-gibi/gibi/memory"
	"github.com/mkoenig/go-gibi/gibi/render"
	"github.com/urfave/cli"
	"golang.org/x/term"
)

func main() {
	app := cli.NewApp()
	app.Name = "Gibi"
	app.Description = "A simple gameboy emulator"
	app.Usage = "gibi [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the emulator without a graphical interface",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
			Value: 0,
		},
		cli.BoolFlag{
			Name:  "test-pattern",
			Usage: "Display a test pattern instead of emulation (for debugging display)",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory)",
		},
		cli.BoolFlag{
			Name:  "event-driven",
			Usage: "Use event-driven emulation for cycle-accurate timing (experimental)",
		},
		cli.StringFlag{
			Name:  "save",
			Usage: "Path to the battery save file (default: ROM path with .sav extension)",
		},
		cli.BoolFlag{
			Name:  "info",
			Usage: "Print the cartridge header and exit",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
			Value: "info",
		},
		cli.StringFlag{
			Name:  "backend",
			Usage: "Rendering backend: terminal or sdl2 (requires building with -tags sdl2)",
			Value: "terminal",
		},
	}
	app.Action = runEmulator

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	configureLogging(c.String("log-level"))

	// Test pattern mode - no ROM needed
	if c.Bool("test-pattern") {
		slog.Info("Running in test pattern mode")
		return render.RunTestPattern()
	}

	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	if c.Bool("info") {
		return printCartridgeInfo(romPath)
	}

	savePath := c.String("save")
	if savePath == "" {
		savePath = strings.TrimSuffix(romPath, filepath.Ext(romPath)) + ".sav"
	}

	headless := c.Bool("headless")
	if !headless && !term.IsTerminal(int(os.Stdout.Fd())) {
		slog.Warn("stdout is not a terminal, falling back to headless mode")
		headless = true
		if c.Int("frames") <= 0 {
			return errors.New("stdout is not a terminal: pass --frames to run headless, or run from an interactive terminal")
		}
	}

	if headless {
		frames := c.Int("frames")
		if frames <= 0 {
			return errors.New("headless mode requires --frames option with a positive value")
		}

		snapshotInterval := c.Int("snapshot-interval")
		snapshotDir := c.String("snapshot-dir")

		// Set up snapshot directory
		if snapshotInterval > 0 {
			if snapshotDir == "" {
				// Create temp directory
				tempDir, err := os.MkdirTemp("", "gibi-snapshots-*")
				if err != nil {
					return fmt.Errorf("failed to create snapshot directory: %v", err)
				}
				snapshotDir = tempDir
			} else {
				// Create specified directory if it doesn't exist
				if err := os.MkdirAll(snapshotDir, 0755); err != nil {
					return fmt.Errorf("failed to create snapshot directory: %v", err)
				}
			}
		}

		// Extract ROM name for snapshot filenames
		romName := filepath.Base(romPath)
		romName = strings.TrimSuffix(romName, filepath.Ext(romName))

		eventDriven := c.Bool("event-driven")

		slog.Info("Running headless mode", "frames", frames, "snapshot_interval", snapshotInterval, "snapshot_dir", snapshotDir, "event_driven", eventDriven)

		if eventDriven {
			// Use event-driven emulation
			return runEventDrivenHeadless(romPath, frames, snapshotInterval, snapshotDir, romName)
		} else {
			// Use traditional emulation
			emu, err := gibi.NewWithFile(romPath)
			if err != nil {
				return err
			}
			if err := emu.LoadBatteryRAM(savePath); err != nil {
				slog.Warn("Could not restore battery RAM", "path", savePath, "error", err)
			}
			defer func() {
				if err := emu.SaveBatteryRAM(savePath); err != nil {
					slog.Error("Could not persist battery RAM", "path", savePath, "error", err)
				}
			}()

			for i := 0; i < frames; i++ {
				if err := emu.RunUntilFrame(); err != nil {
					return err
				}

				// Save snapshot if needed
				if snapshotInterval > 0 && (i+1)%snapshotInterval == 0 {
					snapshotPath := filepath.Join(snapshotDir, fmt.Sprintf("%s_frame_%d.txt", romName, i+1))
					if err := saveFrameSnapshot(emu, snapshotPath); err != nil {
						slog.Error("Failed to save snapshot", "frame", i+1, "path", snapshotPath, "error", err)
					} else {
						slog.Info("Saved frame snapshot", "frame", i+1, "path", snapshotPath)
					}
				}

				if i%10 == 0 { // Log progress every 10 frames
					slog.Info("Frame progress", "completed", i+1, "total", frames)
				}
			}
		}

		if snapshotInterval > 0 {
			slog.Info("Headless execution completed", "frames", frames, "snapshots_saved_to", snapshotDir)
		} else {
			slog.Info("Headless execution completed", "frames", frames)
		}
		return nil
	} else {
		// Interactive mode (not event-driven yet)
		emu, err := gibi.NewWithFile(romPath)
		if err != nil {
			return err
		}
		if err := emu.LoadBatteryRAM(savePath); err != nil {
			slog.Warn("Could not restore battery RAM", "path", savePath, "error", err)
		}
		defer func() {
			if err := emu.SaveBatteryRAM(savePath); err != nil {
				slog.Error("Could not persist battery RAM", "path", savePath, "error", err)
			}
		}()

		if c.String("backend") == "sdl2" {
			return runSDL2(emu)
		}

		renderer, err := render.NewTerminalRenderer(emu)
		if err != nil {
			return err
		}
		return renderer.Run()
	}
}

// configureLogging installs a text slog handler at the requested level on
// stderr, leaving stdout free for the terminal renderer.
func configureLogging(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// printCartridgeInfo parses and prints the ROM header without constructing
// (or validating) the full machine.
func printCartridgeInfo(romPath string) error {
	data, err := os.ReadFile(romPath)
	if err != nil {
		return err
	}
	cart := memory.NewCartridgeWithData(data)
	fmt.Println(cart.String())
	return nil
}

// runSDL2 drives the emulator through the SDL2 window/audio backend. On
// default builds the stub backend's Init returns an error explaining that the
// sdl2 build tag is required.
func runSDL2(emu *gibi.DMG) error {
	b := sdl2.New()
	config := backend.BackendConfig{
		Title:         "Gibi",
		DebugProvider: emu,
		APU:           emu.GetMMU().APU,
	}
	if err := b.Init(config); err != nil {
		return err
	}
	defer b.Cleanup()

	for {
		if err := emu.RunUntilFrame(); err != nil {
			return err
		}

		inputEvents, err := b.Update(emu.GetCurrentFrame())
		if err != nil {
			return err
		}

		for _, ev := range inputEvents {
			switch ev.Action {
			case action.EmulatorQuit:
				return nil
			case action.EmulatorPauseToggle:
				if ev.Type == event.Press {
					if emu.GetDebuggerState() == gibi.DebuggerPaused {
						emu.DebuggerResume()
					} else {
						emu.DebuggerPause()
					}
				}
			case action.EmulatorStepFrame:
				if ev.Type == event.Press {
					emu.DebuggerStepFrame()
				}
			case action.EmulatorStepInstruction:
				if ev.Type == event.Press {
					emu.DebuggerStepInstruction()
				}
			default:
				emu.HandleAction(ev.Action, ev.Type == event.Press || ev.Type == event.Hold)
			}
		}
	}
}

// runEventDrivenHeadless runs the event-driven emulator in headless mode
func runEventDrivenHeadless(romPath string, frames, snapshotInterval int, snapshotDir, romName string) error {
	// Load ROM data
	data, err := os.ReadFile(romPath)
	if err != nil {
		return err
	}

	// Create memory management unit with ROM data
	cart := memory.NewCartridgeWithData(data)
	mmu := memory.NewWithCartridge(cart)

	// Create event-driven emulator
	emu := events.NewEventDrivenEmulator(mmu)

	slog.Info("Starting event-driven emulator", "rom", romPath)

	// Track snapshots saved
	snapshotsToSave := make(map[int]string)
	if snapshotInterval > 0 {
		for i := snapshotInterval; i <= frames; i += snapshotInterval {
			snapshotPath := filepath.Join(snapshotDir, fmt.Sprintf("%s_frame_%d.txt", romName, i))
			snapshotsToSave[i] = snapshotPath
		}
	}

	// Run emulation with periodic snapshot saves
	go func() {
		// Monitor frame progress and save snapshots
		lastFrameCount := uint64(0)

		for {
			currentFrameCount := emu.GetFrameCount()

			if currentFrameCount != lastFrameCount {
				// Frame completed
				frameNum := int(currentFrameCount)

				// Save snapshot if needed
				if snapshotPath, shouldSave := snapshotsToSave[frameNum]; shouldSave {
					if err := saveFrameSnapshotEventDriven(emu, snapshotPath); err != nil {
						slog.Error("Failed to save snapshot", "frame", frameNum, "path", snapshotPath, "error", err)
					} else {
						slog.Info("Saved frame snapshot", "frame", frameNum, "path", snapshotPath)
					}
				}

				// Log progress
				if frameNum%10 == 0 {
					slog.Info("Frame progress", "completed", frameNum, "total", frames)
				}

				lastFrameCount = currentFrameCount
			}

			// Check if emulation is complete
			if currentFrameCount >= uint64(frames) {
				emu.Stop()
				break
			}

			// Brief pause to avoid busy waiting
			// time.Sleep(time.Millisecond) // Uncomment if needed
		}
	}()

	// Run the event loop (this will block until completion)
	emu.RunEventLoop(frames)

	slog.Info("Event-driven emulation completed",
		"frames", emu.GetFrameCount(),
		"instructions", emu.GetInstructionCount(),
		"events", emu.GetEventCount())

	return nil
}

// saveFrameSnapshotEventDriven saves a frame snapshot from event-driven emulator using half-blocks
func saveFrameSnapshotEventDriven(emu *events.EventDrivenEmulator, filename string) error {
	fb := emu.GetCurrentFrame()
	frame := fb.ToSlice()

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %v", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %v", err)
	}
	defer file.Close()

	// Write header
	fmt.Fprintf(file, "# Game Boy Frame Snapshot (Half-Block Rendering)\n")
	fmt.Fprintf(file, "# Frame: %d, Instructions: %d\n", emu.GetFrameCount(), emu.GetInstructionCount())
	fmt.Fprintf(file, "# Resolution: 160x144 pixels -> 160x72 text rows\n")
	fmt.Fprintf(file, "# Characters: ▀ ▄ █ (upper half, lower half, full block)\n")
	fmt.Fprintf(file, "#\n")

	// Use shared rendering utility to convert to half-blocks
	lines := render.RenderFrameToHalfBlocks(frame, 160, 144)

	// Write the rendered lines
	for _, line := range lines {
		fmt.Fprintf(file, "%s\n", line)
	}

	return nil
}

// saveFrameSnapshot saves the current frame as a text representation using half-blocks
func saveFrameSnapshot(emu *gibi.DMG, filename string) error {
	fb := emu.GetCurrentFrame()
	frame := fb.ToSlice()

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	// Write header with metadata
	fmt.Fprintf(file, "# Game Boy Frame Snapshot (Half-Block Rendering)\n")
	fmt.Fprintf(file, "# Frame: %d, Instructions: %d\n", emu.GetFrameCount(), emu.GetInstructionCount())
	fmt.Fprintf(file, "# Resolution: 160x144 pixels -> 160x72 text rows\n")
	fmt.Fprintf(file, "# Characters: ▀ ▄ █ (upper half, lower half, full block)\n")
	fmt.Fprintf(file, "#\n")

	// Use shared rendering utility to convert to half-blocks
	lines := render.RenderFrameToHalfBlocks(frame, 160, 144)

	// Write the rendered lines
	for _, line := range lines {
		fmt.Fprintf(file, "%s\n", line)
	}

	return nil
}
