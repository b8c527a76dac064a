// Package addr names every memory-mapped register and fixed region the DMG
// exposes through its 16-bit bus, so subsystems never scatter raw addresses.
package addr

// PPU registers, 0xFF40-0xFF4B.
const (
	// LCDC is the LCD control register: display enable, tile map/data
	// selects, sprite size and the BG/window/sprite enable bits.
	LCDC uint16 = 0xFF40
	// STAT is the LCD status register: current mode, the LY=LYC
	// coincidence flag, and the four STAT interrupt source enables.
	STAT uint16 = 0xFF41
	// SCY and SCX scroll the background layer.
	SCY uint16 = 0xFF42
	SCX uint16 = 0xFF43
	// LY is the current scanline, 0-153. Read-only from the CPU side.
	LY uint16 = 0xFF44
	// LYC is compared against LY every time LY changes.
	LYC uint16 = 0xFF45
	// DMA starts a 160-byte OAM transfer from (value << 8).
	DMA uint16 = 0xFF46
	// BGP, OBP0 and OBP1 are the background and sprite palettes, four
	// 2-bit shade lookups each.
	BGP  uint16 = 0xFF47
	OBP0 uint16 = 0xFF48
	OBP1 uint16 = 0xFF49
	// WY and WX position the window layer (WX is offset by 7).
	WY uint16 = 0xFF4A
	WX uint16 = 0xFF4B
)

// APU registers, 0xFF10-0xFF3F.
// Reference: https://gbdev.io/pandocs/Audio_Registers.html
const (
	AudioStart uint16 = 0xFF10
	AudioEnd   uint16 = 0xFF3F

	// Channel 1: square wave with frequency sweep.
	NR10 uint16 = 0xFF10 // sweep period/direction/shift
	NR11 uint16 = 0xFF11 // duty and length load
	NR12 uint16 = 0xFF12 // envelope (doubles as the DAC enable)
	NR13 uint16 = 0xFF13 // frequency low byte, write-only
	NR14 uint16 = 0xFF14 // frequency high bits, length enable, trigger

	// Channel 2: square wave, no sweep.
	NR21 uint16 = 0xFF16
	NR22 uint16 = 0xFF17
	NR23 uint16 = 0xFF18
	NR24 uint16 = 0xFF19

	// Channel 3: 32-sample wave playback.
	NR30 uint16 = 0xFF1A // DAC enable, bit 7
	NR31 uint16 = 0xFF1B // length load (full 8 bits)
	NR32 uint16 = 0xFF1C // output level shift
	NR33 uint16 = 0xFF1D
	NR34 uint16 = 0xFF1E

	// Channel 4: LFSR noise.
	NR41 uint16 = 0xFF20
	NR42 uint16 = 0xFF21
	NR43 uint16 = 0xFF22 // divisor code, width mode, clock shift
	NR44 uint16 = 0xFF23

	// Master control.
	NR50 uint16 = 0xFF24 // master volume and VIN panning
	NR51 uint16 = 0xFF25 // per-channel left/right panning
	NR52 uint16 = 0xFF26 // power switch and channel status bits

	// Wave pattern RAM: 32 4-bit samples, two per byte.
	WaveRAMStart uint16 = 0xFF30
	WaveRAMEnd   uint16 = 0xFF3F
)

// Sprite attribute table: 40 entries of 4 bytes each.
const (
	OAMStart uint16 = 0xFE00
	OAMEnd   uint16 = 0xFE9F
)

// VRAM tile data and tile maps. The unsigned addressing mode indexes tiles
// from TileData0; the signed mode is centered on TileData2, with negative
// indices reaching back into the TileData1 region.
const (
	TileData0 uint16 = 0x8000
	TileData1 uint16 = 0x8800
	TileData2 uint16 = 0x9000

	TileMap0 uint16 = 0x9800
	TileMap1 uint16 = 0x9C00
)

// Interrupt registers. IF and IE share the same five-bit layout.
const (
	IF uint16 = 0xFF0F
	IE uint16 = 0xFFFF
)

// P1 is the joypad register: bits 4-5 select a row, bits 0-3 read the
// selected row's keys active-low.
const P1 uint16 = 0xFF00

// Serial port.
const (
	// SB holds the byte being shifted out (and, on real hardware, the
	// byte shifting in from the peer).
	SB uint16 = 0xFF01
	// SC controls the transfer: bit 7 starts it, bit 0 selects the
	// internal (~8192 Hz) or external clock. Completion requests the
	// Serial interrupt.
	SC uint16 = 0xFF02
)

// Timer registers.
const (
	// DIV exposes the high byte of the free-running 16-bit divider;
	// writing any value resets the whole counter.
	DIV uint16 = 0xFF04
	// TIMA counts at the TAC-selected rate and requests an interrupt on
	// overflow, reloading from TMA.
	TIMA uint16 = 0xFF05
	TMA  uint16 = 0xFF06
	TAC  uint16 = 0xFF07
)

// Interrupt identifies one of the five sources, as a bit mask matching the
// IF/IE register layout.
type Interrupt uint8

const (
	// VBlankInterrupt fires at the transition into scanline 144.
	VBlankInterrupt Interrupt = 1
	// LCDSTATInterrupt fires on the rising edge of the PPU's shared
	// STAT source line.
	LCDSTATInterrupt = 1 << 1
	// TimerInterrupt fires when TIMA overflows.
	TimerInterrupt = 1 << 2
	// SerialInterrupt fires when a serial transfer completes.
	SerialInterrupt = 1 << 3
	// JoypadInterrupt fires on a high-to-low transition of a selected
	// joypad line.
	JoypadInterrupt = 1 << 4
)
