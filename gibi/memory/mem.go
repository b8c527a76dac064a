package memory

import (
	"fmt"
	"log/slog"

	"github.com/mkoenig/go-gibi/gibi/addr"
	"github.com/mkoenig/go-gibi/gibi/audio"
	"github.com/mkoenig/go-gibi/gibi/bit"
	"github.com/mkoenig/go-gibi/gibi/serial"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionUnused
	regionIO
	regionHRAM
)

// JoypadKey represents a key on the Gameboy joypad
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

// SerialPort is the minimal interface for a serial device connected to SB/SC.
// Implementations MUST only accept reads/writes to addr.SB and addr.SC.
type SerialPort interface {
	Write(address uint16, value byte)
	Read(address uint16) byte
	Tick(cycles int)
	Reset()
}

// MMU allows access to all memory mapped I/O and data/registers
type MMU struct {
	cart      *Cartridge
	mbc       MBC
	memory    []byte
	APU       *audio.APU
	regionMap [256]memRegion

	joypad *Joypad

	serial SerialPort
	timer  Timer

	// OAM DMA transfer state. Real hardware copies one byte every 4 dots
	// and blocks most CPU memory accesses (returning 0xFF) while it runs.
	dmaActive    bool
	dmaSource    uint16
	dmaProgress  int
	dmaCycleDebt int

	rtcCycleDebt int // accumulates master-clock dots toward the next 1Hz RTC tick
}

// New creates a new memory unity with default data, i.e. nothing cartridge loaded.
// Equivalent to turning on a Gameboy without a cartridge in.
func New() *MMU {
	mmu := &MMU{
		memory: make([]byte, 0x10000),
		cart:   NewCartridge(),
		APU:    audio.New(),
		joypad: NewJoypad(),
	}
	mmu.joypad.OnTransition = func() { mmu.RequestInterrupt(addr.JoypadInterrupt) }
	mmu.serial = serial.NewLogSink(func() { mmu.RequestInterrupt(addr.SerialInterrupt) }, serial.WithFixedTiming())
	mmu.timer.TimerInterruptHandler = func() { mmu.RequestInterrupt(addr.TimerInterrupt) }
	initRegionMap(mmu)
	return mmu
}

// dotsPerSecond is the DMG master clock frequency, used to derive a 1Hz
// cadence for MBC3's real-time clock from the same cycle counter that
// drives everything else, rather than reading the wall clock.
const dotsPerSecond = 4194304

// Tick advances any i/o that needs it, if any.
func (m *MMU) Tick(cycles int) {
	m.timer.Tick(cycles)
	if m.serial != nil {
		m.serial.Tick(cycles)
	}
	m.tickDMA(cycles)
	m.tickRTC(cycles)
}

func (m *MMU) tickDMA(cycles int) {
	if !m.dmaActive {
		return
	}

	m.dmaCycleDebt += cycles
	for m.dmaCycleDebt >= 4 && m.dmaActive {
		m.dmaCycleDebt -= 4
		m.memory[0xFE00+uint16(m.dmaProgress)] = m.dmaReadSource(uint16(m.dmaProgress))
		m.dmaProgress++
		if m.dmaProgress >= 160 {
			m.dmaActive = false
		}
	}
}

func (m *MMU) dmaReadSource(offset uint16) byte {
	src := m.dmaSource + offset
	switch m.regionMap[src>>8] {
	case regionROM, regionExtRAM:
		if m.mbc == nil {
			return 0xFF
		}
		return m.mbc.Read(src)
	case regionIO:
		// The I/O and HRAM pages are not valid DMA sources.
		return 0xFF
	case regionEcho:
		return m.memory[src-0x2000]
	default:
		return m.memory[src]
	}
}

func (m *MMU) tickRTC(cycles int) {
	mbc3, ok := m.mbc.(*MBC3)
	if !ok || !mbc3.hasRTC {
		return
	}
	m.rtcCycleDebt += cycles
	for m.rtcCycleDebt >= dotsPerSecond {
		m.rtcCycleDebt -= dotsPerSecond
		mbc3.TickRTC()
	}
}

// SnapshotBatteryRAM returns the persistent battery-backed RAM (and RTC
// state, for MBC3) of the loaded cartridge, or nil if it has none.
func (m *MMU) SnapshotBatteryRAM() []byte {
	bb, ok := m.mbc.(BatteryBackedMBC)
	if !ok || !bb.HasBattery() {
		return nil
	}
	return bb.SnapshotRAM()
}

// RestoreBatteryRAM loads previously saved battery-backed RAM/RTC state.
func (m *MMU) RestoreBatteryRAM(data []byte) {
	bb, ok := m.mbc.(BatteryBackedMBC)
	if !ok || !bb.HasBattery() || data == nil {
		return
	}
	bb.RestoreRAM(data)
}

// SetTimerSeed initializes the internal timer divider seed and DIV register.
func (m *MMU) SetTimerSeed(seed uint16) {
	m.timer.SetSeed(seed)
}

// NewWithCartridge creates a new memory unit with the provided cartridge data loaded.
// Equivalent to turning on a Gameboy with a cartridge in.
func NewWithCartridge(cart *Cartridge) *MMU {
	mmu := New()
	mmu.cart = cart

	switch cart.mbcType {
	case NoMBCType:
		mmu.mbc = NewNoMBC(cart.data)
	case MBC1Type:
		mmu.mbc = NewMBC1(cart.data, cart.hasBattery, cart.ramBankCount)
	case MBC1MultiType:
		mmu.mbc = NewMBC1(cart.data, cart.hasBattery, cart.ramBankCount) // FIXME: add support for multicart
	case MBC2Type:
		mmu.mbc = NewMBC2(cart.data, cart.hasBattery)
	case MBC3Type:
		mbc3 := NewMBC3(cart.data, cart.hasRTC, cart.ramBankCount)
		mbc3.SetBattery(cart.hasBattery)
		mmu.mbc = mbc3
	case MBC5Type:
		mbc5 := NewMBC5(cart.data, cart.hasRumble, cart.ramBankCount)
		mbc5.SetBattery(cart.hasBattery)
		mmu.mbc = mbc5
	case MBCUnknownType:
		panic("unsupported MBC type: unknown")
	default:
		panic(fmt.Sprintf("unsupported MBC type: %d", cart.mbcType))
	}

	return mmu
}

func initRegionMap(m *MMU) {
	// ROM: 0x0000-0x7FFF
	for i := 0x00; i <= 0x7F; i++ {
		m.regionMap[i] = regionROM
	}
	// VRAM: 0x8000-0x9FFF
	for i := 0x80; i <= 0x9F; i++ {
		m.regionMap[i] = regionVRAM
	}
	// External RAM: 0xA000-0xBFFF
	for i := 0xA0; i <= 0xBF; i++ {
		m.regionMap[i] = regionExtRAM
	}
	// Work RAM: 0xC000-0xDFFF
	for i := 0xC0; i <= 0xDF; i++ {
		m.regionMap[i] = regionWRAM
	}
	// Echo RAM: 0xE000-0xFDFF
	for i := 0xE0; i <= 0xFD; i++ {
		m.regionMap[i] = regionEcho
	}
	// OAM: 0xFE00-0xFE9F, Unused: 0xFEA0-0xFEFF
	m.regionMap[0xFE] = regionOAM
	// IO + HRAM: 0xFF00-0xFFFF
	m.regionMap[0xFF] = regionIO
}

// RequestInterrupt sets the interrupt flag (IF register) of the chosen interrupt to 1.
func (m *MMU) RequestInterrupt(interrupt addr.Interrupt) {
	interruptFlags := m.ReadDirect(addr.IF)

	var bitPos uint8
	switch interrupt {
	case addr.VBlankInterrupt:
		bitPos = 0
	case addr.LCDSTATInterrupt:
		bitPos = 1
	case addr.TimerInterrupt:
		bitPos = 2
	case addr.SerialInterrupt:
		bitPos = 3
	case addr.JoypadInterrupt:
		bitPos = 4
	default:
		panic(fmt.Sprintf("Unknown interrupt: 0x%02X", uint8(interrupt)))
	}

	newFlags := bit.Set(bitPos, interruptFlags)

	m.Write(addr.IF, newFlags)
}

func (m *MMU) ReadBit(index uint8, address uint16) bool {
	return bit.IsSet(index, m.Read(address))
}

func (m *MMU) SetBit(index uint8, address uint16, set bool) {
	value := m.Read(address)
	if set {
		value = bit.Set(index, value)
	} else {
		value = bit.Reset(index, value)
	}
	m.Write(address, value)
}

// Read performs a CPU-visible bus read. While an OAM DMA transfer is in
// flight the CPU can only reach HRAM; everything else reads as 0xFF.
func (m *MMU) Read(address uint16) byte {
	if m.dmaActive && address < 0xFF80 {
		return 0xFF
	}
	return m.ReadDirect(address)
}

// ReadDirect routes a read without the OAM DMA bus block. Subsystems on the
// far side of the bus (the PPU's tile/OAM fetches, interrupt bookkeeping,
// debug views) keep their access to memory while a DMA transfer has the CPU
// locked out, so they go through here instead of Read.
func (m *MMU) ReadDirect(address uint16) byte {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		if m.mbc == nil {
			slog.Warn("Reading from ROM/external RAM with no cartridge", "addr", fmt.Sprintf("0x%04X", address))
			return 0xFF
		}
		return m.mbc.Read(address)
	case regionVRAM, regionWRAM:
		return m.memory[address]
	case regionEcho:
		return m.memory[address-0x2000]
	case regionOAM:
		if address <= 0xFE9F {
			return m.memory[address]
		}
		// Unusable area 0xFEA0-0xFEFF
		return 0xFF
	case regionIO:
		if address == addr.P1 {
			return m.joypad.Register()
		}
		if address == addr.SB || address == addr.SC {
			return m.serial.Read(address)
		}
		if address == addr.DIV || address == addr.TIMA || address == addr.TMA || address == addr.TAC {
			return m.timer.Read(address)
		}
		if address >= 0xFF10 && address <= 0xFF3F {
			return m.APU.ReadRegister(address)
		}
		if address == addr.STAT {
			// Bit 7 is unimplemented and reads as 1.
			return m.memory[address] | 0x80
		}
		// Just in case, we always read the upper 3 bits of IF as 1.
		// They're not used, but have caused me some headaches when checking for
		// when the halt bug triggers (IF != 0).
		if address == addr.IF {
			return m.memory[address] | 0xE0
		}
		if address >= 0xFF80 {
			// HRAM
			return m.memory[address]
		}
		// Other IO registers
		return m.memory[address]
	default:
		panic(fmt.Sprintf("Attempted read at unmapped address: 0x%X", address))
	}
}

func (m *MMU) Write(address uint16, value byte) {
	switch m.regionMap[address>>8] {
	case regionROM:
		if m.mbc == nil {
			slog.Warn("Writing to ROM with no cartridge", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
			return
		}
		m.mbc.Write(address, value)
	case regionVRAM:
		m.memory[address] = value
	case regionExtRAM:
		if m.mbc == nil {
			slog.Warn("Writing to external RAM with no cartridge", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
			return
		}
		m.mbc.Write(address, value)
	case regionWRAM:
		m.memory[address] = value
	case regionEcho:
		if address <= 0xFDFF {
			m.memory[address-0x2000] = value
		}
	case regionOAM:
		// Writes to the unusable area 0xFEA0-0xFEFF are dropped.
		if address <= 0xFE9F {
			m.memory[address] = value
		}
	case regionIO:
		if address == addr.P1 {
			m.joypad.WriteSelect(value)
			return
		}
		if address == addr.SB || address == addr.SC {
			m.serial.Write(address, value)
			return
		}
		if address == addr.DIV || address == addr.TIMA || address == addr.TMA || address == addr.TAC {
			m.timer.Write(address, value)
			return
		}
		if address >= 0xFF10 && address <= 0xFF3F {
			m.APU.WriteRegister(address, value)
			return
		}
		if address == addr.IF {
			// This goddamn register has its upper 3 bits always set as 1...
			// Beware if you're trying to match halt bug behavior.
			m.memory[address] = value | 0xE0
			return
		}
		if address == addr.DMA {
			m.dmaSource = uint16(value) << 8
			m.dmaActive = true
			m.dmaProgress = 0
			m.dmaCycleDebt = 0
			m.memory[address] = value
			return
		}
		if address == addr.LY {
			// LY is read-only from the CPU side; the PPU owns it.
			return
		}
		if address == addr.STAT {
			// The mode and coincidence bits are read-only.
			m.memory[address] = (value & 0xF8) | (m.memory[address] & 0x07)
			return
		}
		if address >= 0xFF80 {
			// HRAM
			m.memory[address] = value
			return
		}
		// Other IO registers
		m.memory[address] = value
	default:
		panic(fmt.Sprintf("Attempted write at unmapped address: 0x%X", address))
	}
}


// WriteDirect stores a byte bypassing the CPU-side register write
// protections. The PPU publishes the LY/STAT state it owns through here.
func (m *MMU) WriteDirect(address uint16, value byte) {
	m.memory[address] = value
}

// HandleKeyPress marks the given button/direction as pressed, firing a
// joypad interrupt if this causes a 1->0 transition on a selected line.
func (m *MMU) HandleKeyPress(key JoypadKey) {
	m.joypad.Press(key)
}

// HandleKeyRelease marks the given button/direction as released.
func (m *MMU) HandleKeyRelease(key JoypadKey) {
	m.joypad.Release(key)
}

// Joypad exposes the shared joypad state, e.g. for input.Manager to bind to.
func (m *MMU) Joypad() *Joypad {
	return m.joypad
}
