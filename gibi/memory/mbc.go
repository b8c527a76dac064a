package memory

// MBC represents a Memory Bank Controller interface that all MBC types must implement
type MBC interface {
	// Read reads a byte from the specified address
	Read(addr uint16) uint8
	// Write handles a write to the specified address and returns the written
	// value; writes to disabled RAM return 0xFF and NoMBC always returns 0
	Write(addr uint16, value uint8) uint8
}

// BatteryBackedMBC is implemented by MBCs that can persist their external
// RAM (and, for MBC3, RTC state) across sessions.
type BatteryBackedMBC interface {
	MBC
	HasBattery() bool
	SnapshotRAM() []byte
	RestoreRAM(data []byte)
}

// NoMBC represents cartridges with no memory banking capabilities.
// These are typically smaller games (32KB or less) that fit entirely in the
// base memory region. The cartridge ROM is directly mapped to 0x0000-0x7FFF
// and cannot be banked/switched. These cartridges cannot have external RAM.
type NoMBC struct {
	rom []uint8 // ROM data
}

// NewNoMBC creates a new NoMBC controller
func NewNoMBC(romData []uint8) *NoMBC {
	return &NoMBC{
		rom: romData,
	}
}

func (m *NoMBC) Read(addr uint16) uint8 {
	// For NoMBC, we just read directly from ROM
	return m.rom[addr]
}

func (m *NoMBC) Write(addr uint16, value uint8) uint8 {
	// NoMBC doesn't support writing to ROM
	return 0
}

// MBC1 is the first and most common MBC chip. Features include:
// - Supports up to 2MB ROM (125 16KB banks)
// - Up to 32KB RAM (4 8KB banks)
// - Bank 0 always mapped to 0x0000-0x3FFF
// - Switchable ROM bank at 0x4000-0x7FFF
// - Optional RAM banking at 0xA000-0xBFFF
// - Two banking modes:
//   - Mode 0 (ROM): Allows access to full ROM but only 8KB RAM
//   - Mode 1 (RAM): Restricts ROM banking but allows full RAM access
// - Optional battery backup for RAM persistence
type MBC1 struct {
	rom          []uint8
	ram          []uint8
	romBank      uint8
	ramBank      uint8
	ramEnabled   bool
	bankingMode  uint8
	hasBattery   bool
	ramBankCount uint8
}

// NewMBC1 creates a new MBC1 controller
func NewMBC1(romData []uint8, hasBattery bool, ramBankCount uint8) *MBC1 {
	ramSize := uint32(ramBankCount) * 0x2000 // 8KB per RAM bank
	return &MBC1{
		rom:          romData,
		ram:          make([]uint8, ramSize),
		romBank:      1,
		ramBank:      0,
		ramEnabled:   false,
		bankingMode:  0,
		hasBattery:   hasBattery,
		ramBankCount: ramBankCount,
	}
}

func (m *MBC1) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		// Fixed region. In ROM banking mode this is always bank 0; in RAM
		// banking mode the two extra bits relocate it to bank
		// 0x00/0x20/0x40/0x60.
		if m.bankingMode == 1 {
			offset := (uint32(m.ramBank&0x03) << 5) * 0x4000
			if offset >= uint32(len(m.rom)) {
				offset = offset % uint32(len(m.rom))
			}
			return m.rom[offset+uint32(addr)]
		}
		return m.rom[addr]
	case addr >= 0x4000 && addr <= 0x7FFF:
		// Switchable ROM Bank
		offset := uint32(m.romBank) * 0x4000
		if offset >= uint32(len(m.rom)) {
			// If bank would be out of bounds, wrap around
			offset = offset % uint32(len(m.rom))
		}
		return m.rom[offset+uint32(addr-0x4000)]
	case addr >= 0xA000 && addr <= 0xBFFF:
		// RAM Bank
		if !m.ramEnabled {
			return 0xFF
		}
		offset := uint32(m.ramBank) * 0x2000
		if offset >= uint32(len(m.ram)) {
			// If bank would be out of bounds, wrap around
			offset = offset % uint32(len(m.ram))
		}
		return m.ram[offset+uint32(addr-0xA000)]
	default:
		return 0xFF
	}
}

func (m *MBC1) Write(addr uint16, value uint8) uint8 {
	switch {
	case addr <= 0x1FFF:
		// RAM Enable
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr >= 0x2000 && addr <= 0x3FFF:
		// ROM Bank Number (lower 5 bits)
		bank := value & 0x1F
		if bank == 0 {
			bank = 1
		}
		m.romBank = (m.romBank & 0x60) | bank
	case addr >= 0x4000 && addr <= 0x5FFF:
		// RAM Bank Number or Upper ROM Bank Number
		if m.bankingMode == 0 {
			// ROM Banking mode - value goes to upper bits of ROM bank
			m.romBank = (m.romBank & 0x1F) | ((value & 0x03) << 5)
		} else {
			// RAM Banking mode - value goes to RAM bank
			m.ramBank = value & 0x03
		}
	case addr >= 0x6000 && addr <= 0x7FFF:
		// Banking Mode Select
		m.bankingMode = value & 0x01
		if m.bankingMode == 1 {
			// When switching to RAM banking mode, clear the upper bits of ROM bank
			m.romBank &= 0x1F
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		// RAM Bank
		if !m.ramEnabled {
			return 0xFF
		}
		offset := uint32(m.ramBank) * 0x2000
		if offset >= uint32(len(m.ram)) {
			offset = (offset % uint32(len(m.ram)))
		}
		m.ram[offset+uint32(addr-0xA000)] = value
	}
	return value
}

func (m *MBC1) HasBattery() bool { return m.hasBattery }

func (m *MBC1) SnapshotRAM() []byte {
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC1) RestoreRAM(data []byte) {
	copy(m.ram, data)
}

// MBC2 is a simpler MBC chip with built-in RAM. Features include:
// - Supports up to 256KB ROM (16 16KB banks)
// - Built-in 512x4 bits RAM (not external)
// - ROM banking similar to MBC1 but simpler
// - The least significant bit of the upper address byte selects between
//   ROM banking and RAM access
// - RAM is limited to 4-bit values (upper 4 bits are ignored)
// - Optional battery backup for the built-in RAM
type MBC2 struct {
	rom        []uint8
	ram        []uint8 // 512x4 bits RAM
	romBank    uint8
	ramEnabled bool
	hasBattery bool
}

// NewMBC2 creates a new MBC2 controller
func NewMBC2(romData []uint8, hasBattery bool) *MBC2 {
	return &MBC2{
		rom:        romData,
		ram:        make([]uint8, 512),
		romBank:    1,
		ramEnabled: false,
		hasBattery: hasBattery,
	}
}

func (m *MBC2) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		return m.rom[addr]
	case addr >= 0x4000 && addr <= 0x7FFF:
		offset := uint32(m.romBank) * 0x4000
		if offset >= uint32(len(m.rom)) {
			offset = offset % uint32(len(m.rom))
		}
		return m.rom[offset+uint32(addr-0x4000)]
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		// Only the low 512 addresses are wired; the rest echo the same
		// 512 nibbles. Upper nibble reads back as all-1 (open bus).
		return m.ram[addr&0x1FF] | 0xF0
	default:
		return 0xFF
	}
}

func (m *MBC2) Write(addr uint16, value uint8) uint8 {
	switch {
	case addr <= 0x3FFF:
		// Bit 8 of the address (i.e. addr&0x100) selects RAM-enable vs
		// ROM-bank-select for MBC2's single 0x0000-0x3FFF register window.
		if addr&0x0100 == 0 {
			m.ramEnabled = (value & 0x0F) == 0x0A
		} else {
			bank := value & 0x0F
			if bank == 0 {
				bank = 1
			}
			m.romBank = bank
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		m.ram[addr&0x1FF] = value & 0x0F
	}
	return value
}

func (m *MBC2) HasBattery() bool { return m.hasBattery }

func (m *MBC2) SnapshotRAM() []byte {
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC2) RestoreRAM(data []byte) {
	copy(m.ram, data)
}

// MBC3 is an advanced MBC chip with RTC support. Features include:
// - Supports up to 2MB ROM (128 16KB banks)
// - Up to 32KB RAM (4 8KB banks)
// - Real-Time Clock (RTC) functionality
// - RTC has 5 registers: Seconds, Minutes, Hours, Days (lower), Days (upper)/Flags
// - Similar banking to MBC1 but with different register layout
// - RAM and RTC can be battery backed
// - Used in games that needed to track real time (e.g. Pokémon Gold/Silver)
type MBC3 struct {
	rom        []uint8
	ram        []uint8
	rtc        [5]uint8 // seconds, minutes, hours, day-low, day-high/flags
	rtcLatched [5]uint8
	latchState uint8 // tracks the 0x00-then-0x01 write sequence on 0x6000-0x7FFF
	romBank    uint8
	ramBank    uint8 // 0x00-0x03 selects a RAM bank, 0x08-0x0C selects an RTC register
	ramEnabled bool
	hasRTC     bool
	hasBattery bool
}

// NewMBC3 creates a new MBC3 controller
func NewMBC3(romData []uint8, hasRTC bool, ramBankCount uint8) *MBC3 {
	ramSize := uint32(ramBankCount) * 0x2000
	return &MBC3{
		rom:        romData,
		ram:        make([]uint8, ramSize),
		romBank:    1,
		ramEnabled: false,
		hasRTC:     hasRTC,
	}
}

// SetBattery marks whether this MBC3's RAM/RTC should persist across sessions.
func (m *MBC3) SetBattery(hasBattery bool) { m.hasBattery = hasBattery }

// TickRTC advances the real-time clock registers by one second. The emulator
// calls this on a 1Hz cadence derived from the master clock rather than the
// wall clock, keeping the whole machine's timing driven by a single
// deterministic cycle counter.
func (m *MBC3) TickRTC() {
	if !m.hasRTC {
		return
	}
	// Halt flag is bit 6 of the day-high register.
	if m.rtc[4]&0x40 != 0 {
		return
	}

	m.rtc[0]++
	if m.rtc[0] < 60 {
		return
	}
	m.rtc[0] = 0

	m.rtc[1]++
	if m.rtc[1] < 60 {
		return
	}
	m.rtc[1] = 0

	m.rtc[2]++
	if m.rtc[2] < 24 {
		return
	}
	m.rtc[2] = 0

	days := uint16(m.rtc[3]) | uint16(m.rtc[4]&0x01)<<8
	days++
	if days > 0x1FF {
		m.rtc[4] |= 0x80 // day counter overflow carry bit
		days = 0
	}
	m.rtc[3] = uint8(days & 0xFF)
	m.rtc[4] = (m.rtc[4] &^ 0x01) | uint8((days>>8)&0x01)
}

func (m *MBC3) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		return m.rom[addr]
	case addr >= 0x4000 && addr <= 0x7FFF:
		offset := uint32(m.romBank) * 0x4000
		if offset >= uint32(len(m.rom)) {
			offset = offset % uint32(len(m.rom))
		}
		return m.rom[offset+uint32(addr-0x4000)]
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if m.ramBank <= 0x03 {
			offset := uint32(m.ramBank) * 0x2000
			if len(m.ram) == 0 {
				return 0xFF
			}
			if offset >= uint32(len(m.ram)) {
				offset = offset % uint32(len(m.ram))
			}
			return m.ram[offset+uint32(addr-0xA000)]
		}
		if m.hasRTC && m.ramBank >= 0x08 && m.ramBank <= 0x0C {
			return m.rtcLatched[m.ramBank-0x08]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC3) Write(addr uint16, value uint8) uint8 {
	switch {
	case addr <= 0x1FFF:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr >= 0x2000 && addr <= 0x3FFF:
		bank := value & 0x7F
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
	case addr >= 0x4000 && addr <= 0x5FFF:
		m.ramBank = value
	case addr >= 0x6000 && addr <= 0x7FFF:
		// Latch sequence: a 0x00 write followed by a 0x01 write copies the
		// live RTC registers into the latched snapshot Read() exposes.
		if m.latchState == 0 && value == 0x00 {
			m.latchState = 1
		} else if m.latchState == 1 && value == 0x01 {
			m.rtcLatched = m.rtc
			m.latchState = 0
		} else {
			m.latchState = 0
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if m.ramBank <= 0x03 {
			if len(m.ram) == 0 {
				return 0xFF
			}
			offset := uint32(m.ramBank) * 0x2000
			if offset >= uint32(len(m.ram)) {
				offset = offset % uint32(len(m.ram))
			}
			m.ram[offset+uint32(addr-0xA000)] = value
		} else if m.hasRTC && m.ramBank >= 0x08 && m.ramBank <= 0x0C {
			m.rtc[m.ramBank-0x08] = value
		}
	}
	return value
}

func (m *MBC3) HasBattery() bool { return m.hasBattery }

func (m *MBC3) SnapshotRAM() []byte {
	out := make([]byte, len(m.ram)+5)
	copy(out, m.ram)
	copy(out[len(m.ram):], m.rtc[:])
	return out
}

func (m *MBC3) RestoreRAM(data []byte) {
	if len(data) < len(m.ram) {
		copy(m.ram, data)
		return
	}
	copy(m.ram, data[:len(m.ram)])
	copy(m.rtc[:], data[len(m.ram):])
	m.rtcLatched = m.rtc
}

// MBC5 is the most advanced MBC chip. Features include:
// - Supports up to 8MB ROM (512 16KB banks)
// - Up to 128KB RAM (16 8KB banks)
// - Simple ROM/RAM banking with no quirks (unlike MBC1)
// - 9-bit ROM bank number (allows all 512 banks to be directly accessed)
// - Rumble cartridges are recognised (hasRumble); the motor is not emulated
// - Used in Game Boy Color games that needed more ROM/RAM
// - Backwards compatible with Game Boy
type MBC5 struct {
	rom        []uint8
	ram        []uint8
	romBank    uint16 // MBC5 supports up to 512 ROM banks
	ramBank    uint8
	ramEnabled bool
	hasRumble  bool
	hasBattery bool
}

// NewMBC5 creates a new MBC5 controller
func NewMBC5(romData []uint8, hasRumble bool, ramBankCount uint8) *MBC5 {
	ramSize := uint32(ramBankCount) * 0x2000
	return &MBC5{
		rom:        romData,
		ram:        make([]uint8, ramSize),
		romBank:    1,
		ramEnabled: false,
		hasRumble:  hasRumble,
	}
}

// SetBattery marks whether this MBC5's RAM should persist across sessions.
func (m *MBC5) SetBattery(hasBattery bool) { m.hasBattery = hasBattery }

func (m *MBC5) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		return m.rom[addr]
	case addr >= 0x4000 && addr <= 0x7FFF:
		offset := uint32(m.romBank) * 0x4000
		if offset >= uint32(len(m.rom)) {
			offset = offset % uint32(len(m.rom))
		}
		return m.rom[offset+uint32(addr-0x4000)]
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		offset := uint32(m.ramBank) * 0x2000
		if offset >= uint32(len(m.ram)) {
			offset = offset % uint32(len(m.ram))
		}
		return m.ram[offset+uint32(addr-0xA000)]
	default:
		return 0xFF
	}
}

func (m *MBC5) Write(addr uint16, value uint8) uint8 {
	switch {
	case addr <= 0x1FFF:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr >= 0x2000 && addr <= 0x2FFF:
		// Low 8 bits of the 9-bit ROM bank number.
		m.romBank = (m.romBank & 0x100) | uint16(value)
	case addr >= 0x3000 && addr <= 0x3FFF:
		// 9th (top) bit of the ROM bank number.
		m.romBank = (m.romBank & 0x0FF) | (uint16(value&0x01) << 8)
	case addr >= 0x4000 && addr <= 0x5FFF:
		// Low 4 bits select the RAM bank. The rumble motor is not emulated;
		// on rumble cartridges its bit is taken into the bank number too.
		m.ramBank = value & 0x0F
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		offset := uint32(m.ramBank) * 0x2000
		if offset >= uint32(len(m.ram)) {
			offset = offset % uint32(len(m.ram))
		}
		m.ram[offset+uint32(addr-0xA000)] = value
	}
	return value
}

func (m *MBC5) HasBattery() bool { return m.hasBattery }

func (m *MBC5) SnapshotRAM() []byte {
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC5) RestoreRAM(data []byte) {
	copy(m.ram, data)
}
