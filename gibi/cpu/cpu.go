package cpu

import "github.com/mkoenig/go-gibi/gibi/memory"

// CPU is the main struct holding Sharp LR35902 state: the eight 8-bit
// registers (paired into AF/BC/DE/HL), the stack pointer, the program
// counter, and the interrupt/halt bookkeeping that the fetch-decode-execute
// loop needs across instruction boundaries.
type CPU struct {
	bus *memory.MMU

	a, f uint8
	b, c uint8
	d, e uint8
	h, l uint8

	sp uint16
	pc uint16

	currentOpcode uint16

	interruptsEnabled bool
	eiPending         bool
	halted            bool
	haltBug           bool
	stopped           bool
	locked            bool

	cycles uint64
}

// New returns a CPU wired to the given bus, with registers set to the
// documented post-bootrom state and PC at the cartridge entry point. This
// emulator never runs the boot ROM itself, so every CPU starts here.
func New(bus *memory.MMU) *CPU {
	c := &CPU{bus: bus}
	c.Reset(true)
	return c
}

// Reset initializes the register file. When postBoot is true, registers
// adopt the documented post-bootrom values and PC starts at the cartridge
// entry point (0x0100); otherwise everything starts zeroed, as if the boot
// ROM were about to run from 0x0000.
func (c *CPU) Reset(postBoot bool) {
	c.currentOpcode = 0
	c.interruptsEnabled = false
	c.eiPending = false
	c.halted = false
	c.haltBug = false
	c.stopped = false
	c.locked = false
	c.cycles = 0

	if !postBoot {
		c.a, c.f = 0, 0
		c.b, c.c = 0, 0
		c.d, c.e = 0, 0
		c.h, c.l = 0, 0
		c.sp = 0
		c.pc = 0
		return
	}

	c.setAF(0x01B0)
	c.setBC(0x0013)
	c.setDE(0x00D8)
	c.setHL(0x014D)
	c.sp = 0xFFFE
	c.pc = 0x0100
}

// GetPC returns the current program counter, mainly for logging/debugging.
func (c *CPU) GetPC() uint16 {
	return c.pc
}

// GetSP returns the current stack pointer.
func (c *CPU) GetSP() uint16 {
	return c.sp
}

// IsHalted reports whether the CPU is currently waiting in HALT.
func (c *CPU) IsHalted() bool {
	return c.halted
}

// IsLocked reports whether the CPU has executed one of the undocumented
// opcodes the hardware leaves unimplemented and locked up, matching the
// real chip's behavior of freezing rather than silently ignoring them.
func (c *CPU) IsLocked() bool {
	return c.locked
}

// InterruptsEnabled reports the master interrupt enable flag (IME).
func (c *CPU) InterruptsEnabled() bool {
	return c.interruptsEnabled
}

// GetA returns the accumulator register.
func (c *CPU) GetA() uint8 { return c.a }

// GetF returns the flags register (low nibble always reads 0).
func (c *CPU) GetF() uint8 { return c.f }

// GetB returns register B.
func (c *CPU) GetB() uint8 { return c.b }

// GetC returns register C.
func (c *CPU) GetC() uint8 { return c.c }

// GetD returns register D.
func (c *CPU) GetD() uint8 { return c.d }

// GetE returns register E.
func (c *CPU) GetE() uint8 { return c.e }

// GetH returns register H.
func (c *CPU) GetH() uint8 { return c.h }

// GetL returns register L.
func (c *CPU) GetL() uint8 { return c.l }

// GetFlagString renders the Z/N/H/C flags as the usual four-letter summary,
// using a dash for flags that are clear.
func (c *CPU) GetFlagString() string {
	flags := [4]byte{'-', '-', '-', '-'}
	if c.isSetFlag(zeroFlag) {
		flags[0] = 'Z'
	}
	if c.isSetFlag(subFlag) {
		flags[1] = 'N'
	}
	if c.isSetFlag(halfCarryFlag) {
		flags[2] = 'H'
	}
	if c.isSetFlag(carryFlag) {
		flags[3] = 'C'
	}
	return string(flags[:])
}

// readImmediate reads the byte at pc and advances pc past it. Every opcode
// that consumes an 8-bit immediate operand goes through this, so the bus
// sees exactly one access per byte fetched, matching the machine-cycle
// discipline the timing model depends on.
func (c *CPU) readImmediate() uint8 {
	value := c.bus.Read(c.pc)
	c.pc++
	return value
}

// readSignedImmediate reads a signed 8-bit displacement.
func (c *CPU) readSignedImmediate() int8 {
	return int8(c.readImmediate())
}

// readImmediateWord reads a little-endian 16-bit immediate, advancing pc
// past both bytes.
func (c *CPU) readImmediateWord() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return uint16(high)<<8 | uint16(low)
}

// Tick executes exactly one instruction (or one no-op cycle while halted),
// then attempts interrupt dispatch, and returns the total number of dots
// consumed. This is the entry point the machine's main loop drives.
func (c *CPU) Tick() int {
	cycles := c.step()
	c.cycles += uint64(cycles)
	cycles += c.handleInterruptDispatch()
	return cycles
}

// GetCycles returns the running total of dots this CPU has executed,
// including both instructions and interrupt dispatch overhead.
func (c *CPU) GetCycles() uint64 {
	return c.cycles
}

// step executes a single instruction and returns the dots it consumed. HALT
// parks the CPU: while halted it still consumes four dots per call so the
// rest of the machine keeps advancing, waiting for handleInterruptDispatch
// (via handleInterrupts) to wake it.
func (c *CPU) step() int {
	if c.locked {
		return 4
	}

	if c.halted {
		return 4
	}

	if c.haltBug {
		// The byte following HALT is executed twice: PC does not advance
		// past it on this first pass.
		c.haltBug = false
		opcode := Decode(c)
		savedPC := c.pc
		c.advancePastOpcode()
		cycles := opcode(c)
		c.pc = savedPC
		return cycles
	}

	opcode := Decode(c)
	c.advancePastOpcode()
	return opcode(c)
}

// advancePastOpcode moves pc past the opcode byte(s) Decode just peeked at
// (two bytes for a CB-prefixed instruction, one otherwise), before the
// opcode function runs and starts consuming its own operand bytes.
func (c *CPU) advancePastOpcode() {
	if c.currentOpcode > 0xFF {
		c.pc += 2
	} else {
		c.pc++
	}
}

// handleInterruptDispatch applies the one-instruction EI delay and then
// asks handleInterrupts to service any pending, enabled interrupt. It mirrors
// the "after every instruction" checkpoint in the spec: EI's effect becomes
// visible only after the instruction following it completes.
func (c *CPU) handleInterruptDispatch() int {
	eiJustArmed := c.eiPending
	if c.eiPending {
		c.eiPending = false
		c.interruptsEnabled = true
	}

	// An EI instruction itself never dispatches the interrupt it just
	// armed; dispatch is only attempted starting the instruction after.
	if eiJustArmed {
		return 0
	}

	before := c.cycles
	pending := c.handleInterrupts()
	if c.halted && pending {
		c.halted = false
		if !c.interruptsEnabled {
			c.haltBug = true
		}
	}
	return int(c.cycles - before)
}
