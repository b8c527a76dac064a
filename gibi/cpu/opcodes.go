package cpu

import "github.com/mkoenig/go-gibi/gibi/bit"

// buildOpcodeTable constructs the 256-entry main dispatch table. Two of the
// four opcode quadrants are perfectly regular - the 8x8 LD r,r' grid at
// 0x40-0x7F (HALT's slot aside) and the 8x8 ALU A,r grid at 0x80-0xBF - so
// those are generated from their row/column structure. The remaining
// quadrants (0x00-0x3F and 0xC0-0xFF) mix enough irregular addressing modes
// and control flow that they're easier to read hand-written.
func buildOpcodeTable() [256]Opcode {
	var table [256]Opcode

	for op := 0; op <= 0x3F; op++ {
		table[op] = quadrant0Table[op]
	}

	for op := 0x40; op <= 0x7F; op++ {
		table[op] = makeLoadOpcode(reg8FromBits(uint8(op), 3), reg8FromBits(uint8(op), 0))
	}
	table[0x76] = opcodeHalt

	aluOps := [8]func(*CPU, uint8){
		(*CPU).addToA,
		(*CPU).adc,
		(*CPU).sub,
		(*CPU).sbc,
		(*CPU).and,
		(*CPU).xor,
		(*CPU).or,
		(*CPU).cp,
	}
	for op := 0x80; op <= 0xBF; op++ {
		row := (op >> 3) & 0x07
		table[op] = makeAluOpcode(aluOps[row], reg8FromBits(uint8(op), 0))
	}

	for op := 0xC0; op <= 0xFF; op++ {
		table[op] = quadrant3Table[op-0xC0]
	}

	return table
}

// makeLoadOpcode builds LD dst, src for the 0x40-0x7F grid. Register-only
// transfers cost 4 dots; touching (HL) on either side costs 8.
func makeLoadOpcode(dst, src reg8) Opcode {
	return func(c *CPU) int {
		c.writeReg8(dst, c.readReg8(src))
		if dst.indirect() || src.indirect() {
			return 8
		}
		return 4
	}
}

func opcodeHalt(c *CPU) int {
	c.halted = true
	return 4
}

// makeAluOpcode builds one of ADD/ADC/SUB/SBC/AND/XOR/OR/CP A,r for the
// 0x80-0xBF grid.
func makeAluOpcode(fn func(*CPU, uint8), src reg8) Opcode {
	return func(c *CPU) int {
		fn(c, c.readReg8(src))
		if src.indirect() {
			return 8
		}
		return 4
	}
}

// lockUp freezes the CPU the way real hardware does when it decodes one of
// the handful of opcodes the Sharp LR35902 never defines a behavior for.
func lockUp(c *CPU) int {
	c.locked = true
	return 4
}

var quadrant0Table = [0x40]Opcode{
	0x00: func(_ *CPU) int { return 4 }, // NOP
	0x01: func(c *CPU) int { c.setBC(c.readImmediateWord()); return 12 },
	0x02: func(c *CPU) int { c.bus.Write(c.getBC(), c.a); return 8 },
	0x03: func(c *CPU) int { c.setBC(c.getBC() + 1); return 8 },
	0x04: func(c *CPU) int { c.inc(&c.b); return 4 },
	0x05: func(c *CPU) int { c.dec(&c.b); return 4 },
	0x06: func(c *CPU) int { c.b = c.readImmediate(); return 8 },
	0x07: func(c *CPU) int { c.rlca(); return 4 },
	0x08: func(c *CPU) int {
		addr := c.readImmediateWord()
		c.bus.Write(addr, bit.Low(c.sp))
		c.bus.Write(addr+1, bit.High(c.sp))
		return 20
	},
	0x09: func(c *CPU) int { c.addToHL(c.getBC()); return 8 },
	0x0A: func(c *CPU) int { c.a = c.bus.Read(c.getBC()); return 8 },
	0x0B: func(c *CPU) int { c.setBC(c.getBC() - 1); return 8 },
	0x0C: func(c *CPU) int { c.inc(&c.c); return 4 },
	0x0D: func(c *CPU) int { c.dec(&c.c); return 4 },
	0x0E: func(c *CPU) int { c.c = c.readImmediate(); return 8 },
	0x0F: func(c *CPU) int { c.rrca(); return 4 },

	0x10: func(c *CPU) int { c.stopped = true; return 4 },
	0x11: func(c *CPU) int { c.setDE(c.readImmediateWord()); return 12 },
	0x12: func(c *CPU) int { c.bus.Write(c.getDE(), c.a); return 8 },
	0x13: func(c *CPU) int { c.setDE(c.getDE() + 1); return 8 },
	0x14: func(c *CPU) int { c.inc(&c.d); return 4 },
	0x15: func(c *CPU) int { c.dec(&c.d); return 4 },
	0x16: func(c *CPU) int { c.d = c.readImmediate(); return 8 },
	0x17: func(c *CPU) int { c.rla(); return 4 },
	0x18: func(c *CPU) int { c.jr(); return 12 },
	0x19: func(c *CPU) int { c.addToHL(c.getDE()); return 8 },
	0x1A: func(c *CPU) int { c.a = c.bus.Read(c.getDE()); return 8 },
	0x1B: func(c *CPU) int { c.setDE(c.getDE() - 1); return 8 },
	0x1C: func(c *CPU) int { c.inc(&c.e); return 4 },
	0x1D: func(c *CPU) int { c.dec(&c.e); return 4 },
	0x1E: func(c *CPU) int { c.e = c.readImmediate(); return 8 },
	0x1F: func(c *CPU) int { c.rra(); return 4 },

	0x20: func(c *CPU) int { return jumpRelativeIf(c, !c.isSetFlag(zeroFlag)) },
	0x21: func(c *CPU) int { c.setHL(c.readImmediateWord()); return 12 },
	0x22: func(c *CPU) int { c.bus.Write(c.getHL(), c.a); c.setHL(c.getHL() + 1); return 8 },
	0x23: func(c *CPU) int { c.setHL(c.getHL() + 1); return 8 },
	0x24: func(c *CPU) int { c.inc(&c.h); return 4 },
	0x25: func(c *CPU) int { c.dec(&c.h); return 4 },
	0x26: func(c *CPU) int { c.h = c.readImmediate(); return 8 },
	0x27: func(c *CPU) int { c.daa(); return 4 },
	0x28: func(c *CPU) int { return jumpRelativeIf(c, c.isSetFlag(zeroFlag)) },
	0x29: func(c *CPU) int { c.addToHL(c.getHL()); return 8 },
	0x2A: func(c *CPU) int { c.a = c.bus.Read(c.getHL()); c.setHL(c.getHL() + 1); return 8 },
	0x2B: func(c *CPU) int { c.setHL(c.getHL() - 1); return 8 },
	0x2C: func(c *CPU) int { c.inc(&c.l); return 4 },
	0x2D: func(c *CPU) int { c.dec(&c.l); return 4 },
	0x2E: func(c *CPU) int { c.l = c.readImmediate(); return 8 },
	0x2F: func(c *CPU) int {
		c.a = ^c.a
		c.setFlag(halfCarryFlag)
		c.setFlag(subFlag)
		return 4
	},

	0x30: func(c *CPU) int { return jumpRelativeIf(c, !c.isSetFlag(carryFlag)) },
	0x31: func(c *CPU) int { c.sp = c.readImmediateWord(); return 12 },
	0x32: func(c *CPU) int { c.bus.Write(c.getHL(), c.a); c.setHL(c.getHL() - 1); return 8 },
	0x33: func(c *CPU) int { c.sp++; return 4 },
	0x34: func(c *CPU) int {
		addr := c.getHL()
		c.incMem(addr)
		return 12
	},
	0x35: func(c *CPU) int {
		addr := c.getHL()
		c.decMem(addr)
		return 12
	},
	0x36: func(c *CPU) int { c.bus.Write(c.getHL(), c.readImmediate()); return 12 },
	0x37: func(c *CPU) int {
		c.setFlag(carryFlag)
		c.resetFlag(subFlag)
		c.resetFlag(halfCarryFlag)
		return 4
	},
	0x38: func(c *CPU) int { return jumpRelativeIf(c, c.isSetFlag(carryFlag)) },
	0x39: func(c *CPU) int { c.addToHL(c.sp); return 8 },
	0x3A: func(c *CPU) int { c.a = c.bus.Read(c.getHL()); c.setHL(c.getHL() - 1); return 8 },
	0x3B: func(c *CPU) int { c.sp--; return 8 },
	0x3C: func(c *CPU) int { c.inc(&c.a); return 4 },
	0x3D: func(c *CPU) int { c.dec(&c.a); return 4 },
	0x3E: func(c *CPU) int { c.a = c.readImmediate(); return 8 },
	0x3F: func(c *CPU) int {
		c.resetFlag(subFlag)
		c.resetFlag(halfCarryFlag)
		c.setFlagToCondition(carryFlag, !c.isSetFlag(carryFlag))
		return 4
	},
}

// jumpRelativeIf consumes the JR displacement byte unconditionally (it's
// always part of the instruction's length) and only applies it to pc when
// the condition holds, returning the condition-dependent cycle count.
func jumpRelativeIf(c *CPU, condition bool) int {
	if condition {
		c.jr()
		return 12
	}
	c.readImmediate()
	return 8
}

// jumpAbsoluteIf mirrors jumpRelativeIf for the JP cc,a16 family: the 16-bit
// target is always fetched, but pc only moves there when condition holds.
func jumpAbsoluteIf(c *CPU, condition bool) int {
	target := c.readImmediateWord()
	if condition {
		c.pc = target
		return 16
	}
	return 12
}

// callIf mirrors jumpAbsoluteIf for CALL cc,a16, pushing the return address
// only when the call is actually taken.
func callIf(c *CPU, condition bool) int {
	target := c.readImmediateWord()
	if !condition {
		return 12
	}
	c.pushStack(c.pc)
	c.pc = target
	return 24
}

// returnIf implements RET cc: the condition check itself costs 8 dots, and
// an additional 12 are spent only if the return is taken.
func returnIf(c *CPU, condition bool) int {
	if !condition {
		return 8
	}
	c.pc = c.popStack()
	return 20
}

// rst pushes the return address and jumps to one of the eight fixed
// restart vectors spaced 8 bytes apart.
func rst(c *CPU, vector uint16) int {
	c.pushStack(c.pc)
	c.pc = vector
	return 16
}

// addSPSigned implements the shared arithmetic behind ADD SP,r8 and
// LD HL,SP+r8: both add a signed 8-bit displacement to sp and set flags
// from the unsigned byte-level carry/half-carry of that addition, always
// clearing Z and N.
func addSPSigned(c *CPU) uint16 {
	sp := int32(c.sp)
	n := int32(c.readSignedImmediate())
	result := sp + n

	c.resetFlag(zeroFlag)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, ((sp^n^(result&0xFFFF))&0x10) == 0x10)
	c.setFlagToCondition(carryFlag, ((sp^n^(result&0xFFFF))&0x100) == 0x100)

	return uint16(result)
}

var quadrant3Table = [0x40]Opcode{
	// 0xC0
	func(c *CPU) int { return returnIf(c, !c.isSetFlag(zeroFlag)) },
	func(c *CPU) int { c.setBC(c.popStack()); return 12 },
	func(c *CPU) int { return jumpAbsoluteIf(c, !c.isSetFlag(zeroFlag)) },
	func(c *CPU) int { c.jp(); return 16 },
	func(c *CPU) int { return callIf(c, !c.isSetFlag(zeroFlag)) },
	func(c *CPU) int { c.pushStack(c.getBC()); return 16 },
	func(c *CPU) int { c.addToA(c.readImmediate()); return 8 },
	func(c *CPU) int { return rst(c, 0x00) },
	func(c *CPU) int { return returnIf(c, c.isSetFlag(zeroFlag)) },
	func(c *CPU) int { c.pc = c.popStack(); return 16 },
	func(c *CPU) int { return jumpAbsoluteIf(c, c.isSetFlag(zeroFlag)) },
	nil, // 0xCB: the prefix byte itself, dispatched in Decode before reaching this table
	func(c *CPU) int { return callIf(c, c.isSetFlag(zeroFlag)) },
	func(c *CPU) int {
		target := c.readImmediateWord()
		c.pushStack(c.pc)
		c.pc = target
		return 24
	},
	func(c *CPU) int { c.adc(c.readImmediate()); return 8 },
	func(c *CPU) int { return rst(c, 0x08) },

	// 0xD0
	func(c *CPU) int { return returnIf(c, !c.isSetFlag(carryFlag)) },
	func(c *CPU) int { c.setDE(c.popStack()); return 12 },
	func(c *CPU) int { return jumpAbsoluteIf(c, !c.isSetFlag(carryFlag)) },
	lockUp,
	func(c *CPU) int { return callIf(c, !c.isSetFlag(carryFlag)) },
	func(c *CPU) int { c.pushStack(c.getDE()); return 16 },
	func(c *CPU) int { c.sub(c.readImmediate()); return 8 },
	func(c *CPU) int { return rst(c, 0x10) },
	func(c *CPU) int { return returnIf(c, c.isSetFlag(carryFlag)) },
	func(c *CPU) int { c.pc = c.popStack(); c.interruptsEnabled = true; return 16 },
	func(c *CPU) int { return jumpAbsoluteIf(c, c.isSetFlag(carryFlag)) },
	lockUp,
	func(c *CPU) int { return callIf(c, c.isSetFlag(carryFlag)) },
	lockUp,
	func(c *CPU) int { c.sbc(c.readImmediate()); return 8 },
	func(c *CPU) int { return rst(c, 0x18) },

	// 0xE0
	func(c *CPU) int { c.bus.Write(0xFF00|uint16(c.readImmediate()), c.a); return 12 },
	func(c *CPU) int { c.setHL(c.popStack()); return 12 },
	func(c *CPU) int { c.bus.Write(0xFF00|uint16(c.c), c.a); return 8 },
	lockUp,
	lockUp,
	func(c *CPU) int { c.pushStack(c.getHL()); return 16 },
	func(c *CPU) int { c.and(c.readImmediate()); return 8 },
	func(c *CPU) int { return rst(c, 0x20) },
	func(c *CPU) int { c.sp = addSPSigned(c); return 16 },
	func(c *CPU) int { c.pc = c.getHL(); return 4 },
	func(c *CPU) int { c.bus.Write(c.readImmediateWord(), c.a); return 16 },
	lockUp,
	lockUp,
	lockUp,
	func(c *CPU) int { c.xor(c.readImmediate()); return 8 },
	func(c *CPU) int { return rst(c, 0x28) },

	// 0xF0
	func(c *CPU) int { c.a = c.bus.Read(0xFF00 | uint16(c.readImmediate())); return 12 },
	func(c *CPU) int { c.setAF(c.popStack()); return 12 },
	func(c *CPU) int { c.a = c.bus.Read(0xFF00 | uint16(c.c)); return 8 },
	func(c *CPU) int { c.interruptsEnabled = false; c.eiPending = false; return 4 },
	lockUp,
	func(c *CPU) int { c.pushStack(c.getAF()); return 16 },
	func(c *CPU) int { c.or(c.readImmediate()); return 8 },
	func(c *CPU) int { return rst(c, 0x30) },
	func(c *CPU) int { c.setHL(addSPSigned(c)); return 12 },
	func(c *CPU) int { c.sp = c.getHL(); return 8 },
	func(c *CPU) int { c.a = c.bus.Read(c.readImmediateWord()); return 16 },
	func(c *CPU) int { c.eiPending = true; return 4 },
	lockUp,
	lockUp,
	func(c *CPU) int { c.cp(c.readImmediate()); return 8 },
	func(c *CPU) int { return rst(c, 0x38) },
}
