package disasm

import (
	"fmt"

	"github.com/mkoenig/go-gibi/gibi/bit"
	"github.com/mkoenig/go-gibi/gibi/memory"
)

//go:generate go run generate.go

// DisassemblyLine represents a single disassembled instruction
type DisassemblyLine struct {
	Address     uint16
	Instruction string
	Length      int
}

// DisassembleAt decodes the single instruction at pc, reading any immediate
// operand bytes it needs from mmu. Reads past 0xFFFF are treated as absent
// and rendered with a zero placeholder rather than wrapping into low memory.
func DisassembleAt(pc uint16, mmu *memory.MMU) DisassemblyLine {
	opcode := mmu.Read(pc)

	if opcode == 0xCB {
		if pc == 0xFFFF {
			return DisassemblyLine{Address: pc, Instruction: "CB ??", Length: 2}
		}
		cbOpcode := mmu.Read(pc + 1)
		return DisassemblyLine{
			Address:     pc,
			Instruction: fmt.Sprintf(CBInstructionTemplates[cbOpcode]),
			Length:      CBInstructionLengths[cbOpcode],
		}
	}

	length := InstructionLengths[opcode]
	template := InstructionTemplates[opcode]

	var instruction string
	switch length {
	case 2:
		if pc == 0xFFFF {
			instruction = fmt.Sprintf(template, 0)
		} else {
			instruction = fmt.Sprintf(template, mmu.Read(pc+1))
		}
	case 3:
		if pc >= 0xFFFE {
			instruction = fmt.Sprintf(template, 0)
		} else {
			nn := bit.Combine(mmu.Read(pc+2), mmu.Read(pc+1))
			instruction = fmt.Sprintf(template, nn)
		}
	default:
		instruction = fmt.Sprintf(template)
	}

	return DisassemblyLine{Address: pc, Instruction: instruction, Length: length}
}

// DisassembleBytes decodes the instruction at offset within a raw memory
// snapshot, returning the rendered instruction and its total byte length.
// Operand bytes that fall outside the snapshot render as zero.
func DisassembleBytes(data []byte, offset int) (string, int) {
	if offset < 0 || offset >= len(data) {
		return "??", 1
	}

	opcode := data[offset]
	if opcode == 0xCB {
		if offset+1 >= len(data) {
			return "CB ??", 2
		}
		return CBInstructionTemplates[data[offset+1]], 2
	}

	length := InstructionLengths[opcode]
	template := InstructionTemplates[opcode]

	switch length {
	case 2:
		var n uint8
		if offset+1 < len(data) {
			n = data[offset+1]
		}
		return fmt.Sprintf(template, n), 2
	case 3:
		var nn uint16
		if offset+2 < len(data) {
			nn = bit.Combine(data[offset+2], data[offset+1])
		}
		return fmt.Sprintf(template, nn), 3
	default:
		return template, 1
	}
}

// DisassembleRange decodes count consecutive instructions starting at startPC.
func DisassembleRange(startPC uint16, count int, mmu *memory.MMU) []DisassemblyLine {
	lines := make([]DisassemblyLine, 0, count)
	pc := startPC
	for i := 0; i < count && pc <= 0xFFFF; i++ {
		line := DisassembleAt(pc, mmu)
		lines = append(lines, line)
		pc += uint16(line.Length)
	}
	return lines
}

// DisassembleAround decodes a window of instructions around currentPC: the
// instructions leading up to it (at least beforeCount when a matching start
// address is found, none otherwise), currentPC itself, then afterCount after.
//
// Instructions are variable-length, so there's no way to walk backwards from
// currentPC directly; instead this probes candidate starting addresses
// (currentPC minus an increasing byte offset) and keeps the first one whose
// forward decode lands exactly on currentPC after at least beforeCount
// instructions.
func DisassembleAround(currentPC uint16, beforeCount, afterCount int, mmu *memory.MMU) []DisassemblyLine {
	startPC := currentPC
	instructionsFound := 0

	for offset := beforeCount * 3; offset >= 0 && startPC > uint16(offset); offset-- {
		testPC := currentPC - uint16(offset)

		pc := testPC
		count := 0
		for count < beforeCount*2 && pc <= currentPC {
			if pc == currentPC && count >= beforeCount {
				startPC = testPC
				instructionsFound = count
				break
			}
			line := DisassembleAt(pc, mmu)
			pc += uint16(line.Length)
			count++
		}

		if startPC != currentPC {
			break
		}
	}

	if startPC == currentPC {
		instructionsFound = 0
	}

	return DisassembleRange(startPC, instructionsFound+1+afterCount, mmu)
}

// FormatDisassemblyLine renders a line for a debugger listing, marking the
// current PC with an arrow.
func FormatDisassemblyLine(line DisassemblyLine, isCurrentPC bool) string {
	prefix := " "
	if isCurrentPC {
		prefix = "→"
	}
	return fmt.Sprintf("%s0x%04X: %s", prefix, line.Address, line.Instruction)
}