package cpu

import "github.com/mkoenig/go-gibi/gibi/addr"

// interruptVectors lists the five interrupt sources in priority order
// (lowest bit wins when more than one is pending) alongside the ISR address
// each jumps to.
var interruptVectors = [5]struct {
	bit    uint8
	vector uint16
}{
	{uint8(addr.VBlankInterrupt), 0x40},
	{uint8(addr.LCDSTATInterrupt), 0x48},
	{uint8(addr.TimerInterrupt), 0x50},
	{uint8(addr.SerialInterrupt), 0x58},
	{uint8(addr.JoypadInterrupt), 0x60},
}

// handleInterrupts checks IF against IE and reports whether any enabled
// interrupt is pending, regardless of IME: HALT wakes on a pending interrupt
// even with IME off, it just doesn't get serviced. When IME is set and an
// interrupt is pending, this also performs the dispatch itself: push PC,
// jump to the vector, clear IME and the serviced IF bit, and charge 20 dots.
func (c *CPU) handleInterrupts() bool {
	// IF/IE live on the CPU side of the bus, so dispatch keeps seeing them
	// even while an OAM DMA transfer blocks normal reads.
	flags := c.bus.ReadDirect(addr.IF)
	enabled := c.bus.ReadDirect(addr.IE)
	common := flags & enabled & 0x1F

	pending := common != 0
	if !pending || !c.interruptsEnabled {
		return pending
	}

	for _, iv := range interruptVectors {
		if common&iv.bit == 0 {
			continue
		}

		c.interruptsEnabled = false
		c.pushStack(c.pc)
		c.pc = iv.vector
		c.bus.Write(addr.IF, flags&^iv.bit)
		c.cycles += 20
		break
	}

	return pending
}
