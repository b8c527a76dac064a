package memory

import (
	"testing"

	"github.com/mkoenig/go-gibi/gibi/addr"
	"github.com/stretchr/testify/assert"
)

func TestJoypadInterruptOnlyForSelectedRow(t *testing.T) {
	mmu := New()

	// Select the action-button row only (bit 5 low selects buttons,
	// bit 4 high deselects the d-pad).
	mmu.Write(addr.P1, 0b0001_0000)

	mmu.HandleKeyPress(JoypadRight)
	assert.Zero(t, mmu.Read(addr.IF)&0x10, "press on an unselected row must not request an interrupt")

	mmu.HandleKeyPress(JoypadA)
	assert.Equal(t, uint8(0x10), mmu.Read(addr.IF)&0x10, "press on the selected row requests the joypad interrupt")
}

func TestJoypadRegisterRowSelection(t *testing.T) {
	mmu := New()
	mmu.HandleKeyPress(JoypadA)    // button row, bit 0
	mmu.HandleKeyPress(JoypadDown) // d-pad row, bit 3

	// Buttons selected: A reads low, d-pad state invisible.
	mmu.Write(addr.P1, 0b0001_0000)
	assert.Equal(t, uint8(0b1101_1110), mmu.Read(addr.P1))

	// D-pad selected: Down reads low.
	mmu.Write(addr.P1, 0b0010_0000)
	assert.Equal(t, uint8(0b1110_0111), mmu.Read(addr.P1))

	// Both rows selected: the low nibbles AND together.
	mmu.Write(addr.P1, 0b0000_0000)
	assert.Equal(t, uint8(0b1100_0110), mmu.Read(addr.P1))
}

func TestOAMDMATransfer(t *testing.T) {
	mmu := New()

	for i := 0; i < 160; i++ {
		mmu.Write(0xC000+uint16(i), uint8(i))
	}
	mmu.Write(0xFF80, 0x42)

	mmu.Write(addr.DMA, 0xC0)

	// While the transfer runs, the CPU only reaches HRAM.
	assert.Equal(t, uint8(0xFF), mmu.Read(0xFE00), "OAM reads 0xFF during DMA")
	assert.Equal(t, uint8(0xFF), mmu.Read(0xC000), "WRAM reads 0xFF during DMA")
	assert.Equal(t, uint8(0x42), mmu.Read(0xFF80), "HRAM stays accessible during DMA")

	// 160 machine cycles later the copy is complete.
	mmu.Tick(160 * 4)
	for i := 0; i < 160; i++ {
		assert.Equal(t, uint8(i), mmu.Read(0xFE00+uint16(i)), "OAM byte %d", i)
	}
}

func TestTIMAOverflowReloadAndCancel(t *testing.T) {
	t.Run("overflow reloads from TMA and requests the interrupt", func(t *testing.T) {
		mmu := New()
		mmu.Write(addr.TAC, 0x05) // enable, 262144 Hz (divider bit 3)
		mmu.Write(addr.TMA, 0x42)
		mmu.Write(addr.TIMA, 0xFF)

		mmu.Tick(16) // bit 3 falls: TIMA wraps to 0x00
		assert.Equal(t, uint8(0x00), mmu.Read(addr.TIMA))
		assert.Zero(t, mmu.Read(addr.IF)&0x04, "interrupt is not requested at the wrap itself")

		mmu.Tick(4) // the reload lands exactly 4 dots after the overflow
		assert.Equal(t, uint8(0x42), mmu.Read(addr.TIMA))
		assert.Equal(t, uint8(0x04), mmu.Read(addr.IF)&0x04)
	})

	t.Run("the reload lands mid-batch when the overflow does", func(t *testing.T) {
		mmu := New()
		mmu.Write(addr.TAC, 0x05)
		mmu.Write(addr.TMA, 0x42)
		mmu.Write(addr.TIMA, 0xFF)

		// A single 24-dot batch (a long instruction) covers the overflow
		// at dot 16 and the whole 4-dot reload window; the reload must not
		// slip into a later batch.
		mmu.Tick(24)
		assert.Equal(t, uint8(0x42), mmu.Read(addr.TIMA))
		assert.Equal(t, uint8(0x04), mmu.Read(addr.IF)&0x04)
	})

	t.Run("a TIMA write during the reload window cancels both", func(t *testing.T) {
		mmu := New()
		mmu.Write(addr.TAC, 0x05)
		mmu.Write(addr.TMA, 0x42)
		mmu.Write(addr.TIMA, 0xFF)

		mmu.Tick(16)
		assert.Equal(t, uint8(0x00), mmu.Read(addr.TIMA))

		mmu.Write(addr.TIMA, 0x77)
		mmu.Tick(8)
		assert.Equal(t, uint8(0x77), mmu.Read(addr.TIMA), "reload must not overwrite the written value")
		assert.Zero(t, mmu.Read(addr.IF)&0x04, "cancelled overflow must not request the interrupt")
	})
}

func TestDIVWriteResetsCounter(t *testing.T) {
	mmu := New()
	mmu.Tick(512)
	assert.Equal(t, uint8(2), mmu.Read(addr.DIV))

	mmu.Write(addr.DIV, 0xAB)
	assert.Equal(t, uint8(0), mmu.Read(addr.DIV), "any DIV write resets the divider")
}

func TestLYAndSTATWriteProtection(t *testing.T) {
	mmu := New()

	mmu.WriteDirect(addr.LY, 42)
	mmu.Write(addr.LY, 7)
	assert.Equal(t, uint8(42), mmu.Read(addr.LY), "CPU writes to LY are ignored")

	mmu.WriteDirect(addr.STAT, 0x03) // PPU reports mode 3
	mmu.Write(addr.STAT, 0x78)       // CPU enables every interrupt source
	stat := mmu.Read(addr.STAT)
	assert.Equal(t, uint8(0x03), stat&0x07, "mode/coincidence bits are read-only")
	assert.Equal(t, uint8(0x78), stat&0x78, "source enable bits are writable")
	assert.Equal(t, uint8(0x80), stat&0x80, "bit 7 reads as 1")
}

func TestEchoRAMMirrorsWorkRAM(t *testing.T) {
	mmu := New()

	mmu.Write(0xC123, 0x5A)
	assert.Equal(t, uint8(0x5A), mmu.Read(0xE123))

	mmu.Write(0xE234, 0xA5)
	assert.Equal(t, uint8(0xA5), mmu.Read(0xC234))
}

func TestUnusableRegion(t *testing.T) {
	mmu := New()
	mmu.Write(0xFEA0, 0x12)
	assert.Equal(t, uint8(0xFF), mmu.Read(0xFEA0))
	assert.Equal(t, uint8(0xFF), mmu.Read(0xFEFF))
}
