package audio

import (
	"github.com/mkoenig/go-gibi/gibi/addr"
	"github.com/mkoenig/go-gibi/gibi/bit"
	"github.com/mkoenig/go-gibi/gibi/timing"
)

// APU is the Audio Processing Unit of a DMG Game Boy. It generates 4-channel audio:
// channels[0] (square+sweep), channels[1] (square), channels[2] (wave), channels[3] (noise),
// all mixed down to interleaved stereo PCM.
type APU struct {
	enabled  bool
	channels [4]Channel

	vinLeft, vinRight bool  // NR50 VIN panning
	volLeft, volRight uint8 // NR50 master volume, 0-7
	vinSample         int16 // external VIN input sample

	mixer mixerState

	frameCounter int // current frame-sequencer step, 0-7
	cycles       int // T-cycles accumulated since the last frame-sequencer tick

	NR10, NR11, NR12, NR13, NR14 uint8
	NR21, NR22, NR23, NR24       uint8
	NR30, NR31, NR32, NR33, NR34 uint8
	NR41, NR42, NR43, NR44       uint8
	NR50, NR51, NR52             uint8
	waveRAM                      [waveRAMSize]uint8

	// ch3CurrentByteIndex is the wave channel's current sample position (0-31,
	// high nibble first). Lives on the APU rather than the channel because the
	// CPU-visible wave RAM redirect reads/writes through it directly.
	ch3CurrentByteIndex uint8
}

// Channel holds the generator state for one of the four APU voices.
//
//   - duty: square-wave shape selector (CH1/CH2), 0-3
//   - sweep: periodic frequency shift, CH1 only
//   - envelope: periodic volume ramp, CH1/CH2/CH4
//   - freq: the 11-bit period value; actual frequency = 131072/(2048-freq) Hz
//   - dacEnabled: false silences the channel regardless of its enabled flag
//   - lfsr: 15-bit linear feedback shift register feeding CH4's noise
type Channel struct {
	enabled bool
	left    bool // panned to the left output lane (NR51)
	right   bool // panned to the right output lane (NR51)

	duty          uint8
	timer         uint8  // initial length-timer value as written to NRx1
	lengthCounter uint16 // live countdown, disables the channel at zero

	volume uint8

	sweepPeriod  uint8
	sweepDown    bool
	sweepStep    uint8
	sweepEnabled bool
	sweepTimer   uint8
	shadowFreq   uint16
	sweepNegUsed bool // armed once a subtract-mode calculation has run

	envelopePace    uint8
	envelopeUp      bool
	envelopeCounter uint8
	envelopeLatched bool

	freq         uint16
	trigger      bool
	lengthEnable bool
	freqTimer    int
	dutyStep     uint8
	waveSample   uint8
	wavePending  bool // silent until the first sample fetch after a trigger
	noiseTimer   int

	lfsr        uint16
	use7bitLFSR bool
	shift       uint8
	divider     uint8

	dacEnabled bool
	muted      bool // debug mute, independent of enabled/dacEnabled
}

func New() *APU {
	apu := &APU{}
	apu.mixer = newMixerState(hostSampleRate, float64(timing.CPUFrequency))

	// Power-on defaults match the post-bootrom state: APU enabled, master
	// volume 7/7, channels 1-2 panned to both outputs and channels 3-4 to
	// the left output only.
	apu.NR52 = 0xF1
	apu.NR50 = 0x77
	apu.NR51 = 0xF3
	apu.mapRegistersToState()

	return apu
}

// Tick advances the APU by CPU T-cycles, stepping the waveform generators
// and, every 8192 T-cycles (512Hz), the frame sequencer.
func (a *APU) Tick(cycles int) {
	if !a.enabled {
		return
	}

	a.tickGenerators(cycles)

	a.cycles += cycles
	for a.cycles >= cyclesPerStep {
		a.cycles -= cyclesPerStep
		a.tickSequence()
	}
}

// ReadRegister returns a register's CPU-visible value: unused and write-only
// bits read back fixed to 1, and NR52's channel-status bits reflect live state.
func (a *APU) ReadRegister(address uint16) uint8 {
	switch address {
	case addr.NR10:
		return a.NR10 | 0b1000_0000
	case addr.NR11:
		return a.NR11 | 0b0011_1111
	case addr.NR12:
		return a.NR12
	case addr.NR13:
		return 0xFF
	case addr.NR14:
		return a.NR14 | 0b1011_1111
	case addr.NR21:
		return a.NR21 | 0b0011_1111
	case addr.NR22:
		return a.NR22
	case addr.NR23:
		return 0xFF
	case addr.NR24:
		return a.NR24 | 0b1011_1111
	case addr.NR30:
		return a.NR30 | 0b0111_1111
	case addr.NR31:
		return 0xFF
	case addr.NR32:
		return a.NR32 | 0b1001_1111
	case addr.NR33:
		return 0xFF
	case addr.NR34:
		return a.NR34 | 0b1011_1111
	case addr.NR41:
		return 0xFF
	case addr.NR42:
		return a.NR42
	case addr.NR43:
		return a.NR43
	case addr.NR44:
		return a.NR44 | 0b1011_1111
	case addr.NR50:
		return a.NR50
	case addr.NR51:
		return a.NR51
	case addr.NR52:
		return a.nr52Status()
	}
	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		if a.waveRAMLocked() {
			return a.channels[2].waveSample
		}
		return a.waveRAM[address-addr.WaveRAMStart]
	}
	return 0xFF
}

func (a *APU) nr52Status() uint8 {
	status := uint8(0b0111_0000)
	if a.enabled {
		status = bit.Set(7, status)
	}
	for i := range a.channels {
		if a.channels[i].enabled {
			status = bit.Set(uint8(i), status)
		}
	}
	return status
}

// WriteRegister stores a register write and re-derives channel state from
// the raw register bytes. Writes other than to NR52/wave RAM are ignored
// while the APU is powered off.
func (a *APU) WriteRegister(address uint16, value uint8) {
	isInWaveRAM := address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd

	if !a.enabled && address != addr.NR52 && !isInWaveRAM {
		return
	}

	switch address {
	case addr.NR10:
		a.NR10 = value
	case addr.NR11:
		a.NR11 = value
		a.channels[0].lengthCounter = 64 - uint16(bit.ExtractBits(value, 5, 0))
	case addr.NR12:
		a.NR12 = value
		a.reloadEnvelopeCounter(&a.channels[0], bit.ExtractBits(value, 2, 0))
	case addr.NR13:
		a.NR13 = value
	case addr.NR14:
		a.NR14 = value
	case addr.NR21:
		a.NR21 = value
		a.channels[1].lengthCounter = 64 - uint16(bit.ExtractBits(value, 5, 0))
	case addr.NR22:
		a.NR22 = value
		a.reloadEnvelopeCounter(&a.channels[1], bit.ExtractBits(value, 2, 0))
	case addr.NR23:
		a.NR23 = value
	case addr.NR24:
		a.NR24 = value
	case addr.NR30:
		a.NR30 = value
	case addr.NR31:
		a.NR31 = value
		a.channels[2].lengthCounter = 256 - uint16(value)
	case addr.NR32:
		a.NR32 = value
	case addr.NR33:
		a.NR33 = value
	case addr.NR34:
		a.NR34 = value
	case addr.NR41:
		a.NR41 = value
		a.channels[3].lengthCounter = 64 - uint16(bit.ExtractBits(value, 5, 0))
	case addr.NR42:
		a.NR42 = value
		a.reloadEnvelopeCounter(&a.channels[3], bit.ExtractBits(value, 2, 0))
	case addr.NR43:
		a.NR43 = value
	case addr.NR44:
		a.NR44 = value
	case addr.NR50:
		a.NR50 = value
	case addr.NR51:
		a.NR51 = value
	case addr.NR52:
		a.NR52 = value
	}

	if isInWaveRAM {
		a.writeWaveRAM(address-addr.WaveRAMStart, value)
	}

	a.mapRegistersToState()
}

func (a *APU) reloadEnvelopeCounter(ch *Channel, pace uint8) {
	if pace == 0 {
		ch.envelopeCounter = 8
	} else {
		ch.envelopeCounter = pace
	}
	ch.envelopeLatched = false
}

func (a *APU) writeWaveRAM(offset uint16, value uint8) {
	if a.waveRAMLocked() {
		// While CH3 is active, the CPU's writes land on the byte currently
		// being played back, regardless of which wave RAM address it used.
		idx := a.ch3CurrentByteIndex >> 1
		a.waveRAM[idx] = value
		a.channels[2].waveSample = value
		return
	}
	a.waveRAM[offset] = value
}

// GetSamples returns count interleaved (left, right, left, ...) PCM values,
// zero-padding if the mixer hasn't produced enough yet.
func (a *APU) GetSamples(count int) []int16 {
	if count <= 0 {
		return nil
	}
	return a.mixer.drain(count)
}

// ToggleChannel flips a channel's debug-mute state. channel is 1-4.
func (a *APU) ToggleChannel(channel int) {
	idx := channel - 1
	if idx < 0 || idx >= len(a.channels) {
		return
	}
	a.channels[idx].muted = !a.channels[idx].muted
}

// SoloChannel mutes every channel except the given one (1-4); calling it
// again with the same channel un-mutes everything.
func (a *APU) SoloChannel(channel int) {
	idx := channel - 1
	if idx < 0 || idx >= len(a.channels) {
		return
	}

	soloed := !a.channels[idx].muted
	for i := range a.channels {
		if i != idx && !a.channels[i].muted {
			soloed = false
		}
	}

	for i := range a.channels {
		a.channels[i].muted = !soloed && i != idx
	}
}

// GetChannelStatus reports whether each channel is currently producing sound.
func (a *APU) GetChannelStatus() (ch1, ch2, ch3, ch4 bool) {
	return a.channels[0].enabled, a.channels[1].enabled, a.channels[2].enabled, a.channels[3].enabled
}

// GetChannelVolumes returns each channel's current volume register value.
func (a *APU) GetChannelVolumes() (ch1, ch2, ch3, ch4 uint8) {
	return a.channels[0].volume, a.channels[1].volume, a.channels[2].volume, a.channels[3].volume
}
