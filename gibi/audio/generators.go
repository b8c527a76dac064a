package audio

import "github.com/mkoenig/go-gibi/gibi/bit"

var dutyPatterns = [4][8]int64{
	{0, 1, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 0, 0, 0},
	{1, 0, 0, 1, 1, 1, 1, 1},
}

var noiseDividers = [8]int{8, 16, 32, 48, 64, 80, 96, 112}

// tickGenerators advances every channel's waveform generator by cycles,
// sums the panned levels into the mixer's accumulators, and pushes any
// ready downsampled PCM frame.
func (a *APU) tickGenerators(cycles int) {
	if cycles <= 0 {
		return
	}

	var left, right int64
	for i := range a.channels {
		ch := &a.channels[i]
		if !ch.enabled || !ch.dacEnabled || ch.muted {
			continue
		}

		var level int64
		switch i {
		case 0, 1:
			level = a.stepSquare(ch, cycles)
		case 2:
			level = a.stepWave(ch, cycles)
		case 3:
			level = a.stepNoise(ch, cycles)
		}
		if level == 0 {
			continue
		}

		if ch.left {
			left += level
		}
		if ch.right {
			right += level
		}
	}

	if a.vinLeft {
		left += int64(a.vinSample)
	}
	if a.vinRight {
		right += int64(a.vinSample)
	}

	a.mixer.accumulate(left, right, cycles)
	if sample, ok := a.mixer.tick(cycles, a.volLeft, a.volRight); ok {
		a.mixer.push(sample)
	}
}

func (a *APU) stepSquare(ch *Channel, cycles int) int64 {
	period := squarePeriodCycles(ch.freq)
	if period == 0 {
		return 0
	}
	if ch.freqTimer <= 0 {
		ch.freqTimer = period
	}

	ch.freqTimer -= cycles
	for ch.freqTimer <= 0 {
		ch.freqTimer += period
		ch.dutyStep = (ch.dutyStep + 1) & 0x7
	}

	if ch.volume == 0 {
		return 0
	}
	level := int64(ch.volume)
	if dutyPatterns[ch.duty&0x3][ch.dutyStep] == 0 {
		// A silent duty slot still needs a non-zero output to keep the
		// mix DC-free, so the low part of the waveform mirrors -volume.
		return -level
	}
	return level
}

func (a *APU) stepWave(ch *Channel, cycles int) int64 {
	period := wavePeriodCycles(ch.freq)
	if period == 0 {
		return 0
	}
	if ch.freqTimer <= 0 {
		ch.freqTimer = period
	}

	ch.freqTimer -= cycles
	for ch.freqTimer <= 0 {
		ch.freqTimer += period
		a.ch3CurrentByteIndex = (a.ch3CurrentByteIndex + 1) & 0x1F
		ch.wavePending = false
	}

	if ch.wavePending {
		// The sample buffer isn't refilled until the first fetch after a
		// trigger, so the channel stays silent for that window.
		return 0
	}

	sample := int64(a.readWaveSample(a.ch3CurrentByteIndex)) - 8
	switch ch.volume & 0b11 {
	case 0:
		return 0
	case 1:
		return sample
	case 2:
		return sample / 2
	case 3:
		return sample / 4
	default:
		return sample
	}
}

func (a *APU) stepNoise(ch *Channel, cycles int) int64 {
	period := noisePeriodCycles(ch.divider, ch.shift)
	if period == 0 {
		return 0
	}
	if ch.lfsr == 0 {
		ch.lfsr = 0x7FFF
	}
	if ch.noiseTimer <= 0 {
		ch.noiseTimer = period
	}

	ch.noiseTimer -= cycles
	for ch.noiseTimer <= 0 {
		ch.noiseTimer += period
		feedback := (ch.lfsr & 1) ^ ((ch.lfsr >> 1) & 1)
		ch.lfsr = (ch.lfsr >> 1) | (feedback << 14)
		if ch.use7bitLFSR {
			ch.lfsr = (ch.lfsr &^ (1 << 6)) | (feedback << 6)
		}
	}

	if ch.volume == 0 {
		return 0
	}
	level := int64(ch.volume)
	if bit.IsSet(0, uint8(ch.lfsr)) {
		// The LFSR's low bit is inverted before reaching the DAC.
		return -level
	}
	return level
}

func squarePeriodCycles(freq uint16) int {
	period := 2048 - int(freq&0x7FF)
	if period <= 0 {
		return 0
	}
	return period * 4
}

func wavePeriodCycles(freq uint16) int {
	period := 2048 - int(freq&0x7FF)
	if period <= 0 {
		return 0
	}
	return period * 2
}

func noisePeriodCycles(divider, shift uint8) int {
	period := noiseDividers[divider&0x7] << shift
	if period <= 0 {
		return 0
	}
	return period
}

func (a *APU) readWaveSample(index uint8) uint8 {
	value := a.waveRAM[index>>1]
	a.channels[2].waveSample = value
	if index&1 == 0 {
		return value >> 4
	}
	return value & 0x0F
}

// waveRAMLocked reports whether CPU accesses to wave RAM should be
// redirected to the live sample buffer because CH3 is actively playing.
func (a *APU) waveRAMLocked() bool {
	return a.enabled && a.channels[2].enabled && a.channels[2].dacEnabled
}
