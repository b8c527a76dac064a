package audio

import "github.com/mkoenig/go-gibi/gibi/bit"

// mapRegistersToState re-derives every channel's live state from the raw
// NRxx register bytes. Called after every register write.
func (a *APU) mapRegistersToState() {
	wasEnabled := a.enabled
	a.enabled = bit.IsSet(7, a.NR52)
	if !a.enabled {
		a.powerOff()
	} else if !wasEnabled {
		// Powering back on restarts the frame sequencer from step 0.
		a.frameCounter = 0
		a.cycles = 0
	}

	for i := range a.channels {
		a.channels[i].right = bit.IsSet(uint8(i), a.NR51)
		a.channels[i].left = bit.IsSet(uint8(i+4), a.NR51)
	}

	a.vinLeft, a.vinRight = bit.IsSet(7, a.NR50), bit.IsSet(3, a.NR50)
	a.volLeft, a.volRight = bit.ExtractBits(a.NR50, 6, 4), bit.ExtractBits(a.NR50, 2, 0)

	a.mapSquareChannel(0, a.NR10, a.NR11, a.NR12, a.NR13, a.NR14, true)
	a.mapSquareChannel(1, 0, a.NR21, a.NR22, a.NR23, a.NR24, false)
	a.mapWaveChannel()
	a.mapNoiseChannel()

	for i := range a.channels {
		if !a.channels[i].dacEnabled {
			a.channels[i].enabled = false
		}
	}
}

func (a *APU) powerOff() {
	a.NR10, a.NR11, a.NR12, a.NR13, a.NR14 = 0, 0, 0, 0, 0
	a.NR21, a.NR22, a.NR23, a.NR24 = 0, 0, 0, 0
	a.NR30, a.NR31, a.NR32, a.NR33, a.NR34 = 0, 0, 0, 0, 0
	a.NR41, a.NR42, a.NR43, a.NR44 = 0, 0, 0, 0
	a.NR50, a.NR51 = 0, 0
	for i := range a.channels {
		a.channels[i].enabled = false
	}
}

// mapSquareChannel updates CH1 or CH2 (idx 0 or 1) from its NRx0-NRx4
// registers. nrX0 is only meaningful (sweep control) when hasSweep is true.
func (a *APU) mapSquareChannel(idx int, nrX0, nrX1, nrX2, nrX3, nrX4 uint8, hasSweep bool) {
	ch := &a.channels[idx]

	if hasSweep {
		prevSweepDown := ch.sweepDown
		ch.sweepPeriod = bit.ExtractBits(nrX0, 6, 4)
		ch.sweepDown = bit.IsSet(3, nrX0)
		ch.sweepStep = bit.ExtractBits(nrX0, 2, 0)
		if !ch.sweepDown && prevSweepDown && ch.sweepNegUsed && (ch.sweepPeriod > 0 || ch.sweepStep > 0) {
			// Switching the sweep direction from subtract to add after a
			// subtract calculation has run disables the channel immediately.
			ch.enabled = false
		}
	}

	ch.duty = bit.ExtractBits(nrX1, 7, 6)
	ch.timer = bit.ExtractBits(nrX1, 5, 0)

	ch.volume = bit.ExtractBits(nrX2, 7, 4)
	ch.envelopeUp = bit.IsSet(3, nrX2)
	ch.envelopePace = bit.ExtractBits(nrX2, 2, 0)
	ch.dacEnabled = ch.volume > 0 || ch.envelopeUp

	ch.freq = bit.Combine(nrX4&0b111, nrX3)

	prevLenEnable := ch.lengthEnable
	lengthBefore := ch.lengthCounter
	triggered := bit.IsSet(7, nrX4)
	ch.lengthEnable = bit.IsSet(6, nrX4)
	ch.trigger = triggered

	if triggered {
		a.triggerEnvelopeVoice(ch)
		ch.dutyStep = 0
		ch.freqTimer = squarePeriodCycles(ch.freq)

		if hasSweep {
			ch.sweepEnabled = ch.sweepPeriod > 0 || ch.sweepStep > 0
			ch.sweepTimer = ch.sweepPeriod
			if ch.sweepTimer == 0 {
				ch.sweepTimer = 8
			}
			ch.shadowFreq = ch.freq
			ch.sweepNegUsed = false

			// A dummy overflow check runs immediately on trigger.
			if ch.sweepStep != 0 {
				if ch.sweepDown {
					ch.sweepNegUsed = true
				}
				if _, overflow := ch.calculateSweepFrequency(); overflow {
					ch.enabled = false
				}
			}
		}

		ch.trigger = false
		if idx == 0 {
			a.NR14 = bit.Reset(7, a.NR14)
		} else {
			a.NR24 = bit.Reset(7, a.NR24)
		}
	}

	a.handleLengthEnableTransition(prevLenEnable, lengthBefore, triggered, 64, idx)
}

func (a *APU) mapWaveChannel() {
	ch := &a.channels[2]

	ch.dacEnabled = bit.IsSet(7, a.NR30)
	ch.timer = a.NR31
	ch.volume = bit.ExtractBits(a.NR32, 6, 5)
	ch.freq = bit.Combine(a.NR34&0b111, a.NR33)

	prevLenEnable := ch.lengthEnable
	lengthBefore := ch.lengthCounter
	triggered := bit.IsSet(7, a.NR34)
	ch.lengthEnable = bit.IsSet(6, a.NR34)
	ch.trigger = triggered

	if triggered {
		if ch.dacEnabled {
			ch.enabled = true
		}
		ch.freqTimer = wavePeriodCycles(ch.freq)
		a.ch3CurrentByteIndex = 0
		ch.waveSample = a.waveRAM[0]
		ch.wavePending = true
		a.NR34 = bit.Reset(7, a.NR34)
		ch.trigger = false
	}

	a.handleLengthEnableTransition(prevLenEnable, lengthBefore, triggered, 256, 2)
}

func (a *APU) mapNoiseChannel() {
	ch := &a.channels[3]

	ch.timer = bit.ExtractBits(a.NR41, 5, 0)

	ch.volume = bit.ExtractBits(a.NR42, 7, 4)
	ch.envelopeUp = bit.IsSet(3, a.NR42)
	ch.envelopePace = bit.ExtractBits(a.NR42, 2, 0)

	ch.shift = bit.ExtractBits(a.NR43, 7, 4)
	ch.use7bitLFSR = bit.IsSet(3, a.NR43)
	ch.divider = bit.ExtractBits(a.NR43, 2, 0)
	ch.dacEnabled = ch.volume > 0 || ch.envelopeUp

	prevLenEnable := ch.lengthEnable
	lengthBefore := ch.lengthCounter
	triggered := bit.IsSet(7, a.NR44)
	ch.lengthEnable = bit.IsSet(6, a.NR44)
	ch.trigger = triggered

	if triggered {
		a.triggerEnvelopeVoice(ch)
		ch.lfsr = 0x7FFF
		ch.noiseTimer = noisePeriodCycles(ch.divider, ch.shift)
		a.NR44 = bit.Reset(7, a.NR44)
		ch.trigger = false
	}

	a.handleLengthEnableTransition(prevLenEnable, lengthBefore, triggered, 64, 3)
}

// triggerEnvelopeVoice applies the trigger-time envelope reset shared by the
// square and noise channels (the wave channel has no envelope).
func (a *APU) triggerEnvelopeVoice(ch *Channel) {
	if ch.dacEnabled {
		ch.enabled = true
	}
	ch.envelopeLatched = false
	if ch.envelopePace == 0 {
		ch.envelopeCounter = 8
	} else {
		ch.envelopeCounter = ch.envelopePace
	}
}
