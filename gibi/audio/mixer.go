package audio

// sampleScale maps one digital level unit (the -15..15 channel range plus
// headroom for the four channels summed) to PCM: 32768/16.
const sampleScale = 2048.0

// mixerState downsamples the raw per-cycle channel mix to the host sample
// rate and buffers the result for GetSamples to drain.
type mixerState struct {
	leftAcc, rightAcc int64
	accumCycles       int

	cycleAcc        float64
	cyclesPerSample float64

	buffer []int16
	cursor int
}

func newMixerState(hostSampleRate int, cpuFrequency float64) mixerState {
	if hostSampleRate <= 0 {
		return mixerState{}
	}
	return mixerState{cyclesPerSample: cpuFrequency / float64(hostSampleRate)}
}

// accumulate folds one tickGenerators() step's panned levels into the
// running mix, weighted by how many T-cycles they were held for.
func (m *mixerState) accumulate(left, right int64, cycles int) {
	m.leftAcc += left * int64(cycles)
	m.rightAcc += right * int64(cycles)
	m.accumCycles += cycles
}

// tick advances the downsampling clock and, once a full host sample period
// has elapsed, exports and resets the accumulated mix.
func (m *mixerState) tick(cycles int, volLeft, volRight uint8) (frame [2]int16, ready bool) {
	if m.cyclesPerSample == 0 {
		return frame, false
	}

	m.cycleAcc += float64(cycles)
	if m.cycleAcc < m.cyclesPerSample {
		return frame, false
	}
	m.cycleAcc -= m.cyclesPerSample

	left, right := m.export(volLeft, volRight)
	return [2]int16{left, right}, true
}

func (m *mixerState) export(volLeft, volRight uint8) (int16, int16) {
	if m.accumCycles == 0 {
		return 0, 0
	}

	leftAvg := float64(m.leftAcc) / float64(m.accumCycles)
	rightAvg := float64(m.rightAcc) / float64(m.accumCycles)
	left, right := scaleToPCM(leftAvg, volLeft), scaleToPCM(rightAvg, volRight)

	m.leftAcc, m.rightAcc, m.accumCycles = 0, 0, 0
	return left, right
}

func (m *mixerState) push(frame [2]int16) {
	m.buffer = append(m.buffer, frame[0], frame[1])
}

// drain removes up to n buffered samples, zero-padding if fewer are ready.
func (m *mixerState) drain(n int) []int16 {
	available := len(m.buffer) - m.cursor
	if available <= 0 {
		return make([]int16, n)
	}

	out := make([]int16, n)
	toCopy := min(available, n)
	copy(out, m.buffer[m.cursor:m.cursor+toCopy])
	m.cursor += toCopy

	if m.cursor >= len(m.buffer) {
		m.buffer = m.buffer[:0]
		m.cursor = 0
	}

	return out
}

func scaleToPCM(avg float64, masterVol uint8) int16 {
	gain := float64(masterVol+1) / 8.0
	value := avg * gain * sampleScale
	if value > 32767 {
		value = 32767
	} else if value < -32768 {
		value = -32768
	}
	return int16(value)
}
