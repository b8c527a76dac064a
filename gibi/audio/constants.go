package audio

// cyclesPerStep is the T-cycle interval between frame-sequencer ticks: the
// sequencer runs at 512Hz, and 4194304Hz/512Hz = 8192 T-cycles.
const cyclesPerStep = 8192

// waveRAMSize is the byte length of CH3's wave pattern table (32 four-bit
// samples packed two per byte).
const waveRAMSize = 16

// hostSampleRate is the PCM rate the mixer downsamples to.
const hostSampleRate = 48000
