package audio

// Provider is the playback-facing surface of the APU: pulling mixed samples
// and toggling per-channel debug state, without exposing register access.
type Provider interface {
	GetSamples(count int) []int16

	ToggleChannel(channel int)
	SoloChannel(channel int)
	GetChannelStatus() (ch1, ch2, ch3, ch4 bool)
}

var _ Provider = (*APU)(nil)
