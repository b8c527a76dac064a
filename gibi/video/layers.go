package video

// LayerFramebuffer is one rendering layer's pixel buffer, in the same RGBA
// format as the main FrameBuffer.
type LayerFramebuffer struct {
	Buffer []uint32
	Width  int
	Height int
}

func newLayerFramebuffer(width, height int) *LayerFramebuffer {
	return &LayerFramebuffer{Buffer: make([]uint32, width*height), Width: width, Height: height}
}

// RenderLayers holds the background, window and sprite layers rendered
// separately, for debug visualization of how they compose into one frame.
// Background and Window are full 256x256 tilemaps; Sprites matches the
// 160x144 screen.
type RenderLayers struct {
	Background *LayerFramebuffer
	Window     *LayerFramebuffer
	Sprites    *LayerFramebuffer
	Enabled    bool
}

func NewRenderLayers() *RenderLayers {
	return &RenderLayers{
		Background: newLayerFramebuffer(256, 256),
		Window:     newLayerFramebuffer(256, 256),
		Sprites:    newLayerFramebuffer(FramebufferWidth, FramebufferHeight),
	}
}

// Clear blanks every layer to transparent black. A no-op while layer
// rendering is disabled.
func (r *RenderLayers) Clear() {
	if !r.Enabled {
		return
	}
	for _, layer := range []*LayerFramebuffer{r.Background, r.Window, r.Sprites} {
		for i := range layer.Buffer {
			layer.Buffer[i] = 0
		}
	}
}
