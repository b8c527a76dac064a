package render

import termrender "github.com/mkoenig/go-gibi/gibi/backend/terminal/render"

// RenderFrameToHalfBlocks converts a framebuffer to its text representation,
// two pixel rows per line. The implementation is shared with the terminal
// backend's renderer.
func RenderFrameToHalfBlocks(frame []uint32, width, height int) []string {
	return termrender.RenderFrameToHalfBlocks(frame, width, height)
}
