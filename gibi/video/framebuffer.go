package video

import "math/rand"

// GBColor is one of the DMG's 4 shades, stored pre-expanded to RGBA8888.
type GBColor uint32

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
	FramebufferSize   = FramebufferWidth * FramebufferHeight
)

const (
	WhiteColor     GBColor = 0xFFFFFFFF
	LightGreyColor         = 0x989898FF
	DarkGreyColor          = 0x4C4C4CFF
	BlackColor             = 0x000000FF
)

// shadeByIndex follows the hardware convention: shade 0 is the lightest,
// shade 3 the darkest.
var shadeByIndex = [4]GBColor{WhiteColor, LightGreyColor, DarkGreyColor, BlackColor}

// ByteToColor maps a 2-bit palette-resolved shade index (0-3) to its RGBA
// color, or 0 for any other value.
func ByteToColor(value byte) GBColor {
	if value > 3 {
		return 0
	}
	return shadeByIndex[value]
}

// indexOfShade is ByteToColor's inverse, used by ToGrayscale.
func indexOfShade(c GBColor) (byte, bool) {
	for i, shade := range shadeByIndex {
		if shade == c {
			return byte(i), true
		}
	}
	return 0, false
}

// FrameBuffer is a 160x144 grid of RGBA8888 pixels, the PPU's render target
// for one frame.
type FrameBuffer struct {
	width  uint
	height uint
	buffer []uint32
}

func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{
		width:  FramebufferWidth,
		height: FramebufferHeight,
		buffer: make([]uint32, FramebufferSize),
	}
}

func (fb FrameBuffer) GetPixel(x, y uint) uint32 {
	return fb.buffer[y*fb.width+x]
}

func (fb *FrameBuffer) SetPixel(x, y uint, color GBColor) {
	fb.buffer[y*fb.width+x] = uint32(color)
}

func (fb *FrameBuffer) ToSlice() []uint32 {
	return fb.buffer
}

// Clear blanks the framebuffer to black.
func (fb *FrameBuffer) Clear() {
	for i := range fb.buffer {
		fb.buffer[i] = 0
	}
}

// DrawNoise fills the buffer with random DMG shades; used by backends to
// render a placeholder frame before the first real one is available.
func (fb *FrameBuffer) DrawNoise() {
	for i := range fb.buffer {
		fb.buffer[i] = uint32(shadeByIndex[rand.Uint32()%4])
	}
}

// ToBinaryData returns the framebuffer as raw big-endian RGBA bytes, for
// byte-level comparison in tests.
func (fb *FrameBuffer) ToBinaryData() []byte {
	data := make([]byte, len(fb.buffer)*4)
	for i, pixel := range fb.buffer {
		data[i*4] = byte(pixel >> 24)
		data[i*4+1] = byte(pixel >> 16)
		data[i*4+2] = byte(pixel >> 8)
		data[i*4+3] = byte(pixel)
	}
	return data
}

// ToGrayscale maps each pixel back to its 0-3 DMG shade index, for
// comparisons that don't care about the exact RGBA encoding.
func (fb *FrameBuffer) ToGrayscale() []byte {
	data := make([]byte, len(fb.buffer))
	for i, pixel := range fb.buffer {
		if idx, ok := indexOfShade(GBColor(pixel)); ok {
			data[i] = idx
		}
	}
	return data
}
