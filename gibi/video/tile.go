package video

import "github.com/mkoenig/go-gibi/gibi/bit"

// TileRow is one 8-pixel row of a tile, stored as two bit-planes: Low
// supplies bit 0 of each pixel's 2-bit color, High supplies bit 1. Bit 7 of
// each byte is the leftmost pixel, bit 0 the rightmost.
//
// Example: Low=0x3C (00111100), High=0x7E (01111110) decodes to colors
// 0 2 3 3 3 3 2 0 across the row. The color index only picks a shade once
// combined with a palette register (BGP, or OBP0/OBP1 for sprites, where
// color 0 is always transparent).
//
// A full 8x8 tile is 8 rows * 2 bytes/row = 16 bytes in VRAM.
// Reference: https://gbdev.io/pandocs/Tile_Data.html
type TileRow struct {
	Low  byte
	High byte
}

func (t TileRow) pixelAt(bitIndex uint8) int {
	color := 0
	if bit.IsSet(bitIndex, t.Low) {
		color |= 1
	}
	if bit.IsSet(bitIndex, t.High) {
		color |= 2
	}
	return color
}

// GetPixel returns the color index (0-3) at pixelX (0-7, 0 leftmost).
func (t TileRow) GetPixel(pixelX int) int {
	return t.pixelAt(uint8(7 - pixelX))
}

// GetPixelFlipped returns the color index at pixelX as if the row were
// mirrored horizontally (FlipX sprite attribute).
func (t TileRow) GetPixelFlipped(pixelX int) int {
	return t.pixelAt(uint8(pixelX))
}

// Tile is a complete 8x8 tile pattern: 8 rows, 16 bytes in VRAM.
type Tile struct {
	Index int // VRAM tile index (0-383), only meaningful via FetchTileWithIndex
	Rows  [8]TileRow
}

// GetPixel returns the color index (0-3) at (x, y), or 0 if out of range.
func (t *Tile) GetPixel(x, y int) int {
	if y < 0 || y >= 8 || x < 0 || x >= 8 {
		return 0
	}
	return t.Rows[y].GetPixel(x)
}

// Pixels decodes the whole tile into an 8x8 grid of color indices, for
// debug/inspection tooling.
func (t *Tile) Pixels() [8][8]GBColor {
	var pixels [8][8]GBColor
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			pixels[y][x] = GBColor(t.Rows[y].GetPixel(x))
		}
	}
	return pixels
}

// MemoryReader is the minimal read surface FetchTile needs.
type MemoryReader interface {
	Read(addr uint16) byte
}

// FetchTile reads the 16-byte tile starting at baseAddr. Its Index field is
// left zero; use FetchTileWithIndex when the caller needs it populated.
func FetchTile(mem MemoryReader, baseAddr uint16) Tile {
	var tile Tile
	for row := range tile.Rows {
		rowAddr := baseAddr + uint16(row*2)
		tile.Rows[row] = TileRow{Low: mem.Read(rowAddr), High: mem.Read(rowAddr + 1)}
	}
	return tile
}

// FetchTileWithIndex is FetchTile plus a caller-supplied VRAM tile index.
func FetchTileWithIndex(mem MemoryReader, baseAddr uint16, index int) Tile {
	tile := FetchTile(mem, baseAddr)
	tile.Index = index
	return tile
}

// RenderTileToBuffer draws tile into a row-major RGBA pixel buffer at
// (x, y), stride pixels per row, mapping each 2-bit color index through
// palette. Pixels falling outside the buffer are dropped.
func RenderTileToBuffer(tile *Tile, buffer []uint32, x, y, stride int, palette []uint32) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			idx := (y+row)*stride + x + col
			if idx < 0 || idx >= len(buffer) {
				continue
			}
			color := tile.Rows[row].GetPixel(col)
			if color < len(palette) {
				buffer[idx] = palette[color]
			}
		}
	}
}
