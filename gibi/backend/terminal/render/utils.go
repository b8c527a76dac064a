package render

import "strings"

// PixelToShade maps an RGBA framebuffer pixel back to its display shade,
// 0 (black) through 3 (white). Anything unrecognized counts as black.
func PixelToShade(pixel uint32) int {
	switch pixel {
	case 0x000000FF:
		return 0
	case 0x4C4C4CFF:
		return 1
	case 0x989898FF:
		return 2
	case 0xFFFFFFFF:
		return 3
	default:
		return 0
	}
}

// GetHalfBlockChar picks the block character that best represents two
// vertically stacked pixels in one terminal cell: a full block when both
// shades match, otherwise a half block oriented by which half is white.
// The caller supplies foreground/background colors to finish the effect.
func GetHalfBlockChar(topShade, bottomShade int) rune {
	switch {
	case topShade == bottomShade:
		return '█'
	case topShade == 3 && bottomShade != 3:
		return '▄'
	default:
		return '▀'
	}
}

// RenderFrameToHalfBlocks folds a framebuffer into text, two pixel rows per
// line, for plain-text frame snapshots. Odd heights get a final half-height
// row padded with white.
func RenderFrameToHalfBlocks(frame []uint32, width, height int) []string {
	if len(frame) < width*height {
		return nil
	}

	textHeight := (height + 1) / 2
	lines := make([]string, textHeight)

	var sb strings.Builder
	for textRow := 0; textRow < textHeight; textRow++ {
		sb.Reset()
		topRow := textRow * 2
		bottomRow := topRow + 1

		for x := 0; x < width; x++ {
			top := frame[topRow*width+x]
			bottom := uint32(0xFFFFFFFF)
			if bottomRow < height {
				bottom = frame[bottomRow*width+x]
			}
			sb.WriteRune(GetHalfBlockChar(PixelToShade(top), PixelToShade(bottom)))
		}

		lines[textRow] = sb.String()
	}

	return lines
}
