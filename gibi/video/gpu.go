package video

import (
	"fmt"
	"log/slog"

	"github.com/mkoenig/go-gibi/gibi/addr"
	"github.com/mkoenig/go-gibi/gibi/bit"
	"github.com/mkoenig/go-gibi/gibi/memory"
)

// GpuMode represents the PPU's current rendering stage.
// These values match the STAT register bits 1-0.
type GpuMode int

const (
	// hblankMode (Mode 0): Horizontal blank period, CPU can access VRAM/OAM
	hblankMode GpuMode = 0
	// vblankMode (Mode 1): Vertical blank period, CPU can access VRAM/OAM
	vblankMode GpuMode = 1
	// oamReadMode (Mode 2): PPU is reading OAM, CPU cannot access OAM
	oamReadMode GpuMode = 2
	// vramReadMode (Mode 3): PPU is reading VRAM, CPU cannot access VRAM/OAM
	vramReadMode GpuMode = 3
)

const (
	hblankCycles       = 204
	oamScanlineCycles  = 80
	vramScanlineCycles = 172
	scanlineCycles     = oamScanlineCycles + vramScanlineCycles + hblankCycles
	vblankLineCount    = 10
	frameCycles        = 70224
)

// GPU drives the scanline/mode state machine and renders background, window
// and sprite layers into a framebuffer once per scanline, mirroring how the
// real PPU commits a whole line's worth of pixels while in mode 3.
type GPU struct {
	bus         *memory.MMU
	framebuffer *FrameBuffer
	bgPriority  []byte // per-pixel BG/window color index (0-3), used for sprite-behind-BG checks
	oam         *OAM

	mode             GpuMode // current PPU mode (matches STAT bits 1-0)
	statLine         bool    // shared STAT interrupt line; fires on its rising edge only
	line             int     // current scanline (LY register, 0-153)
	dotsInMode       int     // dots elapsed in the current mode
	vblankDots       int     // auxiliary dot counter driving the 10 VBlank pseudo-lines
	vblankLine       int     // which VBlank pseudo-line we're on (0-9)
	scanlineRendered bool    // whether the current scanline has been drawn yet
	windowLine       int     // internal window line counter (0-143), only advances when the window is drawn
}

func NewGpu(bus *memory.MMU) *GPU {
	gpu := &GPU{
		bus:         bus,
		framebuffer: NewFrameBuffer(),
		bgPriority:  make([]byte, FramebufferSize),
		oam:         NewOAM(bus),
		mode:        vblankMode,
		line:        144,
	}

	lcdc := bus.ReadDirect(addr.LCDC)
	bgp := bus.ReadDirect(addr.BGP)
	slog.Debug("GPU initialized", "LCDC", fmt.Sprintf("0x%02X", lcdc), "LCD_enabled", (lcdc&0x80) != 0, "BGP", fmt.Sprintf("0x%02X", bgp))

	return gpu
}

func (g *GPU) GetFrameBuffer() *FrameBuffer {
	return g.framebuffer
}

// Tick advances the PPU's mode/scanline state machine by the given number of
// dots, rendering a scanline whenever mode 3 is entered and firing the
// STAT/VBlank interrupts the LCD controller exposes to the CPU.
func (g *GPU) Tick(dots int) {
	g.dotsInMode += dots

	switch g.mode {
	case oamReadMode:
		g.tickOAMScan()
	case vramReadMode:
		g.tickPixelTransfer()
	case hblankMode:
		g.tickHBlank()
	case vblankMode:
		g.tickVBlank(dots)
	}

	if g.dotsInMode >= frameCycles {
		g.dotsInMode -= frameCycles
	}
}

func (g *GPU) tickOAMScan() {
	if g.dotsInMode < oamScanlineCycles {
		return
	}
	g.dotsInMode -= oamScanlineCycles
	g.scanlineRendered = false
	g.enterMode(vramReadMode)
}

func (g *GPU) tickPixelTransfer() {
	if !g.scanlineRendered {
		if g.lcdcFlag(lcdDisplayEnable) {
			g.renderScanline()
		}
		g.scanlineRendered = true
	}

	if g.dotsInMode < vramScanlineCycles {
		return
	}
	g.dotsInMode -= vramScanlineCycles
	g.enterMode(hblankMode)
}

func (g *GPU) tickHBlank() {
	if g.dotsInMode < hblankCycles {
		return
	}
	g.dotsInMode -= hblankCycles
	g.setLY(g.line + 1)

	if g.line == FramebufferHeight {
		g.vblankLine = 0
		g.vblankDots = g.dotsInMode
		g.windowLine = 0
		g.enterMode(vblankMode)
		g.bus.RequestInterrupt(addr.VBlankInterrupt)
		return
	}

	g.enterMode(oamReadMode)
}

func (g *GPU) tickVBlank(dots int) {
	g.vblankDots += dots

	if g.vblankDots >= scanlineCycles {
		g.vblankDots -= scanlineCycles
		g.vblankLine++
		if g.vblankLine <= vblankLineCount-1 {
			g.setLY(g.line + 1)
		}
	}

	// The last VBlank pseudo-line reports LY=0 a little before the mode
	// actually changes, matching the hardware's early LY reset.
	if g.dotsInMode >= 4104 && g.vblankDots >= 4 && g.line == 153 {
		g.setLY(0)
	}

	if g.dotsInMode >= 4560 {
		g.dotsInMode -= 4560
		g.enterMode(oamReadMode)
	}
}

// enterMode updates the STAT mode bits and re-evaluates the STAT interrupt
// line for the new mode.
func (g *GPU) enterMode(mode GpuMode) {
	g.mode = mode
	stat := g.bus.ReadDirect(addr.STAT)
	stat = stat&0xFC | byte(mode)
	g.bus.WriteDirect(addr.STAT, stat)

	g.updateStatLine()
}

// updateStatLine recomputes the single internal "any source asserted" line
// that drives the STAT interrupt. The interrupt is edge-triggered on this
// line: a second source asserting while the line is already high does not
// fire again until every source has dropped first.
func (g *GPU) updateStatLine() {
	stat := g.bus.ReadDirect(addr.STAT)

	line := false
	switch g.mode {
	case hblankMode:
		line = bit.IsSet(uint8(statHblankIrq), stat)
	case vblankMode:
		line = bit.IsSet(uint8(statVblankIrq), stat)
	case oamReadMode:
		line = bit.IsSet(uint8(statOamIrq), stat)
	}
	if bit.IsSet(uint8(statLycCondition), stat) && bit.IsSet(uint8(statLycIrq), stat) {
		line = true
	}

	if line && !g.statLine {
		g.bus.RequestInterrupt(addr.LCDSTATInterrupt)
	}
	g.statLine = line
}

// renderScanline draws the current line's background, window and sprite
// layers, in that priority order, in a single pass - the real PPU commits a
// whole line at once while shifting pixels out during mode 3.
func (g *GPU) renderScanline() {
	if !g.lcdcFlag(lcdDisplayEnable) {
		g.fillLine(g.line, uint32(WhiteColor))
		return
	}

	g.drawBackground()
	g.drawWindow()
	g.drawSprites()
}

func (g *GPU) fillLine(line int, color uint32) {
	start := line * FramebufferWidth
	for i := 0; i < FramebufferWidth; i++ {
		g.framebuffer.buffer[start+i] = color
	}
}

// bgTileSource resolves which tile map and tile data region the background
// or window layer should read from, given the relevant LCDC select bits.
type bgTileSource struct {
	tileMap  uint16
	tileData uint16
	signed   bool
}

func (g *GPU) backgroundSource() bgTileSource {
	src := bgTileSource{
		tileMap:  addr.TileMap1,
		tileData: addr.TileData0,
		signed:   !g.lcdcFlag(bgWindowTileDataSelect),
	}
	if !g.lcdcFlag(bgTileMapDisplaySelect) {
		src.tileMap = addr.TileMap0
	}
	if src.signed {
		src.tileData = addr.TileData2
	}
	return src
}

func (g *GPU) windowSource() bgTileSource {
	src := g.backgroundSource()
	src.tileMap = addr.TileMap1
	if !g.lcdcFlag(windowTileMapSelect) {
		src.tileMap = addr.TileMap0
	}
	return src
}

// fetchTileRow fetches the tile at (tileX, tileY) in tile-map space and
// returns the TileRow for pixelRow within it (0-7).
func (g *GPU) fetchTileRow(src bgTileSource, tileX, tileY, pixelRow int) TileRow {
	tileMapAddr := src.tileMap + uint16(tileY*32+tileX)
	tileValue := g.bus.ReadDirect(tileMapAddr)

	var tileBase uint16
	if src.signed {
		tileBase = uint16(int(src.tileData) + int(int8(tileValue))*16)
	} else {
		tileBase = src.tileData + uint16(tileValue)*16
	}

	rowAddr := tileBase + uint16(pixelRow*2)
	return TileRow{
		Low:  g.bus.ReadDirect(rowAddr),
		High: g.bus.ReadDirect(rowAddr + 1),
	}
}

func (g *GPU) drawBackground() {
	lineStart := g.line * FramebufferWidth

	if !g.lcdcFlag(bgDisplay) {
		palette := g.bus.ReadDirect(addr.BGP)
		color := uint32(ByteToColor(palette & 0x03))
		for i := 0; i < FramebufferWidth; i++ {
			g.framebuffer.buffer[lineStart+i] = color
			g.bgPriority[lineStart+i] = 0
		}
		return
	}

	src := g.backgroundSource()
	scrollX := g.bus.ReadDirect(addr.SCX)
	scrollY := g.bus.ReadDirect(addr.SCY)
	mapY := (g.line + int(scrollY)) & 0xFF
	tileY := mapY / 8
	pixelRow := mapY % 8

	palette := g.bus.ReadDirect(addr.BGP)

	var row TileRow
	lastTileX := -1
	for x := 0; x < FramebufferWidth; x++ {
		mapX := (x + int(scrollX)) & 0xFF
		tileX := mapX / 8
		if tileX != lastTileX {
			row = g.fetchTileRow(src, tileX, tileY, pixelRow)
			lastTileX = tileX
		}

		colorIdx := row.GetPixel(mapX % 8)
		position := lineStart + x
		g.framebuffer.buffer[position] = uint32(ByteToColor((palette >> (colorIdx * 2)) & 0x03))
		g.bgPriority[position] = byte(colorIdx)
	}
}

func (g *GPU) drawWindow() {
	if g.windowLine > FramebufferHeight-1 || !g.lcdcFlag(windowDisplayEnable) {
		return
	}

	wx := int(g.bus.ReadDirect(addr.WX)) - 7
	wy := int(g.bus.ReadDirect(addr.WY))

	if wx >= FramebufferWidth || wy > FramebufferHeight-1 || wy > g.line {
		return
	}

	src := g.windowSource()
	tileY := g.windowLine / 8
	pixelRow := g.windowLine % 8
	palette := g.bus.ReadDirect(addr.BGP)
	lineStart := g.line * FramebufferWidth

	drewAnyPixel := false
	for tileX := 0; tileX*8+wx < FramebufferWidth; tileX++ {
		row := g.fetchTileRow(src, tileX, tileY, pixelRow)

		for px := 0; px < 8; px++ {
			screenX := wx + tileX*8 + px
			if screenX < 0 || screenX >= FramebufferWidth {
				continue
			}

			colorIdx := row.GetPixel(px)
			position := lineStart + screenX
			g.framebuffer.buffer[position] = uint32(ByteToColor((palette >> (colorIdx * 2)) & 0x03))
			g.bgPriority[position] = byte(colorIdx)
			drewAnyPixel = true
		}
	}

	if drewAnyPixel {
		g.windowLine++
	}
}

func (g *GPU) drawSprites() {
	if !g.lcdcFlag(spriteDisplayEnable) {
		return
	}

	lineStart := g.line * FramebufferWidth
	sprites := g.oam.GetSpritesForScanline(g.line)

	for i := range sprites {
		s := &sprites[i]
		if !s.HasPriorityForAnyPixel() {
			continue
		}
		g.drawSprite(s, lineStart)
	}
}

func (g *GPU) drawSprite(s *Sprite, lineStart int) {
	pixelY := g.line - int(s.Y)
	if s.FlipY {
		pixelY = s.Height - 1 - pixelY
	}

	tileIndex := s.TileIndex
	if s.Height == 16 {
		tileIndex &= 0xFE
	}
	rowInTile := pixelY % 8
	if s.Height == 16 && pixelY >= 8 {
		tileIndex++
	}

	tileBase := addr.TileData0 + uint16(tileIndex)*16
	row := TileRow{
		Low:  g.bus.ReadDirect(tileBase + uint16(rowInTile*2)),
		High: g.bus.ReadDirect(tileBase + uint16(rowInTile*2) + 1),
	}

	paletteAddr := addr.OBP0
	if s.PaletteOBP1 {
		paletteAddr = addr.OBP1
	}
	palette := g.bus.ReadDirect(paletteAddr)

	for px := 0; px < 8; px++ {
		if !s.HasPriorityForPixel(px) {
			continue
		}

		var colorIdx int
		if s.FlipX {
			colorIdx = row.GetPixelFlipped(px)
		} else {
			colorIdx = row.GetPixel(px)
		}
		if colorIdx == 0 {
			continue // color 0 is always transparent for sprites
		}

		bufferX := int(s.X) + px
		if bufferX < 0 || bufferX >= FramebufferWidth {
			continue
		}
		position := lineStart + bufferX

		if s.BehindBG && g.bgPriority[position] != 0 {
			continue
		}

		g.framebuffer.buffer[position] = uint32(ByteToColor((palette >> (colorIdx * 2)) & 0x03))
	}
}

// LCD Stat (Status) Register bit values
// Bit 7 - unused
// Bit 6 - Interrupt based on LYC to LY comparison (based on bit 2)
// Bit 5 - Interrupt when Mode 10 (oamReadMode)
// Bit 4 - Interrupt when Mode 01 (vblankMode)
// Bit 3 - Interrupt when Mode 00 (hblankMode)
// Bit 2 - condition for triggering LYC/LY (0=LYC != LY, 1=LYC == LY)
// Bit 1,0 - represents the current GPU mode
type statFlag uint8

const (
	statLycIrq       statFlag = 6
	statOamIrq       statFlag = 5
	statVblankIrq    statFlag = 4
	statHblankIrq    statFlag = 3
	statLycCondition statFlag = 2
)

// LCDC (LCD Control) Register bit values
// Bit 7 - LCD Display Enable (0=Off, 1=On)
// Bit 6 - Window Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 5 - Window Display Enable (0=Off, 1=On)
// Bit 4 - BG & Window Tile Data Select (0=8800-97FF, 1=8000-8FFF)
// Bit 3 - BG Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 2 - OBJ (Sprite) Size (0=8x8, 1=8x16)
// Bit 1 - OBJ (Sprite) Display Enable (0=Off, 1=On)
// Bit 0 - BG Display (0=Off, 1=On)
type lcdcFlag uint8

const (
	lcdDisplayEnable       lcdcFlag = 7
	windowTileMapSelect    lcdcFlag = 6
	windowDisplayEnable    lcdcFlag = 5
	bgWindowTileDataSelect lcdcFlag = 4
	bgTileMapDisplaySelect lcdcFlag = 3
	spriteSize             lcdcFlag = 2
	spriteDisplayEnable    lcdcFlag = 1
	bgDisplay              lcdcFlag = 0
)

func (g *GPU) lcdcFlag(flag lcdcFlag) bool {
	return bit.IsSet(uint8(flag), g.bus.ReadDirect(addr.LCDC))
}

func (g *GPU) compareLYToLYC() {
	ly := g.bus.ReadDirect(addr.LY)
	lyc := g.bus.ReadDirect(addr.LYC)
	stat := g.bus.ReadDirect(addr.STAT)

	if ly == lyc {
		stat = bit.Set(uint8(statLycCondition), stat)
	} else {
		stat = bit.Reset(uint8(statLycCondition), stat)
	}

	g.bus.WriteDirect(addr.STAT, stat)
	g.updateStatLine()
}

// setLY updates the current scanline (LY register) and re-evaluates the
// LY/LYC comparison, which may fire a STAT interrupt.
func (g *GPU) setLY(line int) {
	g.line = line
	g.bus.WriteDirect(addr.LY, byte(g.line))
	g.compareLYToLYC()
}
