package ppu

import "sort"

// Sprite is one OAM-scanned object selected for a scanline, already
// converted to screen-space X (OAM X minus 8) for direct column comparison
// against framebuffer pixels.
type Sprite struct {
	X        int
	Y        int
	Tile     byte
	Attr     byte
	OAMIndex int
}

// LineReg captures per-scanline window state at the moment the line started
// drawing; exposed for test/debug inspection.
type LineReg struct {
	WinLine byte
}

// LineRegs returns the window line-counter snapshot. ly is accepted for
// symmetry with a multi-line history but this implementation only tracks the
// current line, which is all the tests (and the one-scanline-at-a-time
// renderer) ever ask for.
func (p *PPU) LineRegs(ly int) LineReg {
	return LineReg{WinLine: p.windowY}
}

// objectHeight returns 8 or 16 depending on LCDC bit 2 (OBJ size).
func (p *PPU) objectHeight() int {
	if p.lcdc&0x04 != 0 {
		return 16
	}
	return 8
}

// scanOAM selects up to 10 objects intersecting scanline ly, sorted by
// ascending screen X with a stable sort so OAM order breaks ties (P2).
func (p *PPU) scanOAM(ly byte) []Sprite {
	height := p.objectHeight()
	var found []Sprite
	for i := 0; i < 40 && len(found) < 10; i++ {
		base := i * 4
		oy := int(p.oam[base]) - 16
		ox := int(p.oam[base+1]) - 8
		tile := p.oam[base+2]
		attr := p.oam[base+3]
		if int(ly) >= oy && int(ly) < oy+height {
			found = append(found, Sprite{X: ox, Y: oy, Tile: tile, Attr: attr, OAMIndex: i})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].X < found[j].X })
	return found
}

// objectPixelAt returns the raw (unpalette-mapped) color index and attribute
// byte of the highest-priority sprite covering screen column x on line ly,
// or ok=false if no sprite contributes an opaque pixel there.
func objectPixelAt(mem VRAMReader, sprites []Sprite, x int, ly byte, height int) (ci byte, attr byte, ok bool) {
	for _, s := range sprites {
		dx := x - s.X
		if dx < 0 || dx >= 8 {
			continue
		}
		dy := int(ly) - s.Y
		if dy < 0 || dy >= height {
			continue
		}
		if s.Attr&0x20 != 0 { // X flip
			dx = 7 - dx
		}
		if s.Attr&0x40 != 0 { // Y flip
			dy = height - 1 - dy
		}
		tile := s.Tile
		rowInTile := dy
		if height == 16 {
			tile &^= 1
			if dy >= 8 {
				tile |= 1
				rowInTile -= 8
			}
		}
		base := uint16(0x8000) + uint16(tile)*16 + uint16(rowInTile)*2
		lo := mem.Read(base)
		hi := mem.Read(base + 1)
		bit := 7 - byte(dx)
		v := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
		if v == 0 {
			continue // transparent: this sprite yields to whatever is under it
		}
		return v, s.Attr, true
	}
	return 0, 0, false
}

// ComposeSpriteLine renders one scanline's worth of object pixels as raw
// (unpalette-mapped) color indices, honoring the BG-priority attribute bit
// and the standard X-then-OAM-index priority order. 0 means no sprite pixel.
func ComposeSpriteLine(mem VRAMReader, sprites []Sprite, ly byte, bgci [160]byte, tall bool) [160]byte {
	height := 8
	if tall {
		height = 16
	}
	var out [160]byte
	for x := 0; x < 160; x++ {
		ci, attr, ok := objectPixelAt(mem, sprites, x, ly, height)
		if !ok {
			continue
		}
		if attr&0x80 != 0 && bgci[x] != 0 {
			continue // behind BG/window
		}
		out[x] = ci
	}
	return out
}

func applyPalette(reg, ci byte) byte {
	return (reg >> (ci * 2)) & 0x03
}

// renderScanline composites background, window, and objects for the current
// LY into the framebuffer, following original_source/src/core/ppu.rs's
// draw_bg/draw_window/draw_objects/clock compositing order: BG first,
// window overlays it where active, then objects overlay both unless the
// object's priority bit is set and the underlying BG/window pixel is
// non-zero.
func (p *PPU) renderScanline() {
	ly := p.ly
	var bgci [160]byte

	bgEnabled := p.lcdc&0x01 != 0
	tileData8000 := p.lcdc&0x10 != 0
	bgMapBase := uint16(0x9800)
	if p.lcdc&0x08 != 0 {
		bgMapBase = 0x9C00
	}
	if bgEnabled {
		bgci = RenderBGScanlineUsingFetcher(p, bgMapBase, tileData8000, p.scx, p.scy, ly)
	}

	windowEnabled := p.lcdc&0x20 != 0
	winXStart := int(p.wx) - 7
	drewWindow := false
	if bgEnabled && windowEnabled && p.wyCondition && winXStart < 160 {
		winMapBase := uint16(0x9800)
		if p.lcdc&0x40 != 0 {
			winMapBase = 0x9C00
		}
		winRow := RenderWindowScanlineUsingFetcher(p, winMapBase, tileData8000, winXStart, p.windowY)
		start := winXStart
		if start < 0 {
			start = 0
		}
		for x := start; x < 160; x++ {
			bgci[x] = winRow[x]
		}
		drewWindow = true
	}

	var row [160]byte
	for x := 0; x < 160; x++ {
		row[x] = applyPalette(p.bgp, bgci[x])
	}

	if p.lcdc&0x02 != 0 {
		sprites := p.scanOAM(ly)
		for x := 0; x < 160; x++ {
			ci, attr, ok := objectPixelAt(p, sprites, x, ly, p.objectHeight())
			if !ok {
				continue
			}
			if attr&0x80 != 0 && bgci[x] != 0 {
				continue
			}
			pal := p.obp0
			if attr&0x10 != 0 {
				pal = p.obp1
			}
			row[x] = applyPalette(pal, ci)
		}
	}

	if int(ly) < len(p.fb) {
		p.fb[ly] = row
	}
	if drewWindow {
		p.windowY++
	}
}

// Framebuffer returns the completed 160x144 frame, one DMG shade (0-3, 0 =
// lightest) per pixel, row-major.
func (p *PPU) Framebuffer() *[144][160]byte { return &p.fb }
