package video

type fetchPhase uint8

const (
	phaseReadTileID fetchPhase = iota
	phaseReadTileLow
	phaseReadTileHigh
	phasePush
)

type bgPixel struct {
	color uint8
}

// fetcher is the PPU's pixel-transfer engine: a 4-phase tile fetch that
// feeds a background/window FIFO, plus a sprite fetch that can interrupt
// it mid-line. One step is called per PPU dot; the first three
// phases take two steps each (the fetcher runs at half the PPU's clock),
// the push phase retries every step until the FIFO has room.
type fetcher struct {
	phase    fetchPhase
	subTicks int

	col      int // tile column, 0..31, within the current 32-wide map row
	tileID   uint8
	low, high uint8

	bg  []bgPixel
	spr []spritePixel

	scxApplied bool

	inWindow bool

	fetchingSprite bool
	spriteSubTicks int
	spriteIdx      int
	sprite         oamSprite
}

func (f *fetcher) start(p *PPU) {
	f.phase = phaseReadTileID
	f.subTicks = 2
	f.col = 0
	f.bg = f.bg[:0]
	f.spr = f.spr[:0]
	f.scxApplied = false
	f.inWindow = false
	f.fetchingSprite = false
	f.spriteIdx = 0
}

func (f *fetcher) step(p *PPU) {
	if !f.fetchingSprite && p.objEnabled() {
		if idx, sp, ok := f.nextSpriteAt(p); ok {
			f.spriteIdx = idx + 1
			f.sprite = sp
			f.fetchingSprite = true
			f.spriteSubTicks = 4
		}
	}
	if f.fetchingSprite {
		f.stepSprite(p)
		return
	}

	if !f.inWindow && p.windowEnabled() && p.windowTriggered && p.lcdX+7 >= int(p.wx) && p.wx <= 166 {
		f.enterWindow(p)
	}

	switch f.phase {
	case phaseReadTileID:
		f.subTicks--
		if f.subTicks == 0 {
			f.tileID = f.readTileID(p)
			f.phase = phaseReadTileLow
			f.subTicks = 2
		}
	case phaseReadTileLow:
		f.subTicks--
		if f.subTicks == 0 {
			f.low = f.readTileData(p, false)
			f.phase = phaseReadTileHigh
			f.subTicks = 2
		}
	case phaseReadTileHigh:
		f.subTicks--
		if f.subTicks == 0 {
			f.high = f.readTileData(p, true)
			f.phase = phasePush
		}
	case phasePush:
		if len(f.bg) <= 8 {
			for i := 0; i < 8; i++ {
				bitIdx := 7 - uint(i)
				lo := (f.low >> bitIdx) & 1
				hi := (f.high >> bitIdx) & 1
				f.bg = append(f.bg, bgPixel{color: hi<<1 | lo})
			}
			f.col = (f.col + 1) & 31
			f.phase = phaseReadTileID
			f.subTicks = 2
		}
	}

	f.tryOutput(p)
}

func (f *fetcher) enterWindow(p *PPU) {
	f.inWindow = true
	f.phase = phaseReadTileID
	f.subTicks = 2
	f.col = 0
	f.bg = f.bg[:0]
	f.scxApplied = true // window content is never SCX-shifted
}

func (f *fetcher) tileLine(p *PPU) uint8 {
	if f.inWindow {
		return uint8(p.windowLine % 8)
	}
	return (p.scy + p.ly) % 8
}

func (f *fetcher) readTileID(p *PPU) uint8 {
	var base uint16
	if f.inWindow {
		if p.windowTileMapHi() {
			base = 0x9C00
		} else {
			base = 0x9800
		}
	} else {
		if p.bgTileMapHi() {
			base = 0x9C00
		} else {
			base = 0x9800
		}
	}
	var row int
	if f.inWindow {
		row = p.windowLine / 8
	} else {
		row = int(p.scy+p.ly) / 8
	}
	mapCol := f.col
	if !f.inWindow {
		mapCol = (int(p.scx)/8 + f.col) & 31
	}
	addr := base + uint16((row&31)*32) + uint16(mapCol)
	return p.ReadVRAM(addr)
}

func (f *fetcher) readTileData(p *PPU, high bool) uint8 {
	line := f.tileLine(p)
	var tileAddr uint16
	if p.signedTileData() {
		tileAddr = uint16(0x9000 + int16(int8(f.tileID))*16)
	} else {
		tileAddr = 0x8000 + uint16(f.tileID)*16
	}
	offset := uint16(line) * 2
	if high {
		offset++
	}
	return p.ReadVRAM(tileAddr + offset)
}

// nextSpriteAt reports the next not-yet-fetched sprite (in priority
// order) whose X matches the fetcher's current output column.
func (f *fetcher) nextSpriteAt(p *PPU) (int, oamSprite, bool) {
	for i := f.spriteIdx; i < len(p.spritesForLine); i++ {
		sp := p.spritesForLine[i]
		if sp.x-8 <= p.lcdX && p.lcdX < sp.x {
			return i, sp, true
		}
		if sp.x-8 > p.lcdX {
			break
		}
	}
	return 0, oamSprite{}, false
}

func (f *fetcher) stepSprite(p *PPU) {
	f.spriteSubTicks--
	if f.spriteSubTicks > 0 {
		return
	}
	f.fetchingSprite = false

	height := 8
	if p.tallSprites() {
		height = 16
	}
	row := int(p.ly) - (f.sprite.y - 16)
	if f.sprite.yFlip() {
		row = height - 1 - row
	}
	tile := f.sprite.tileID
	if height == 16 {
		tile &^= 1
		if row >= 8 {
			tile |= 1
			row -= 8
		}
	}
	tileAddr := 0x8000 + uint16(tile)*16 + uint16(row)*2
	lo := p.ReadVRAM(tileAddr)
	hi := p.ReadVRAM(tileAddr + 1)

	for len(f.spr) < len(f.bg) {
		f.spr = append(f.spr, spritePixel{})
	}

	for i := 0; i < 8; i++ {
		bitIdx := uint(i)
		if !f.sprite.xFlip() {
			bitIdx = 7 - uint(i)
		}
		lo1 := (lo >> bitIdx) & 1
		hi1 := (hi >> bitIdx) & 1
		color := hi1<<1 | lo1

		slot := len(f.bg) - 8 + i
		if slot < 0 {
			continue
		}
		for len(f.spr) <= slot {
			f.spr = append(f.spr, spritePixel{})
		}
		if f.spr[slot].present {
			continue // first sprite to claim a slot wins
		}
		if color == 0 {
			continue // transparent sprite pixels never override
		}
		f.spr[slot] = spritePixel{
			color:   color,
			obp1:    f.sprite.paletteOBP1(),
			behind:  f.sprite.priority(),
			present: true,
		}
	}
}

func (f *fetcher) tryOutput(p *PPU) {
	if len(f.bg) <= 8 {
		return
	}
	if !f.scxApplied {
		discard := int(p.scx) & 7
		if discard > 0 {
			if len(f.bg) <= discard {
				return
			}
			f.bg = f.bg[discard:]
		}
		f.scxApplied = true
		if len(f.bg) <= 8 {
			return
		}
	}

	px := f.bg[0]
	f.bg = f.bg[1:]

	var sp spritePixel
	if len(f.spr) > 0 {
		sp = f.spr[0]
		f.spr = f.spr[1:]
	}

	color := px.color
	if !p.bgWindowEnabled() {
		color = 0
	}
	pal := Palette(p.bgp)

	if sp.present && !(sp.behind && color != 0) {
		color = sp.color
		if sp.obp1 {
			pal = Palette(p.obp1)
		} else {
			pal = Palette(p.obp0)
		}
	}

	shade := pal.Apply(color)
	p.Sink.DrawPixel(uint32(ShadeToColor(shade)), p.lcdX, int(p.ly))
	p.lcdX++
	if f.inWindow {
		p.windowLine++
	}
}
