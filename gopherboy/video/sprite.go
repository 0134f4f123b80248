package video

// oamSprite is one entry collected during OAM search, already resolved to
// the fields the fetcher needs; it does not carry the raw OAM bytes.
type oamSprite struct {
	y, x     int
	tileID   uint8
	attr     uint8
	oamIndex int
}

func (s oamSprite) priority() bool  { return s.attr&0x80 != 0 } // 1 = behind background colors 1-3
func (s oamSprite) yFlip() bool     { return s.attr&0x40 != 0 }
func (s oamSprite) xFlip() bool     { return s.attr&0x20 != 0 }
func (s oamSprite) paletteOBP1() bool { return s.attr&0x10 != 0 }

// spritePixel is one pixel sitting in the sprite FIFO, already resolved
// down to a color index plus the attributes needed to mix it with the
// background pixel it will eventually be paired with.
type spritePixel struct {
	color    uint8
	obp1     bool
	behind   bool
	present  bool // false means this slot is still an empty placeholder
}
