package video

// Palette is one of BGP, OBP0 or OBP1: four 2-bit shade slots packed into
// a byte, slot 0 selected by color index 0, etc. Sprite palettes never
// use their slot 0 (color index 0 is always transparent for sprites), but
// Apply doesn't know that - the fetcher skips those pixels before they
// ever reach here.
type Palette uint8

// Apply maps a 2-bit pixel color index (as read straight out of tile
// bitplanes) through the palette register to the final 2-bit shade.
func (p Palette) Apply(colorIndex uint8) uint8 {
	return (uint8(p) >> (colorIndex * 2)) & 0x03
}
