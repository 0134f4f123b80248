package video

import "github.com/gopherboy/gopherboy/sink"

// GBColor is one of the four DMG shades, stored pre-expanded to RGBA8888
// so callers never need a second lookup table.
type GBColor uint32

const (
	WhiteColor     GBColor = 0xFFFFFFFF
	LightGreyColor GBColor = 0x98_98_98_FF
	DarkGreyColor  GBColor = 0x4C_4C_4C_FF
	BlackColor     GBColor = 0x00_00_00_FF
)

// ShadeToColor maps a 2-bit post-palette shade (0=lightest in hardware
// numbering is actually 0=white..3=black, see palette.go) to its RGBA8888
// representation.
func ShadeToColor(shade uint8) GBColor {
	switch shade {
	case 0:
		return WhiteColor
	case 1:
		return LightGreyColor
	case 2:
		return DarkGreyColor
	case 3:
		return BlackColor
	default:
		return BlackColor
	}
}

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
	FramebufferSize   = FramebufferWidth * FramebufferHeight
)

// FrameBuffer is an in-memory sink.VideoSink: it accumulates exactly one
// frame's worth of pixels and exposes them for headless snapshotting or
// test assertions. Real windowed backends implement sink.VideoSink
// directly against their own surface instead of going through this type.
type FrameBuffer struct {
	buffer    [FramebufferSize]uint32
	Presented int // bumped once per PresentScreen call, a test hook
}

var _ sink.VideoSink = (*FrameBuffer)(nil)

func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

func (fb *FrameBuffer) ClearScreen(rgba uint32) {
	for i := range fb.buffer {
		fb.buffer[i] = rgba
	}
}

func (fb *FrameBuffer) DrawPixel(rgba uint32, x, y int) {
	if x < 0 || x >= FramebufferWidth || y < 0 || y >= FramebufferHeight {
		return
	}
	fb.buffer[y*FramebufferWidth+x] = rgba
}

func (fb *FrameBuffer) PresentScreen() {
	fb.Presented++
}

func (fb *FrameBuffer) Pixel(x, y int) uint32 {
	return fb.buffer[y*FramebufferWidth+x]
}

func (fb *FrameBuffer) Pixels() []uint32 {
	return fb.buffer[:]
}

// ToGrayscale converts the framebuffer into 0-3 shade indices for compact
// golden-file comparisons.
func (fb *FrameBuffer) ToGrayscale() []byte {
	data := make([]byte, len(fb.buffer))
	for i, pixel := range fb.buffer {
		switch GBColor(pixel) {
		case BlackColor:
			data[i] = 3
		case DarkGreyColor:
			data[i] = 2
		case LightGreyColor:
			data[i] = 1
		case WhiteColor:
			data[i] = 0
		default:
			data[i] = 0
		}
	}
	return data
}
