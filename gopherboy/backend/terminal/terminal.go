// Package terminal implements a sink.VideoSink that renders the frame
// buffer in-place using tcell, two pixels per terminal cell via Unicode
// half-block characters.
package terminal

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/gopherboy/gopherboy/input"
	"github.com/gopherboy/gopherboy/sink"
	"github.com/gopherboy/gopherboy/video"
)

var _ sink.VideoSink = (*Backend)(nil)

// Backend owns a tcell.Screen and the most recently drawn frame.
type Backend struct {
	screen tcell.Screen
	pixels [video.FramebufferWidth * video.FramebufferHeight]uint32

	// Joypad receives Press calls from PollEvents (key releases are not
	// tracked); pass it to
	// Machine.New as the InputSource.
	Joypad *input.Joypad

	running bool
}

// New initializes a tcell screen for rendering.
func New() (*Backend, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("terminal: new screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("terminal: init screen: %w", err)
	}
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()

	return &Backend{
		screen:  screen,
		Joypad:  input.New(),
		running: true,
	}, nil
}

// ClearScreen implements sink.VideoSink.
func (t *Backend) ClearScreen(rgba uint32) {
	for i := range t.pixels {
		t.pixels[i] = rgba
	}
}

// DrawPixel implements sink.VideoSink.
func (t *Backend) DrawPixel(rgba uint32, x, y int) {
	if x < 0 || x >= video.FramebufferWidth || y < 0 || y >= video.FramebufferHeight {
		return
	}
	t.pixels[y*video.FramebufferWidth+x] = rgba
}

// PresentScreen implements sink.VideoSink: draws two rows of the
// framebuffer per terminal row using half-block characters, the top
// pixel as foreground and the bottom pixel as background.
func (t *Backend) PresentScreen() {
	for y := 0; y < video.FramebufferHeight; y += 2 {
		for x := 0; x < video.FramebufferWidth; x++ {
			top := t.pixels[y*video.FramebufferWidth+x]
			bottom := uint32(video.WhiteColor)
			if y+1 < video.FramebufferHeight {
				bottom = t.pixels[(y+1)*video.FramebufferWidth+x]
			}

			style := tcell.StyleDefault.Foreground(shadeColor(top)).Background(shadeColor(bottom))
			t.screen.SetContent(x, y/2, '▀', nil, style)
		}
	}
	t.screen.Show()
}

func shadeColor(rgba uint32) tcell.Color {
	switch video.GBColor(rgba) {
	case video.WhiteColor:
		return tcell.ColorWhite
	case video.LightGreyColor:
		return tcell.ColorSilver
	case video.DarkGreyColor:
		return tcell.ColorGray
	default:
		return tcell.ColorBlack
	}
}

// PollEvents drains pending tcell events, updating Joypad and reporting
// whether the user asked to quit (Escape or Ctrl-C).
func (t *Backend) PollEvents() (quit bool) {
	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				t.running = false
				continue
			}
			if btn, ok := keyMap[ev.Key()]; ok {
				t.Joypad.Press(btn)
			} else if btn, ok := runeMap[ev.Rune()]; ok {
				t.Joypad.Press(btn)
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
	return !t.running
}

var keyMap = map[tcell.Key]input.Button{
	tcell.KeyEnter: input.ButtonStart,
	tcell.KeyUp:    input.ButtonUp,
	tcell.KeyDown:  input.ButtonDown,
	tcell.KeyLeft:  input.ButtonLeft,
	tcell.KeyRight: input.ButtonRight,
}

var runeMap = map[rune]input.Button{
	'a': input.ButtonA,
	's': input.ButtonB,
	'q': input.ButtonSelect,
}

// Close tears down the tcell screen.
func (t *Backend) Close() {
	t.screen.Fini()
}
