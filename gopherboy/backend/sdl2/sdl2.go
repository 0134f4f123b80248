//go:build sdl2

// Package sdl2 implements a windowed sink.VideoSink/sink.AudioSink pair
// using go-sdl2 bindings. Building it requires the SDL2 development
// libraries installed; default builds skip this package entirely.
package sdl2

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/gopherboy/gopherboy/input"
	"github.com/gopherboy/gopherboy/sink"
	"github.com/gopherboy/gopherboy/video"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	pixelScale  = 4
	windowWidth = video.FramebufferWidth * pixelScale
	windowHeight = video.FramebufferHeight * pixelScale

	bytesPerPixel = 4
	audioFreq     = 44100
	// targetQueuedBytes bounds how far ahead of playback we queue audio,
	// so PushSample never blocks waiting on the sound card.
	targetQueuedBytes = 2048 * bytesPerPixel
)

var _ sink.VideoSink = (*Backend)(nil)
var _ sink.AudioSink = (*Backend)(nil)

// Backend owns an SDL2 window, renderer and audio device, and satisfies
// both sink.VideoSink and sink.AudioSink so a single instance can be
// handed to Machine.New for both outputs.
type Backend struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture

	pixels []byte
	dirty  bool

	audioDevice sdl.AudioDeviceID
	sampleBuf   []int16

	// Joypad receives Press/Release calls from the event loop; the
	// caller is expected to pass it to Machine.New as the InputSource.
	Joypad *input.Joypad

	running bool
}

// New opens a window titled title and initializes the SDL2 video and
// audio subsystems. Call Close when done.
func New(title string) (*Backend, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS | sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("sdl2: init: %w", err)
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED, windowWidth, windowHeight, sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("sdl2: create window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("sdl2: create renderer: %w", err)
	}

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_RGBA8888, sdl.TEXTUREACCESS_STREAMING, video.FramebufferWidth, video.FramebufferHeight)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("sdl2: create texture: %w", err)
	}

	b := &Backend{
		window:   window,
		renderer: renderer,
		texture:  texture,
		pixels:   make([]byte, video.FramebufferWidth*video.FramebufferHeight*bytesPerPixel),
		Joypad:   input.New(),
		running:  true,
	}

	spec := &sdl.AudioSpec{Freq: audioFreq, Format: sdl.AUDIO_S16LSB, Channels: 2, Samples: 512}
	obtained := &sdl.AudioSpec{}
	dev, err := sdl.OpenAudioDevice("", false, spec, obtained, 0)
	if err != nil {
		slog.Warn("sdl2: audio device unavailable, running muted", "error", err)
	} else {
		b.audioDevice = dev
		sdl.PauseAudioDevice(b.audioDevice, false)
	}

	return b, nil
}

// ClearScreen implements sink.VideoSink.
func (b *Backend) ClearScreen(rgba uint32) {
	for i := 0; i < len(b.pixels); i += bytesPerPixel {
		writeABGR(b.pixels[i:i+bytesPerPixel], rgba)
	}
	b.dirty = true
}

// DrawPixel implements sink.VideoSink.
func (b *Backend) DrawPixel(rgba uint32, x, y int) {
	if x < 0 || x >= video.FramebufferWidth || y < 0 || y >= video.FramebufferHeight {
		return
	}
	i := (y*video.FramebufferWidth + x) * bytesPerPixel
	writeABGR(b.pixels[i:i+bytesPerPixel], rgba)
	b.dirty = true
}

// writeABGR stores an RGBA8888 color into the little-endian ABGR byte
// order SDL2's RGBA8888 texture format expects on disk.
func writeABGR(dst []byte, rgba uint32) {
	r := byte(rgba >> 24)
	g := byte(rgba >> 16)
	b := byte(rgba >> 8)
	a := byte(rgba)
	dst[0] = a
	dst[1] = b
	dst[2] = g
	dst[3] = r
}

// PresentScreen implements sink.VideoSink: uploads the pixel buffer to
// the texture and presents it.
func (b *Backend) PresentScreen() {
	if !b.dirty {
		return
	}
	b.texture.Update(nil, unsafe.Pointer(&b.pixels[0]), video.FramebufferWidth*bytesPerPixel)
	b.renderer.Clear()
	b.renderer.Copy(b.texture, nil, nil)
	b.renderer.Present()
	b.dirty = false
}

// PushSample implements sink.AudioSink. It appends one interleaved stereo
// frame to a local buffer and, whenever the device queue holds less than
// targetQueuedBytes, queues the whole buffer to the audio device; while the
// device queue is at or above that level, frames keep accumulating locally.
func (b *Backend) PushSample(left, right int16) {
	if b.audioDevice == 0 {
		return
	}
	b.sampleBuf = append(b.sampleBuf, left, right)
	if sdl.GetQueuedAudioSize(b.audioDevice) >= targetQueuedBytes {
		return
	}
	if len(b.sampleBuf) == 0 {
		return
	}
	raw := (*[1 << 30]byte)(unsafe.Pointer(&b.sampleBuf[0]))[: len(b.sampleBuf)*2 : len(b.sampleBuf)*2]
	sdl.QueueAudio(b.audioDevice, raw)
	b.sampleBuf = b.sampleBuf[:0]
}

// PollEvents drains the SDL2 event queue, updating Joypad and reporting
// whether a quit was requested.
func (b *Backend) PollEvents() (quit bool) {
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		switch e := ev.(type) {
		case *sdl.QuitEvent:
			b.running = false
		case *sdl.KeyboardEvent:
			btn, ok := keyMap[e.Keysym.Sym]
			if !ok {
				continue
			}
			if e.Type == sdl.KEYDOWN {
				b.Joypad.Press(btn)
			} else if e.Type == sdl.KEYUP {
				b.Joypad.Release(btn)
			}
		}
	}
	return !b.running
}

var keyMap = map[sdl.Keycode]input.Button{
	sdl.K_RETURN: input.ButtonStart,
	sdl.K_a:      input.ButtonA,
	sdl.K_s:      input.ButtonB,
	sdl.K_q:      input.ButtonSelect,
	sdl.K_UP:     input.ButtonUp,
	sdl.K_DOWN:   input.ButtonDown,
	sdl.K_LEFT:   input.ButtonLeft,
	sdl.K_RIGHT:  input.ButtonRight,
}

// Close releases every SDL2 resource Backend owns.
func (b *Backend) Close() {
	if b.audioDevice != 0 {
		sdl.CloseAudioDevice(b.audioDevice)
	}
	if b.texture != nil {
		b.texture.Destroy()
	}
	if b.renderer != nil {
		b.renderer.Destroy()
	}
	if b.window != nil {
		b.window.Destroy()
	}
	sdl.Quit()
}
