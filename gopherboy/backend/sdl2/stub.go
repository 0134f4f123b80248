//go:build !sdl2

// Package sdl2 stub: the real implementation requires SDL2 development
// libraries and the `sdl2` build tag. Default builds get this instead.
package sdl2

import "fmt"

// Backend stub for when SDL2 is not available.
type Backend struct{}

// New returns an error: build with -tags sdl2 to get the real backend.
func New(title string) (*Backend, error) {
	return nil, fmt.Errorf("sdl2 backend not available - build with -tags sdl2 and install SDL2 development libraries")
}

func (b *Backend) ClearScreen(uint32)         {}
func (b *Backend) DrawPixel(uint32, int, int) {}
func (b *Backend) PresentScreen()             {}
func (b *Backend) PushSample(int16, int16)    {}
func (b *Backend) PollEvents() bool           { return true }
func (b *Backend) Close()                     {}
