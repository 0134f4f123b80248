// Package headless implements a sink.VideoSink for automated runs and
// batch testing: it accumulates frames in a video.FrameBuffer and
// optionally dumps PNG snapshots at a fixed interval.
package headless

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopherboy/gopherboy/sink"
	"github.com/gopherboy/gopherboy/video"
)

var _ sink.VideoSink = (*Backend)(nil)

// SnapshotConfig controls periodic PNG dumps of the running frame.
type SnapshotConfig struct {
	Enabled   bool
	Interval  int // save every N presented frames
	Directory string
	ROMName   string
}

// Backend wraps a video.FrameBuffer and saves snapshots as frames are
// presented. Tests that need raw pixel access should use Frame directly.
type Backend struct {
	Frame    *video.FrameBuffer
	snapshot SnapshotConfig
	log      *slog.Logger
}

// New returns a Backend ready to receive frames; snapshot may be the
// zero value to disable PNG dumps entirely.
func New(snapshot SnapshotConfig, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		Frame:    video.NewFrameBuffer(),
		snapshot: snapshot,
		log:      logger,
	}
}

// CreateSnapshotConfig resolves a snapshot directory (a temp dir when
// directory is empty) and derives ROMName from romPath.
func CreateSnapshotConfig(interval int, directory, romPath string) (SnapshotConfig, error) {
	cfg := SnapshotConfig{Enabled: interval > 0, Interval: interval}
	if !cfg.Enabled {
		return cfg, nil
	}

	if directory == "" {
		tempDir, err := os.MkdirTemp("", "gopherboy-snapshots-*")
		if err != nil {
			return cfg, fmt.Errorf("headless: create snapshot dir: %w", err)
		}
		cfg.Directory = tempDir
	} else {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return cfg, fmt.Errorf("headless: create snapshot dir: %w", err)
		}
		cfg.Directory = directory
	}

	cfg.ROMName = strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath))
	return cfg, nil
}

// ClearScreen implements sink.VideoSink.
func (h *Backend) ClearScreen(rgba uint32) { h.Frame.ClearScreen(rgba) }

// DrawPixel implements sink.VideoSink.
func (h *Backend) DrawPixel(rgba uint32, x, y int) { h.Frame.DrawPixel(rgba, x, y) }

// PresentScreen implements sink.VideoSink, forwarding to the underlying
// FrameBuffer and saving a PNG snapshot every Interval frames.
func (h *Backend) PresentScreen() {
	h.Frame.PresentScreen()

	if h.snapshot.Enabled && h.Frame.Presented%h.snapshot.Interval == 0 {
		if err := h.saveSnapshot(); err != nil {
			h.log.Error("failed to save PNG snapshot", "frame", h.Frame.Presented, "error", err)
		}
	}
}

func (h *Backend) saveSnapshot() error {
	img := image.NewRGBA(image.Rect(0, 0, video.FramebufferWidth, video.FramebufferHeight))
	for i, px := range h.Frame.Pixels() {
		r := byte(px >> 24)
		g := byte(px >> 16)
		b := byte(px >> 8)
		a := byte(px)
		img.Set(i%video.FramebufferWidth, i/video.FramebufferWidth, color.RGBA{R: r, G: g, B: b, A: a})
	}

	name := fmt.Sprintf("%s_frame_%d_%s.png", h.snapshot.ROMName, h.Frame.Presented, time.Now().Format("20060102_150405"))
	f, err := os.Create(filepath.Join(h.snapshot.Directory, name))
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}
