package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"

	"github.com/gopherboy/gopherboy"
	"github.com/gopherboy/gopherboy/backend/headless"
	"github.com/gopherboy/gopherboy/backend/sdl2"
	"github.com/gopherboy/gopherboy/backend/terminal"
	"github.com/gopherboy/gopherboy/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "gopherboy"
	app.Description = "A cycle-driven Game Boy emulator core"
	app.Usage = "gopherboy [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "boot-rom, b",
			Usage: "Path to a 256-byte DMG boot ROM image",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without a window, for batch/test-ROM use",
		},
		cli.BoolFlag{
			Name:  "stub-ly",
			Usage: "Force LY reads to 0x90 (for busy-wait test ROMs)",
		},
		cli.BoolFlag{
			Name:  "no-save",
			Usage: "Disable save-RAM load/persist",
		},
		cli.StringFlag{
			Name:  "force-model, f",
			Usage: "Force the hardware model to report (DMG|CGB) instead of auto-detecting",
		},
		cli.StringFlag{
			Name:  "backend",
			Usage: "Video backend: sdl2, tcell or headless",
			Value: "tcell",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (0 = run until an emulation fault)",
			Value: 0,
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "In headless mode, save a PNG snapshot every N frames (0 = disabled)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory for headless snapshots (default: temp directory)",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("gopherboy exited with an error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	romPath := c.Args().First()
	if romPath == "" {
		cli.ShowAppHelp(c)
		return errors.New("no ROM path provided")
	}

	rom, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("reading ROM: %w", err)
	}

	cfg := gopherboy.Configuration{
		StubLY:      c.Bool("stub-ly"),
		SaveLoadRAM: !c.Bool("no-save"),
		RomPath:     romPath,
		Headless:    c.Bool("headless"),
		Backend:     c.String("backend"),
	}

	if model := c.String("force-model"); model != "" {
		cfg.ForceModel = true
		switch strings.ToUpper(model) {
		case "CGB":
			cfg.Model = gopherboy.ModelCGB
		case "DMG":
			cfg.Model = gopherboy.ModelDMG
		default:
			return fmt.Errorf("unknown --force-model value %q, want DMG or CGB", model)
		}
	}

	if bootPath := c.String("boot-rom"); bootPath != "" {
		boot, err := os.ReadFile(bootPath)
		if err != nil {
			return fmt.Errorf("reading boot ROM: %w", err)
		}
		cfg.BootROM = boot
	}

	if cfg.Headless || cfg.Backend == "headless" {
		return runHeadless(c, rom, cfg, romPath)
	}
	return runInteractive(rom, cfg)
}

func runHeadless(c *cli.Context, rom []byte, cfg gopherboy.Configuration, romPath string) error {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(handler)

	snapshotCfg, err := headless.CreateSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"), romPath)
	if err != nil {
		return err
	}
	video := headless.New(snapshotCfg, logger)

	m, err := gopherboy.New(rom, cfg, logger, video, nil, nil)
	if err != nil {
		return err
	}
	if err := loadSaveRAM(m, cfg, romPath); err != nil {
		return err
	}

	frames := c.Int("frames")
	logger.Info("running headless", "frames", frames, "rom", romPath)

	for i := 0; frames == 0 || i < frames; i++ {
		m.RunFor(timing.CyclesPerFrame)
		if err := m.Fault(); err != nil {
			return fmt.Errorf("emulation fault at frame %d: %w", i, err)
		}
		if i%60 == 0 {
			logger.Info("frame progress", "completed", i)
		}
	}

	return persistSaveRAM(m, cfg, romPath)
}

func runInteractive(rom []byte, cfg gopherboy.Configuration) error {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(handler)

	switch cfg.Backend {
	case "sdl2":
		return runWithSDL2(rom, cfg, logger)
	case "tcell", "":
		return runWithTerminal(rom, cfg, logger)
	default:
		return fmt.Errorf("unknown --backend %q, want sdl2, tcell or headless", cfg.Backend)
	}
}

func runWithSDL2(rom []byte, cfg gopherboy.Configuration, logger *slog.Logger) error {
	be, err := sdl2.New("gopherboy")
	if err != nil {
		return err
	}
	defer be.Close()

	m, err := gopherboy.New(rom, cfg, logger, be, be, be.Joypad)
	if err != nil {
		return err
	}
	if err := loadSaveRAM(m, cfg, cfg.RomPath); err != nil {
		return err
	}

	limiter := timing.NewTickerLimiter()
	for {
		if be.PollEvents() {
			break
		}
		m.RunFor(timing.CyclesPerFrame)
		if err := m.Fault(); err != nil {
			logger.Error("emulation fault", "error", err)
			break
		}
		limiter.WaitForNextFrame()
	}

	return persistSaveRAM(m, cfg, cfg.RomPath)
}

func runWithTerminal(rom []byte, cfg gopherboy.Configuration, logger *slog.Logger) error {
	be, err := terminal.New()
	if err != nil {
		return err
	}
	defer be.Close()

	m, err := gopherboy.New(rom, cfg, logger, be, nil, be.Joypad)
	if err != nil {
		return err
	}
	if err := loadSaveRAM(m, cfg, cfg.RomPath); err != nil {
		return err
	}

	limiter := timing.NewTickerLimiter()
	for {
		if be.PollEvents() {
			break
		}
		m.RunFor(timing.CyclesPerFrame)
		if err := m.Fault(); err != nil {
			logger.Error("emulation fault", "error", err)
			break
		}
		limiter.WaitForNextFrame()
	}

	return persistSaveRAM(m, cfg, cfg.RomPath)
}

func saveFilePath(romPath string) string {
	ext := filepath.Ext(romPath)
	return strings.TrimSuffix(romPath, ext) + ".sav"
}

func loadSaveRAM(m *gopherboy.Machine, cfg gopherboy.Configuration, romPath string) error {
	if !cfg.SaveLoadRAM {
		return nil
	}
	data, err := os.ReadFile(saveFilePath(romPath))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading save RAM: %w", err)
	}
	return m.LoadSaveRAM(data)
}

func persistSaveRAM(m *gopherboy.Machine, cfg gopherboy.Configuration, romPath string) error {
	if !cfg.SaveLoadRAM {
		return nil
	}
	data := m.SaveRAM()
	if data == nil {
		return nil
	}
	return os.WriteFile(saveFilePath(romPath), data, 0o644)
}
