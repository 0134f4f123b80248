// Package gopherboy wires a cartridge, CPU, memory bus, PPU, APU, timer
// and serial port together behind a single Machine, driven entirely
// through RunFor. It owns no I/O of its own: ROM bytes, save-RAM bytes
// and every sink are handed in by the caller, matching the teacher's
// dependency-injected component style.
package gopherboy

import (
	"fmt"
	"log/slog"

	"github.com/gopherboy/gopherboy/addr"
	"github.com/gopherboy/gopherboy/audio"
	"github.com/gopherboy/gopherboy/bus"
	"github.com/gopherboy/gopherboy/cartridge"
	"github.com/gopherboy/gopherboy/cpu"
	"github.com/gopherboy/gopherboy/scheduler"
	"github.com/gopherboy/gopherboy/serial"
	"github.com/gopherboy/gopherboy/sink"
	"github.com/gopherboy/gopherboy/timer"
	"github.com/gopherboy/gopherboy/video"
)

// Model selects which hardware generation a Configuration targets. CGB
// rendering itself is out of scope; the only observable effect of
// requesting it is a diagnostic log line, since every component always
// runs in DMG compatibility mode.
type Model uint8

const (
	ModelDMG Model = iota
	ModelCGB
)

func (m Model) String() string {
	if m == ModelCGB {
		return "CGB"
	}
	return "DMG"
}

// Configuration holds every knob the core itself consults, plus the
// ambient fields a CLI driver reads to pick a backend and a ROM before
// ever touching the core.
type Configuration struct {
	// Model is the hardware generation to report as detected/requested.
	Model Model
	// ForceModel, if true, uses Model as-is instead of auto-detecting
	// from the cartridge header's CGB-support flag.
	ForceModel bool
	// SaveLoadRAM tells the driver whether to load/persist battery-backed
	// save RAM; the core never touches the filesystem itself.
	SaveLoadRAM bool
	// StubLY forces PPU LY reads to 0x90, for deterministic headless runs
	// of test ROMs that busy-wait on a specific scanline.
	StubLY bool
	// BootROM, if non-nil, must be exactly 256 bytes; when present the
	// CPU starts at the pre-boot power-on state and executes it before
	// falling through to the cartridge at 0x0100.
	BootROM []byte

	// Ambient, consumed only by the CLI driver.
	RomPath  string
	Headless bool
	Backend  string // "sdl2" | "tcell" | "headless"
	LogLevel slog.Level
}

// Machine wires every component together and exposes the single
// `run_for`-shaped entry point the rest of the driver calls.
type Machine struct {
	CPU   *cpu.CPU
	Bus   *bus.Bus
	PPU   *video.PPU
	APU   *audio.APU
	Timer *timer.Timer
	Cart  *cartridge.Cartridge
	Serial *serial.LogSink

	scheduler *scheduler.Scheduler
	cfg       Configuration
	log       *slog.Logger
	audioSink sink.AudioSink
}

// New loads rom, builds every component per cfg, and wires them through a
// Scheduler. video/audioSink/input may be nil, in which case the
// corresponding sink.Nop* implementation is used. logger defaults to
// slog.Default() if nil.
func New(rom []byte, cfg Configuration, logger *slog.Logger, videoSink sink.VideoSink, audioSink sink.AudioSink, input sink.InputSource) (*Machine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if videoSink == nil {
		videoSink = sink.NopVideoSink{}
	}
	if audioSink == nil {
		audioSink = sink.NopAudioSink{}
	}
	if input == nil {
		input = sink.NopInputSource{}
	}

	cart, err := cartridge.Load(rom)
	if err != nil {
		return nil, err
	}

	reportModel(cfg, cart.Header, logger)

	b := bus.New()
	ppu := video.New()
	ppu.StubLY = cfg.StubLY
	ppu.Sink = videoSink
	ppu.RequestInterrupt = b.RequestInterrupt

	tm := timer.New()
	tm.RequestInterrupt = b.RequestInterrupt

	apu := audio.New()

	ser := serial.NewLogSink(func() { b.RequestInterrupt(addr.Serial) }, serial.WithFixedTiming())

	b.Cart = cart
	b.PPU = ppu
	b.APU = apu
	b.Timer = tm
	b.Serial = ser
	b.Input = input
	if cfg.BootROM != nil {
		if len(cfg.BootROM) != 256 {
			return nil, fmt.Errorf("gopherboy: boot ROM must be exactly 256 bytes, got %d", len(cfg.BootROM))
		}
		b.SetBootROM(cfg.BootROM)
	}

	c := cpu.New(b)
	c.SetLogger(logger)
	if cfg.BootROM != nil {
		c.ResetToBootROM()
	}

	ppuStep := func() {
		// One scheduler "machine cycle" is 4 of the T-cycle-granular
		// ticks PPU/Timer/APU/Serial already use internally; DMA copies
		// exactly one byte per machine cycle, matching real hardware.
		ppu.Tick(4)
		tm.Tick(4)
		apu.Tick(4)
		ser.Tick(4)
		b.Tick(1)
	}

	m := &Machine{
		CPU:       c,
		Bus:       b,
		PPU:       ppu,
		APU:       apu,
		Timer:     tm,
		Cart:      cart,
		Serial:    ser,
		scheduler: scheduler.New(c.Step, ppuStep),
		cfg:       cfg,
		log:       logger,
		audioSink: audioSink,
	}

	logger.Info("loaded cartridge", "title", cart.Header.Title, "mapper", fmt.Sprintf("0x%02X", cart.Header.CartridgeType), "rom_banks", cart.Header.ROMBanks(), "ram_banks", cart.Header.RAMBanks())

	return m, nil
}

func reportModel(cfg Configuration, h cartridge.Header, logger *slog.Logger) {
	if cfg.ForceModel && cfg.Model == ModelCGB {
		logger.Warn("CGB requested but not implemented; running in DMG compatibility mode")
		return
	}
	if !cfg.ForceModel && h.CGBSupported {
		logger.Info("cartridge declares CGB support; running in DMG compatibility mode")
	}
}

// RunFor advances the machine by cycles CPU/PPU-peripheral cycles and
// drains any audio samples the APU produced along the way to the
// configured AudioSink. It never blocks, never allocates on its hot path
// beyond what GetSamples itself needs, and never returns an error: fatal
// conditions are surfaced through Fault, polled separately.
func (m *Machine) RunFor(cycles uint64) {
	m.scheduler.RunFor(cycles)
	m.drainAudio()
}

func (m *Machine) drainAudio() {
	pending := m.APU.PendingSamples()
	if pending == 0 {
		return
	}
	samples := m.APU.GetSamples(pending)
	for i := 0; i+1 < len(samples); i += 2 {
		m.audioSink.PushSample(samples[i], samples[i+1])
	}
}

// Fault reports the first sticky fatal condition (§7 error kinds 3-4)
// detected inside a step since construction, or nil if none occurred.
// The driver should stop calling RunFor once this returns non-nil.
func (m *Machine) Fault() error {
	return m.CPU.Fault()
}

// SaveRAM returns the cartridge's battery-backed external RAM, or nil if
// it carries none. The driver is responsible for writing it to disk.
func (m *Machine) SaveRAM() []byte {
	return m.Cart.SaveRAM()
}

// LoadSaveRAM restores previously persisted save RAM; see
// cartridge.Cartridge.LoadSaveRAM for the size-mismatch error (§7 kind 2).
func (m *Machine) LoadSaveRAM(data []byte) error {
	return m.Cart.LoadSaveRAM(data)
}
