// Package cpu implements the SM83 core: registers and flags, the fetch/
// decode/execute loop, HALT/STOP handling and interrupt dispatch.
package cpu

import (
	"log/slog"

	"github.com/gopherboy/gopherboy/addr"
	"github.com/gopherboy/gopherboy/bit"
)

// Flag bit positions within the F register.
const (
	zeroFlag      = 7
	subFlag       = 6
	halfCarryFlag = 5
	carryFlag     = 4
)

// memoryBus is the narrow interface the CPU needs from the system bus;
// satisfied by *bus.Bus. Kept as an interface so CPU tests can stub it.
type memoryBus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	IF() uint8
	IE() uint8
	AckInterrupt(i addr.Interrupt)
}

// CPU is the SM83 core driving a single DMG.
type CPU struct {
	a, b, c, d, e, h, l uint8
	f                   uint8
	sp, pc              uint16

	bus memoryBus

	currentOpcode uint16

	ime     bool
	eiDelay int // counts down to 0, then latches ime; set to 2 by EI
	halted  bool
	haltBug bool
	stopped bool

	log   *slog.Logger
	fault error // sticky; set by an illegal opcode, polled via Fault()
}

// New creates a CPU wired to the given bus, with registers in their
// post-boot-ROM DMG state.
func New(b memoryBus) *CPU {
	return &CPU{
		bus: b,
		a:   0x01, f: 0xB0,
		b: 0x00, c: 0x13,
		d: 0x00, e: 0xD8,
		h: 0x01, l: 0x4D,
		sp:  0xFFFE,
		pc:  0x0100,
		log: slog.Default(),
	}
}

// ResetToBootROM reinitializes the CPU to the pre-boot-ROM power-on state
// (all registers zeroed except SP) and starts fetching at 0x0000, for use
// when a boot ROM image is supplied and must run before the cartridge.
func (c *CPU) ResetToBootROM() {
	c.a, c.f = 0, 0
	c.b, c.c = 0, 0
	c.d, c.e = 0, 0
	c.h, c.l = 0, 0
	c.sp = 0xFFFE
	c.pc = 0x0000
	c.ime = false
	c.eiDelay = 0
	c.halted = false
	c.haltBug = false
	c.stopped = false
}

// SetLogger replaces the CPU's diagnostic logger; nil restores slog.Default.
func (c *CPU) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	c.log = logger
}

// Fault reports a sticky fatal condition detected inside Step (currently:
// an illegal opcode was decoded). The caller should stop driving run_for
// once this returns non-nil.
func (c *CPU) Fault() error { return c.fault }

// Step executes a single instruction, or services a pending interrupt, or
// idles one NOP-equivalent slot while halted/stopped. It returns the
// number of clock cycles consumed (4 per machine cycle).
func (c *CPU) Step() int {
	pending := c.bus.IF() & c.bus.IE() & 0x1F

	if pending != 0 {
		c.halted = false
		c.stopped = false
	}

	if c.ime && pending != 0 {
		cycles := c.serviceInterrupt(pending)
		c.tickEiDelay()
		return cycles
	}

	if c.halted || c.stopped {
		c.tickEiDelay()
		return 4
	}

	opcode := uint16(c.fetch())
	if opcode == 0xCB {
		opcode = 0xCB00 | uint16(c.fetch())
	}
	c.currentOpcode = opcode

	if c.haltBug {
		c.haltBug = false
		c.pc--
	}

	cycles := decode(opcode)(c)
	c.tickEiDelay()
	return cycles
}

// tickEiDelay advances the EI-delay countdown. EI arms it at 2; it must
// reach 0 only after the instruction following EI has fully executed, so
// the decrement happens once at the end of the EI step itself and once
// at the end of the next step, latching ime on the second.
func (c *CPU) tickEiDelay() {
	if c.eiDelay == 0 {
		return
	}
	c.eiDelay--
	if c.eiDelay == 0 {
		c.ime = true
	}
}

// serviceInterrupt pushes pc, jumps to the lowest-numbered pending
// interrupt's vector, clears IME and acknowledges the serviced bit.
func (c *CPU) serviceInterrupt(pending uint8) int {
	for _, i := range addr.Ordered {
		if pending&uint8(i) == 0 {
			continue
		}
		c.ime = false
		c.bus.AckInterrupt(i)
		c.pushStack(c.pc)
		c.pc = i.Vector()
		return 20
	}
	return 0
}

func (c *CPU) fetch() uint8 {
	v := c.bus.Read(c.pc)
	c.pc++
	return v
}

// readImmediate reads the byte following the opcode and advances pc past it.
func (c *CPU) readImmediate() uint8 {
	return c.fetch()
}

// readImmediateWord reads the little-endian word following the opcode and
// advances pc past it.
func (c *CPU) readImmediateWord() uint16 {
	low := c.fetch()
	high := c.fetch()
	return bit.Combine(high, low)
}

// readSignedImmediate reads the byte following the opcode as a signed
// displacement and advances pc past it.
func (c *CPU) readSignedImmediate() int8 {
	return int8(c.fetch())
}

func (c *CPU) setFlag(flag uint8)   { c.f = bit.Set(flag, c.f) }
func (c *CPU) resetFlag(flag uint8) { c.f = bit.Clear(flag, c.f) }
func (c *CPU) isSetFlag(flag uint8) bool {
	return bit.IsSet(flag, c.f)
}

func (c *CPU) setFlagToCondition(flag uint8, condition bool) {
	if condition {
		c.setFlag(flag)
	} else {
		c.resetFlag(flag)
	}
}

func (c *CPU) flagToBit(flag uint8) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

func (c *CPU) getBC() uint16 { return bit.Combine(c.b, c.c) }
func (c *CPU) setBC(v uint16) {
	c.b = bit.High(v)
	c.c = bit.Low(v)
}

func (c *CPU) getDE() uint16 { return bit.Combine(c.d, c.e) }
func (c *CPU) setDE(v uint16) {
	c.d = bit.High(v)
	c.e = bit.Low(v)
}

func (c *CPU) getHL() uint16 { return bit.Combine(c.h, c.l) }
func (c *CPU) setHL(v uint16) {
	c.h = bit.High(v)
	c.l = bit.Low(v)
}

func (c *CPU) getAF() uint16 { return bit.Combine(c.a, c.f&0xF0) }
func (c *CPU) setAF(v uint16) {
	c.a = bit.High(v)
	c.f = bit.Low(v) & 0xF0
}
