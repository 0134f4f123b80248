package cpu

import (
	"testing"

	"github.com/gopherboy/gopherboy/addr"
	"github.com/stretchr/testify/assert"
)

func TestInterruptHandling(t *testing.T) {
	t.Run("interrupts disabled by default", func(t *testing.T) {
		cpu, bus := newTestCPU()
		bus.ifReg = 0x01
		bus.ieReg = 0x01

		cpu.Step()

		assert.Equal(t, uint16(0x101), cpu.pc) // NOP at the reset vector executed, no dispatch
	})

	t.Run("EI enables interrupts with delay", func(t *testing.T) {
		cpu, bus := newTestCPU()
		cpu.pc = 0xC000
		bus.mem[0xC000] = 0xFB // EI
		bus.mem[0xC001] = 0x00 // NOP
		bus.mem[0xC002] = 0x00 // NOP

		cpu.Step() // executes EI; ime must not be set yet
		assert.False(t, cpu.ime)

		cpu.Step() // executes the instruction right after EI
		assert.True(t, cpu.ime)
	})

	t.Run("DI disables interrupts immediately", func(t *testing.T) {
		cpu, bus := newTestCPU()
		cpu.ime = true
		cpu.pc = 0xC000
		bus.mem[0xC000] = 0xF3 // DI

		cpu.Step()

		assert.False(t, cpu.ime)
	})

	t.Run("interrupt priority picks the lowest pending bit", func(t *testing.T) {
		cpu, bus := newTestCPU()
		cpu.ime = true
		bus.ifReg = 0x1F
		bus.ieReg = 0x1F

		cpu.Step()

		assert.Equal(t, addr.VBlank.Vector(), cpu.pc)
		assert.Equal(t, uint8(0x1E), bus.ifReg)
	})

	t.Run("RETI enables interrupts and returns", func(t *testing.T) {
		cpu, bus := newTestCPU()
		cpu.ime = false
		cpu.sp = 0xFFFE
		cpu.pc = 0xC200
		cpu.pushStack(0xC150)
		bus.mem[0xC200] = 0xD9 // RETI

		cpu.Step()

		assert.True(t, cpu.ime)
		assert.Equal(t, uint16(0xC150), cpu.pc)
	})
}

func TestHALTBehavior(t *testing.T) {
	t.Run("HALT with IME=1 wakes and services the pending interrupt", func(t *testing.T) {
		cpu, bus := newTestCPU()
		cpu.ime = true
		cpu.pc = 0xC000
		bus.mem[0xC000] = 0x76 // HALT

		cpu.Step()
		assert.True(t, cpu.halted)

		bus.ifReg = 0x01
		bus.ieReg = 0x01

		cpu.Step()

		assert.False(t, cpu.halted)
		assert.Equal(t, addr.VBlank.Vector(), cpu.pc)
	})

	t.Run("HALT with IME=0 and a pending interrupt sets the halt bug", func(t *testing.T) {
		cpu, bus := newTestCPU()
		cpu.ime = false
		cpu.pc = 0xC000
		bus.ifReg = 0x01
		bus.ieReg = 0x01
		bus.mem[0xC000] = 0x76 // HALT

		cpu.Step()

		assert.False(t, cpu.halted)
		assert.True(t, cpu.haltBug)
	})

	t.Run("HALT with IME=0 and no pending interrupt stays halted", func(t *testing.T) {
		cpu, bus := newTestCPU()
		cpu.ime = false
		cpu.pc = 0xC000
		bus.mem[0xC000] = 0x76 // HALT
		bus.ieReg = 0x01
		bus.ifReg = 0x00

		cpu.Step()
		assert.True(t, cpu.halted)

		cpu.Step()
		assert.True(t, cpu.halted)
	})
}

func TestInterruptTiming(t *testing.T) {
	t.Run("interrupt dispatch takes 20 cycles", func(t *testing.T) {
		cpu, bus := newTestCPU()
		cpu.ime = true
		bus.ifReg = 0x01
		bus.ieReg = 0x01

		cycles := cpu.Step()

		assert.Equal(t, 20, cycles)
	})
}
