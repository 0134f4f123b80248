package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCPU_stack(t *testing.T) {
	cpu, _ := newTestCPU()

	cpu.sp = 0xFFFF
	cpu.pushStack(0x0102)

	assert.Equal(t, uint16(0xFFFD), cpu.sp)

	popped := cpu.popStack()

	assert.Equal(t, uint16(0x0102), popped)
	assert.Equal(t, uint16(0xFFFF), cpu.sp)
}

func TestCPU_inc(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		reg   *uint8
		arg   uint8
		want  uint8
		flags uint8
	}{
		{desc: "increases", reg: &cpu.a, arg: 0x0A, want: 0x0B},
		{desc: "sets zero flag", reg: &cpu.a, arg: 0xFF, want: 0, flags: 1<<zeroFlag | 1<<halfCarryFlag},
		{desc: "sets half carry flag", reg: &cpu.a, arg: 0x0F, want: 0x10, flags: 1 << halfCarryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			*tC.reg = tC.arg
			cpu.inc(tC.reg)
			assert.Equal(t, tC.want, *tC.reg)
			assert.Equal(t, tC.flags, cpu.f)
		})
	}
}

func TestCPU_dec(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		reg   *uint8
		arg   uint8
		want  uint8
		flags uint8
	}{
		{desc: "decreases", reg: &cpu.a, arg: 0x0A, want: 0x09, flags: 1 << subFlag},
		{desc: "sets half carry flags", reg: &cpu.a, arg: 0, want: 0xFF, flags: 1<<subFlag | 1<<halfCarryFlag},
		{desc: "sets zero flag", reg: &cpu.a, arg: 0x01, want: 0, flags: 1<<subFlag | 1<<zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			*tC.reg = tC.arg
			cpu.dec(tC.reg)
			assert.Equal(t, tC.want, *tC.reg)
			assert.Equal(t, tC.flags, cpu.f)
		})
	}
}

func TestCPU_rlc(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		reg   *uint8
		arg   uint8
		want  uint8
		flags uint8
	}{
		{desc: "rotates left", reg: &cpu.a, arg: 0x01, want: 0x02},
		{desc: "sets carry flag", reg: &cpu.a, arg: 0x80, want: 0x01, flags: 1 << carryFlag},
		{desc: "sets zero flag", reg: &cpu.b, arg: 0, want: 0, flags: 1 << zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			*tC.reg = tC.arg
			cpu.rlc(tC.reg)
			assert.Equal(t, tC.want, *tC.reg)
			assert.Equalf(t, tC.flags, cpu.f, "flags don't match")
		})
	}
}

func TestCPU_rl(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc         string
		reg          *uint8
		arg          uint8
		want         uint8
		initialFlags uint8
		flags        uint8
	}{
		{desc: "rotates left", reg: &cpu.a, arg: 0x01, want: 0x02},
		{desc: "adds carry bit", reg: &cpu.a, arg: 0x01, want: 0x03, initialFlags: 1 << carryFlag},
		{desc: "sets carry flag", reg: &cpu.a, arg: 0x80, want: 0, flags: 1<<carryFlag | 1<<zeroFlag},
		{desc: "sets zero flag", reg: &cpu.b, arg: 0, want: 0, flags: 1 << zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = tC.initialFlags
			*tC.reg = tC.arg
			cpu.rl(tC.reg)
			assert.Equal(t, tC.want, *tC.reg)
			assert.Equalf(t, tC.flags, cpu.f, "flags don't match")
		})
	}
}

func TestCPU_rrc(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		reg   *uint8
		arg   uint8
		want  uint8
		flags uint8
	}{
		{desc: "rotates right", reg: &cpu.a, arg: 0x02, want: 0x01},
		{desc: "sets carry flag", reg: &cpu.a, arg: 0x01, want: 0x80, flags: 1 << carryFlag},
		{desc: "sets zero flag", reg: &cpu.b, arg: 0, want: 0, flags: 1 << zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			*tC.reg = tC.arg
			cpu.rrc(tC.reg)
			assert.Equal(t, tC.want, *tC.reg)
			assert.Equalf(t, tC.flags, cpu.f, "flags don't match")
		})
	}
}

func TestCPU_rr(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc         string
		reg          *uint8
		arg          uint8
		want         uint8
		initialFlags uint8
		flags        uint8
	}{
		{desc: "rotates right", reg: &cpu.a, arg: 0x02, want: 0x01},
		{desc: "adds carry bit", reg: &cpu.a, arg: 0x02, want: 0x81, initialFlags: 1 << carryFlag},
		{desc: "sets carry flag", reg: &cpu.a, arg: 1, want: 0, flags: 1<<carryFlag | 1<<zeroFlag},
		{desc: "sets zero flag", reg: &cpu.b, arg: 0, want: 0, flags: 1 << zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = tC.initialFlags
			*tC.reg = tC.arg
			cpu.rr(tC.reg)
			assert.Equal(t, tC.want, *tC.reg)
			assert.Equalf(t, tC.flags, cpu.f, "flags don't match")
		})
	}
}

// The non-CB accumulator rotates (RLCA/RRCA/RLA/RRA) share rlc/rl/rrc/rr
// with the CB-prefixed register forms, but must always clear the zero flag
// regardless of the rotated value — unlike their CB counterparts.
func TestOpcode_accumulatorRotatesAlwaysClearZero(t *testing.T) {
	cases := []struct {
		desc   string
		opcode uint8
	}{
		{desc: "RLCA", opcode: 0x07},
		{desc: "RRCA", opcode: 0x0F},
		{desc: "RLA", opcode: 0x17},
		{desc: "RRA", opcode: 0x1F},
	}
	for _, tC := range cases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu, bus := newTestCPU()
			cpu.pc = 0xC000
			cpu.a = 0
			bus.mem[0xC000] = tC.opcode

			cpu.Step()

			assert.False(t, cpu.isSetFlag(zeroFlag), "zero flag must stay clear")
		})
	}
}

func TestCPU_sla(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		reg   *uint8
		arg   uint8
		want  uint8
		flags uint8
	}{
		{desc: "shifts left", reg: &cpu.a, arg: 0x01, want: 0x02},
		{desc: "sets flags", reg: &cpu.a, arg: 0x80, want: 0, flags: 1<<carryFlag | 1<<zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			*tC.reg = tC.arg
			cpu.sla(tC.reg)
			assert.Equal(t, tC.want, *tC.reg)
			assert.Equalf(t, tC.flags, cpu.f, "flags don't match")
		})
	}
}

func TestCPU_sra(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		reg   *uint8
		arg   uint8
		want  uint8
		flags uint8
	}{
		{desc: "shifts right", reg: &cpu.a, arg: 0x22, want: 0x11},
		{desc: "preserves the MSb", reg: &cpu.a, arg: 0x82, want: 0xc1},
		{desc: "sets flags", reg: &cpu.a, arg: 1, want: 0, flags: 1<<carryFlag | 1<<zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			*tC.reg = tC.arg
			cpu.sra(tC.reg)
			assert.Equal(t, tC.want, *tC.reg)
			assert.Equalf(t, tC.flags, cpu.f, "flags don't match")
		})
	}
}

func TestCPU_srl(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		reg   *uint8
		arg   uint8
		want  uint8
		flags uint8
	}{
		{desc: "shifts right", reg: &cpu.a, arg: 0x88, want: 0x44},
		{desc: "sets flags", reg: &cpu.a, arg: 1, want: 0, flags: 1<<carryFlag | 1<<zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			*tC.reg = tC.arg
			cpu.srl(tC.reg)
			assert.Equal(t, tC.want, *tC.reg)
			assert.Equalf(t, tC.flags, cpu.f, "flags don't match")
		})
	}
}

func TestCPU_addToA(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		a     uint8
		arg   uint8
		want  uint8
		flags uint8
	}{
		{desc: "adds to register A", a: 0, arg: 0x0F, want: 0x0F},
		{desc: "sets half carry", a: 0x0F, arg: 0x0F, want: 0x1E, flags: 1 << halfCarryFlag},
		{desc: "sets carry", a: 0xFF, arg: 0x02, want: 1, flags: 1<<carryFlag | 1<<halfCarryFlag},
		{desc: "sets zero", a: 0xFF, arg: 0x01, want: 0, flags: 1<<zeroFlag | 1<<carryFlag | 1<<halfCarryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			cpu.a = tC.a
			cpu.addToA(tC.arg)
			assert.Equal(t, tC.want, cpu.a)
			assert.Equalf(t, tC.flags, cpu.f, "flags don't match")
		})
	}
}

func TestCPU_adc(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		carry bool
		a     uint8
		arg   uint8
		want  uint8
		flags uint8
	}{
		{desc: "adds to register A", a: 0, arg: 0x02, want: 0x02},
		{desc: "adds the carry flag", carry: true, a: 0, arg: 0x02, want: 0x03},
		{desc: "sets half carry", a: 0x0F, arg: 0x0F, want: 0x1E, flags: 1 << halfCarryFlag},
		{desc: "sets carry", a: 0xFF, arg: 0x02, want: 1, flags: 1<<carryFlag | 1<<halfCarryFlag},
		{desc: "sets zero", a: 0xFF, arg: 0x01, want: 0, flags: 1<<zeroFlag | 1<<carryFlag | 1<<halfCarryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			if tC.carry {
				cpu.setFlag(carryFlag)
			}
			cpu.a = tC.a
			cpu.adc(tC.arg)
			assert.Equal(t, tC.want, cpu.a)
			assert.Equalf(t, tC.flags, cpu.f, "flags don't match")
		})
	}
}

func TestCPU_addToHL(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		hl    uint16
		arg   uint16
		want  uint16
		flags uint8
	}{
		{desc: "adds to HL", hl: 0, arg: 0x0F, want: 0x0F},
		{desc: "sets half carry if bit 11 carries", hl: 0xFFF, arg: 0x01, want: 0x1000, flags: 1 << halfCarryFlag},
		{desc: "sets carry", hl: 0xFFFF, arg: 0x02, want: 1, flags: 1<<carryFlag | 1<<halfCarryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			cpu.setHL(tC.hl)
			cpu.addToHL(tC.arg)
			assert.Equal(t, tC.want, cpu.getHL())
			assert.Equalf(t, tC.flags, cpu.f, "flags don't match")
		})
	}
}

func TestCPU_sub(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		a     uint8
		arg   uint8
		want  uint8
		flags uint8
	}{
		{desc: "subtracts from A", a: 0x3, arg: 0x01, want: 0x02, flags: 1 << subFlag},
		{desc: "sets carry", a: 0, arg: 0x01, want: 0xFF, flags: 1<<subFlag | 1<<carryFlag | 1<<halfCarryFlag},
		{desc: "sets halfcarry", a: 0x10, arg: 0x01, want: 0x0F, flags: 1<<subFlag | 1<<halfCarryFlag},
		{desc: "sets zero", a: 0x1, arg: 0x01, want: 0, flags: 1<<subFlag | 1<<zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			cpu.a = tC.a
			cpu.sub(tC.arg)
			assert.Equal(t, tC.want, cpu.a)
			assert.Equalf(t, tC.flags, cpu.f, "flags don't match")
		})
	}
}

func TestCPU_sbc(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		carry bool
		a     uint8
		arg   uint8
		want  uint8
		flags uint8
	}{
		{desc: "subtracts from A", a: 0x3, arg: 0x01, want: 0x02, flags: 1 << subFlag},
		{desc: "uses carry value", carry: true, a: 0x3, arg: 0x01, want: 0x01, flags: 1 << subFlag},
		{desc: "sets carry", a: 0, arg: 0x01, want: 0xFF, flags: 1<<subFlag | 1<<carryFlag | 1<<halfCarryFlag},
		{desc: "sets halfcarry", a: 0x10, arg: 0x01, want: 0x0F, flags: 1<<subFlag | 1<<halfCarryFlag},
		{desc: "sets zero", a: 0x1, arg: 0x01, want: 0, flags: 1<<subFlag | 1<<zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			if tC.carry {
				cpu.setFlag(carryFlag)
			}
			cpu.a = tC.a
			cpu.sbc(tC.arg)
			assert.Equal(t, tC.want, cpu.a)
			assert.Equalf(t, tC.flags, cpu.f, "flags don't match")
		})
	}
}

func TestCPU_and(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		a     uint8
		arg   uint8
		want  uint8
		flags uint8
	}{
		{desc: "does bitwise and with A", a: 0x0F, arg: 0x44, want: 0x04, flags: 1 << halfCarryFlag},
		{desc: "sets zero flag", a: 0x0F, arg: 0x40, want: 0, flags: 1<<zeroFlag | 1<<halfCarryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			cpu.a = tC.a
			cpu.and(tC.arg)
			assert.Equal(t, tC.want, cpu.a)
			assert.Equalf(t, tC.flags, cpu.f, "flags don't match")
		})
	}
}

func TestCPU_or(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		a     uint8
		arg   uint8
		want  uint8
		flags uint8
	}{
		{desc: "does bitwise or with A", a: 0x40, arg: 0x04, want: 0x44},
		{desc: "sets zero flag", a: 0, arg: 0, want: 0, flags: 1 << zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			cpu.a = tC.a
			cpu.or(tC.arg)
			assert.Equal(t, tC.want, cpu.a)
			assert.Equalf(t, tC.flags, cpu.f, "flags don't match")
		})
	}
}

func TestCPU_xor(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		a     uint8
		arg   uint8
		want  uint8
		flags uint8
	}{
		{desc: "does bitwise xor with A", a: 0x0F, arg: 0x03, want: 0x0c},
		{desc: "sets zero flag", a: 0xFF, arg: 0xFF, want: 0, flags: 1 << zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			cpu.a = tC.a
			cpu.xor(tC.arg)
			assert.Equal(t, tC.want, cpu.a)
			assert.Equalf(t, tC.flags, cpu.f, "flags don't match")
		})
	}
}

func TestCPU_cp(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		a     uint8
		arg   uint8
		flags uint8
	}{
		{desc: "sets zero flag (a == n)", a: 0x0F, arg: 0x0F, flags: 1<<subFlag | 1<<zeroFlag},
		{desc: "sets carry flag (a < n)", a: 0x00, arg: 0x01, flags: 1<<subFlag | 1<<halfCarryFlag | 1<<carryFlag},
		{desc: "sets half carry flag", a: 0x10, arg: 0x01, flags: 1<<subFlag | 1<<halfCarryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			cpu.a = tC.a
			cpu.cp(tC.arg)
			assert.Equalf(t, tC.flags, cpu.f, "flags don't match")
		})
	}
}

func TestCPU_swap(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		reg   *uint8
		arg   uint8
		want  uint8
		flags uint8
	}{
		{desc: "swaps the given register", reg: &cpu.c, arg: 0xAB, want: 0xBA},
		{desc: "sets zero", reg: &cpu.b, arg: 0, want: 0, flags: 1 << zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			*tC.reg = tC.arg
			cpu.swap(tC.reg)
			assert.Equal(t, tC.want, *tC.reg)
			assert.Equalf(t, tC.flags, cpu.f, "flags don't match")
		})
	}
}

func TestCPU_daa(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc         string
		initialFlags uint8
		a            uint8
		want         uint8
		flags        uint8
	}{
		{desc: "sets zero flag", a: 0, want: 0, flags: 1 << zeroFlag},
		{desc: "(add) adds 0x06", a: 0x7d, want: 0x83},
		{desc: "(add) adds 0x60", a: 0xa1, want: 0x01, flags: 1 << carryFlag},
		{desc: "(add) adds 0x66", a: 0xaa, want: 0x10, flags: 1 << carryFlag},
		{desc: "(sub+half) removes 0x06", initialFlags: 1<<subFlag | 1<<halfCarryFlag, a: 0x83, want: 0x7d, flags: 1 << subFlag},
		{desc: "(sub+carry) removes 0x60", initialFlags: 1<<subFlag | 1<<carryFlag, a: 0xa1, want: 0x41, flags: 1<<subFlag | 1<<carryFlag},
		{desc: "(sub+carry+half) removes 0x66", initialFlags: 1<<subFlag | 1<<carryFlag | 1<<halfCarryFlag, a: 0x10, want: 0xaa, flags: 1<<subFlag | 1<<carryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = tC.initialFlags
			cpu.a = tC.a
			cpu.daa()
			assert.Equal(t, tC.want, cpu.a)
			assert.Equalf(t, tC.flags, cpu.f, "flags don't match")
		})
	}
}

func TestCPU_bit(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc    string
		initial uint8
		idx     uint8
		arg     uint8
		flags   uint8
	}{
		{desc: "sets zero flag", idx: 0, arg: 0xF0, flags: 1<<zeroFlag | 1<<halfCarryFlag},
		{desc: "resets zero flag", initial: 1 << zeroFlag, idx: 7, arg: 0x80, flags: 1 << halfCarryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = tC.initial
			cpu.bit(tC.idx, tC.arg)
			assert.Equalf(t, tC.flags, cpu.f, "flags don't match")
		})
	}
}

func TestCPU_set(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc string
		reg  *uint8
		idx  uint8
		arg  uint8
		want uint8
	}{
		{desc: "sets bit 0", reg: &cpu.a, idx: 0, arg: 0xf0, want: 0xf1},
		{desc: "sets bit 3", reg: &cpu.c, idx: 3, arg: 0xaa, want: 0xaa},
		{desc: "sets bit 4", reg: &cpu.c, idx: 4, arg: 0xaa, want: 0xba},
		{desc: "sets bit 7", reg: &cpu.b, idx: 7, arg: 0, want: 0x80},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			*tC.reg = tC.arg
			cpu.set(tC.idx, tC.reg)
			assert.Equal(t, tC.want, *tC.reg)
		})
	}
}

func TestCPU_res(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc string
		reg  *uint8
		idx  uint8
		arg  uint8
		want uint8
	}{
		{desc: "resets bit 0", reg: &cpu.a, idx: 0, arg: 0xf0, want: 0xf0},
		{desc: "resets bit 3", reg: &cpu.c, idx: 3, arg: 0xaa, want: 0xa2},
		{desc: "resets bit 4", reg: &cpu.c, idx: 4, arg: 0xba, want: 0xaa},
		{desc: "resets bit 7", reg: &cpu.b, idx: 7, arg: 0x80, want: 0},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			*tC.reg = tC.arg
			cpu.res(tC.idx, tC.reg)
			assert.Equal(t, tC.want, *tC.reg)
		})
	}
}

func TestCPU_jr(t *testing.T) {
	cpu, bus := newTestCPU()

	testCases := []struct {
		desc string
		n    uint8
		pc   uint16
		want uint16
	}{
		{desc: "jumps back", n: 0xFE, pc: 0xC000, want: 0xC000 - 2 + 1},
		{desc: "jumps back 16", n: 0xF0, pc: 0xC000, want: 0xC000 - 16 + 1},
		{desc: "jumps forward", n: 0x10, pc: 0xC000, want: 0xC000 + 16 + 1},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.pc = tC.pc
			bus.mem[cpu.pc] = tC.n
			cpu.jr()
			assert.Equal(t, tC.want, cpu.pc)
		})
	}
}
