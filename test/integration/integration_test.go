// Package integration drives gopherboy.Machine end to end against each of
// the hardware-level scenarios: timer rate, VBlank cadence, OAM DMA,
// background rendering and MBC1 banking.
package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopherboy/gopherboy"
	"github.com/gopherboy/gopherboy/addr"
	"github.com/gopherboy/gopherboy/timing"
	"github.com/gopherboy/gopherboy/video"
)

// buildROM returns a minimal cartridge image of exactly
// banks*16*1024 bytes: an infinite-loop program at the entry point (so
// the CPU never interferes with whatever the test pokes at over the
// bus) and a header declaring cartType/romSizeCode/ramSizeCode.
func buildROM(banks int, romSizeCode, ramSizeCode, cartType byte) []byte {
	rom := make([]byte, banks*16*1024)
	rom[0x100] = 0x00 // NOP
	rom[0x101] = 0x18 // JR -2 (self-loop)
	rom[0x102] = 0xFE
	rom[0x147] = cartType
	rom[0x148] = romSizeCode
	rom[0x149] = ramSizeCode
	return rom
}

func newMachine(t *testing.T, rom []byte) *gopherboy.Machine {
	t.Helper()
	m, err := gopherboy.New(rom, gopherboy.Configuration{}, nil, nil, nil, nil)
	require.NoError(t, err)
	return m
}

// Scenario 2: timer rate. TAC=0x04 (enable, 4096 Hz), TMA=0xFF, TIMA=0xFF.
// After exactly 1024 machine cycles, IF bit 2 (Timer) is set and TIMA has
// reloaded from TMA.
func TestTimerRateRequestsInterruptAfter1024Cycles(t *testing.T) {
	m := newMachine(t, buildROM(2, 0, 0, 0x00))

	m.Bus.Write(addr.TMA, 0xFF)
	m.Bus.Write(addr.TIMA, 0xFF)
	m.Bus.Write(addr.TAC, 0x04)

	m.RunFor(1024)

	assert.NotZero(t, m.Bus.IF()&uint8(addr.Timer), "Timer interrupt should be requested after 1024 cycles")
	assert.Equal(t, uint8(0xFF), m.Bus.Read(addr.TIMA), "TIMA should have reloaded from TMA")
}

// Scenario 3: VBlank cadence. With the LCD enabled and default registers,
// the VBlank interrupt fires every 70,224 machine cycles.
func TestVBlankFiresEveryFrame(t *testing.T) {
	m := newMachine(t, buildROM(2, 0, 0, 0x00))
	m.Bus.Write(addr.LCDC, 0x91)

	for frame := 0; frame < 3; frame++ {
		m.RunFor(timing.CyclesPerFrame)
		assert.NotZero(t, m.Bus.IF()&uint8(addr.VBlank), "VBlank should be requested by frame %d", frame)
		m.Bus.AckInterrupt(addr.VBlank)
	}
}

// Scenario 4: OAM DMA. Writing the DMA register copies 160 bytes from
// (value<<8) to OAM, one byte per machine cycle.
func TestOAMDMACopiesWorkRAM(t *testing.T) {
	m := newMachine(t, buildROM(2, 0, 0, 0x00))

	for i := 0; i < 160; i++ {
		m.Bus.Write(0xC000+uint16(i), uint8(i))
	}

	m.Bus.Write(addr.DMA, 0xC0)
	m.RunFor(160)

	for i := 0; i < 160; i++ {
		got := m.Bus.Read(0xFE00 + uint16(i))
		assert.Equal(t, uint8(i), got, "OAM byte %d mismatch after DMA", i)
	}
}

// Scenario 5: background render. LCDC=0x91, BGP=0xE4, SCX=SCY=0, tile 0 at
// 0x8000 holds a checkerboard row, tile map 0x9800 is all zeros (every
// tile is tile 0): the first scanline alternates shade 3 (dark) and
// shade 0 (white).
func TestBackgroundRenderAlternatesShades(t *testing.T) {
	m := newMachine(t, buildROM(2, 0, 0, 0x00))

	fb := video.NewFrameBuffer()
	m.PPU.Sink = fb

	m.Bus.Write(addr.BGP, 0xE4)
	m.Bus.Write(addr.SCX, 0)
	m.Bus.Write(addr.SCY, 0)
	// Tile 0, row 0: both bit-planes 0xAA -> color index alternates 3,0,3,0...
	m.Bus.Write(addr.TileData0, 0xAA)
	m.Bus.Write(addr.TileData0+1, 0xAA)
	// Tile map 0x9800 defaults to zero (tile 0 everywhere); nothing to write.
	m.Bus.Write(addr.LCDC, 0x91)

	m.RunFor(500)

	for x := 0; x < 160; x++ {
		want := uint32(video.WhiteColor)
		if x%2 == 0 {
			want = uint32(video.BlackColor)
		}
		assert.Equal(t, want, fb.Pixel(x, 0), "pixel (%d,0) shade mismatch", x)
	}
}

// Scenario 6: MBC1 banking. A 1 MiB ROM (64 16KiB banks) whose bank N's
// first byte equals N; after writing N to the bank-select register,
// reading 0x4000 returns the byte belonging to whichever bank the
// documented "write is OR'd with 1 when its low 5 bits are zero, then
// masked to the ROM's bank count" quirk actually selects.
func TestMBC1BankSelection(t *testing.T) {
	const banks = 64
	rom := buildROM(banks, 5, 0, 0x01)
	for n := 0; n < banks; n++ {
		rom[n*16*1024] = byte(n)
	}
	m := newMachine(t, rom)

	expectedBank := func(write uint8) uint8 {
		v := write
		if v&0x1F == 0 {
			v |= 0x01
		}
		return v & (banks - 1)
	}

	for _, n := range []uint8{0x00, 0x01, 0x02, 0x1F, 0x20, 0x3F} {
		m.Bus.Write(0x2000, n)
		got := m.Bus.Read(0x4000)
		assert.Equal(t, expectedBank(n), got, "bank select %#02x", n)
	}
}
