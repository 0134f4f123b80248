package bus

import (
	"testing"

	"github.com/gopherboy/gopherboy/addr"
	"github.com/gopherboy/gopherboy/cartridge"
	"github.com/gopherboy/gopherboy/serial"
	"github.com/gopherboy/gopherboy/timer"
	"github.com/gopherboy/gopherboy/video"
)

type fakeAPU struct{ regs [0x30]uint8 }

func (f *fakeAPU) ReadRegister(a uint16) uint8        { return f.regs[a-addr.AudioStart] }
func (f *fakeAPU) WriteRegister(a uint16, v uint8)    { f.regs[a-addr.AudioStart] = v }
func (f *fakeAPU) Tick(int)                            {}

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	b := New()
	rom := make([]byte, 0x8000)
	cart, err := cartridge.Load(rom)
	if err != nil {
		t.Fatal(err)
	}
	b.Cart = cart
	b.PPU = video.New()
	b.APU = &fakeAPU{}
	b.Timer = timer.New()
	b.Serial = serial.NewLogSink(func() { b.RequestInterrupt(addr.Serial) })
	return b
}

func TestWRAMAndEchoAlias(t *testing.T) {
	b := newTestBus(t)
	b.Write(0xC010, 0x42)
	if got := b.Read(0xE010); got != 0x42 {
		t.Fatalf("echo read = 0x%02X, want 0x42", got)
	}
}

func TestOAMBlockedDuringDMA(t *testing.T) {
	b := newTestBus(t)
	b.Write(0xC000, 0xAB) // source byte in WRAM
	b.Write(0xFF46, 0xC0) // DMA source = 0xC000

	if got := b.Read(0xFE00); got != 0xFF {
		t.Fatalf("OAM read mid-DMA = 0x%02X, want 0xFF", got)
	}
	b.Write(0xFE01, 0x99) // dropped
	for i := 0; i < 160; i++ {
		b.Tick(1)
	}
	if got := b.PPU.ReadOAM(0xFE00); got != 0xAB {
		t.Fatalf("OAM[0] after DMA = 0x%02X, want 0xAB", got)
	}
	if got := b.Read(0xFE01); got == 0x99 {
		t.Fatal("write during DMA should have been dropped")
	}
}

func TestDMATakesExactly160Cycles(t *testing.T) {
	b := newTestBus(t)
	b.Write(0xFF46, 0xC0)
	for i := 0; i < 159; i++ {
		b.Tick(1)
	}
	if got := b.Read(0xFE00); got != 0xFF {
		t.Fatal("DMA should still be active after 159 cycles")
	}
	b.Tick(1)
	if got := b.Read(0xFE00); got == 0xFF {
		t.Fatal("DMA should have completed after 160 cycles")
	}
}

func TestIFTopBitsAlwaysReadAsSet(t *testing.T) {
	b := newTestBus(t)
	b.Write(addr.IF, 0x00)
	if got := b.Read(addr.IF); got&0xE0 != 0xE0 {
		t.Fatalf("IF top bits = 0x%02X, want 0xE0 set", got)
	}
}
