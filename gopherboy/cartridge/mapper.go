package cartridge

import "fmt"

// Mapper translates addresses in the cartridge's two address windows
// (0x0000-0x7FFF ROM, 0xA000-0xBFFF external RAM) into bytes. It is the
// only entity in the core allowed to change its behavior based on a
// discriminant read once at construction time (the cartridge type code),
// so the tag lives here, not in the memory bus.
type Mapper interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	// RAM returns the battery-backed external RAM for save-file purposes.
	// Returns nil for mappers that carry none.
	RAM() []byte
}

// New builds the mapper variant a cartridge type code declares. rom is
// held by reference, never copied; callers must not mutate it afterwards.
func New(cartType uint8, rom []byte, ramBanks int) (Mapper, error) {
	switch cartType {
	case 0x00:
		return newNoMBC(rom, 0), nil
	case 0x08, 0x09:
		return newNoMBC(rom, ramBanks), nil
	case 0x01, 0x02, 0x03:
		return newMBC1(rom, ramBanks), nil
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		return newMBC3(rom, ramBanks), nil
	case 0x19, 0x1A, 0x1B:
		return nil, fmt.Errorf("cartridge: MBC5 (type 0x%02X) is not supported by this core", cartType)
	default:
		return nil, fmt.Errorf("cartridge: unsupported mapper type 0x%02X", cartType)
	}
}

// ramMask returns the bitmask for an external-RAM bank window sized n
// bytes, where n is always 0 or a power of two for every RAM bank count
// this core supports ({0,1,1,4,16,8} x 8KiB).
func ramMask(n int) int {
	if n == 0 {
		return 0
	}
	return n - 1
}

// noMBC serves a fixed, unswitched 32 KiB ROM and an optional single 8 KiB
// RAM bank gated by the standard enable latch.
type noMBC struct {
	rom        []byte
	ram        []byte
	ramEnabled bool
}

func newNoMBC(rom []byte, ramBanks int) *noMBC {
	m := &noMBC{rom: rom}
	if ramBanks > 0 {
		m.ram = make([]byte, 8*1024)
	}
	return m
}

func (m *noMBC) Read(address uint16) uint8 {
	switch {
	case address <= 0x7FFF:
		if int(address) < len(m.rom) {
			return m.rom[address]
		}
		return 0xFF
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		return m.ram[int(address-0xA000)&ramMask(len(m.ram))]
	default:
		return 0xFF
	}
}

func (m *noMBC) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case address >= 0xA000 && address <= 0xBFFF:
		if m.ramEnabled && len(m.ram) > 0 {
			m.ram[int(address-0xA000)&ramMask(len(m.ram))] = value
		}
	}
}

func (m *noMBC) RAM() []byte { return m.ram }
