package cartridge

// mbc3 implements the MBC1-successor banking scheme used by type codes
// 0x0F-0x13: a 7-bit ROM bank register and a selector that picks either
// one of 4 RAM banks or one of the RTC shadow registers (0x08-0x0C). The
// RTC itself is a non-goal (§1) and is stubbed: reads return 0xFF, writes
// are accepted and discarded, and the "latch clock data" register
// (0x6000-0x7FFF) is a no-op.
type mbc3 struct {
	rom []byte
	ram []byte

	ramEnabled bool
	romBank    uint8
	ramOrRTC   uint8 // 0-3: RAM bank. 0x08-0x0C: RTC register select.
}

func newMBC3(rom []byte, ramBanks int) *mbc3 {
	m := &mbc3{rom: rom, romBank: 1}
	if ramBanks > 0 {
		m.ram = make([]byte, ramBanks*8*1024)
	}
	return m
}

func (m *mbc3) romBankCount() int {
	return len(m.rom) / (16 * 1024)
}

func (m *mbc3) usingRTC() bool {
	return m.ramOrRTC >= 0x08 && m.ramOrRTC <= 0x0C
}

func (m *mbc3) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		if int(address) < len(m.rom) {
			return m.rom[address]
		}
		return 0xFF
	case address >= 0x4000 && address <= 0x7FFF:
		banks := m.romBankCount()
		if banks == 0 {
			return 0xFF
		}
		bank := int(m.romBank) & (banks - 1)
		idx := bank*16*1024 + int(address-0x4000)
		if idx >= len(m.rom) {
			return 0xFF
		}
		return m.rom[idx]
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if m.usingRTC() {
			return 0xFF
		}
		if len(m.ram) == 0 {
			return 0xFF
		}
		offset := int(m.ramOrRTC)*0x2000 + int(address-0xA000)
		return m.ram[offset&ramMask(len(m.ram))]
	default:
		return 0xFF
	}
}

func (m *mbc3) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case address >= 0x2000 && address <= 0x3FFF:
		value &= 0x7F
		if value == 0 {
			value = 1
		}
		m.romBank = value
	case address >= 0x4000 && address <= 0x5FFF:
		m.ramOrRTC = value
	case address >= 0x6000 && address <= 0x7FFF:
		// Latch clock data: RTC is stubbed, nothing to latch.
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || m.usingRTC() || len(m.ram) == 0 {
			return
		}
		offset := int(m.ramOrRTC)*0x2000 + int(address-0xA000)
		m.ram[offset&ramMask(len(m.ram))] = value
	}
}

func (m *mbc3) RAM() []byte { return m.ram }
