package cartridge

import "fmt"

// Cartridge bundles a parsed header with the mapper it selects. It is
// constructed once per loaded ROM file and never mutated structurally
// afterwards (only the mapper's internal banking state changes).
type Cartridge struct {
	Header Header
	Mapper Mapper
}

// Load parses a ROM image and builds its mapper. It rejects images that
// are missing, oversized, or declare a cartridge type this core does not
// support (§7, error kind 1); every other malformed-header byte is read
// as-is and never rejected, since the hardware itself doesn't validate.
func Load(data []byte) (*Cartridge, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cartridge: empty ROM image")
	}
	if len(data) > MaxROMSize {
		return nil, fmt.Errorf("cartridge: ROM image too large (%d bytes, max %d)", len(data), MaxROMSize)
	}

	header, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	rom := make([]byte, header.ROMBanks()*16*1024)
	copy(rom, data)

	mapper, err := New(header.CartridgeType, rom, header.RAMBanks())
	if err != nil {
		return nil, err
	}

	return &Cartridge{Header: header, Mapper: mapper}, nil
}

// Read dispatches a cartridge-space read (0x0000-0x7FFF or 0xA000-0xBFFF)
// to the mapper.
func (c *Cartridge) Read(address uint16) uint8 {
	return c.Mapper.Read(address)
}

// Write dispatches a cartridge-space write to the mapper's banking
// registers or external RAM.
func (c *Cartridge) Write(address uint16, value uint8) {
	c.Mapper.Write(address, value)
}

// SaveRAM returns the external RAM contents for battery-backed
// persistence, or nil if this cartridge carries none. The returned slice
// aliases the mapper's live RAM; callers that persist it to disk should
// copy before any further `run_for` call mutates it concurrently with
// their own I/O (the core itself never does this internally - see §5).
func (c *Cartridge) SaveRAM() []byte {
	return c.Mapper.RAM()
}

// LoadSaveRAM restores previously persisted external RAM. It is an error
// (§7, error kind 2) for the blob's length to differ from the mapper's
// live RAM size.
func (c *Cartridge) LoadSaveRAM(data []byte) error {
	ram := c.Mapper.RAM()
	if len(data) != len(ram) {
		return fmt.Errorf("cartridge: save RAM size mismatch: got %d bytes, want %d", len(data), len(ram))
	}
	copy(ram, data)
	return nil
}
