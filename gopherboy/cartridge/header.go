// Package cartridge parses a Game Boy ROM image's header and builds the
// mapper variant (NoMBC / MBC1 / MBC3) it declares.
package cartridge

import (
	"fmt"

	"github.com/gopherboy/gopherboy/bit"
)

// Header offsets, per the Game Boy programmer's manual.
const (
	entryPointAddress      = 0x100
	logoAddress            = 0x104
	titleAddress           = 0x134
	titleLength            = 11
	cgbFlagAddress         = 0x143
	newLicenseCodeAddress  = 0x144
	sgbFlagAddress         = 0x146
	cartridgeTypeAddress   = 0x147
	romSizeAddress         = 0x148
	ramSizeAddress         = 0x149
	destinationCodeAddress = 0x14A
	oldLicenseCodeAddress  = 0x14B
	versionNumberAddress   = 0x14C
	headerChecksumAddress  = 0x14D
	globalChecksumAddress  = 0x14E

	// HeaderSize is the number of leading bytes that make up the header.
	HeaderSize = 0x150
	// MaxROMSize rejects absurd images before any allocation happens.
	MaxROMSize = 8 * 1024 * 1024
)

// Header holds the parsed, read-only metadata every cartridge carries.
type Header struct {
	Title           string
	CartridgeType   uint8
	ROMSizeCode     uint8
	RAMSizeCode     uint8
	DestinationCode uint8
	OldLicenseeCode uint8
	NewLicenseeCode uint8
	SGBFlag         uint8
	Version         uint8
	HeaderChecksum  uint16
	GlobalChecksum  uint16
	// CGBSupported reports whether bit 7 of the CGB flag byte is set.
	// CGB rendering itself is a non-goal; this is only used for
	// Configuration.ModelAuto detection.
	CGBSupported bool
}

// ROMBanks returns the number of 16 KiB ROM banks this header declares.
// The Game Boy encodes it as 2 << code (code 0 == 32 KiB == 2 banks).
func (h Header) ROMBanks() int {
	return 2 << h.ROMSizeCode
}

// ramBankSizes maps a RAM size code to a bank count, per the manual.
// Code 2 is a single "large" 8 KiB bank represented the same as code 1;
// the manual lists it separately only for historical reasons.
var ramBankSizes = [6]int{0, 1, 1, 4, 16, 8}

// RAMBanks returns the number of 8 KiB external RAM banks this header
// declares, or 0 if the cartridge carries none.
func (h Header) RAMBanks() int {
	if int(h.RAMSizeCode) >= len(ramBankSizes) {
		return 0
	}
	return ramBankSizes[h.RAMSizeCode]
}

func cleanTitle(raw []byte) string {
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		switch {
		case b == 0:
			continue
		case b >= 0x20 && b < 0x7F:
			out = append(out, b)
		default:
			out = append(out, '?')
		}
	}
	for len(out) > 0 && out[len(out)-1] == ' ' {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return "(Untitled)"
	}
	return string(out)
}

// ParseHeader reads the fixed-offset header fields out of a ROM image.
// It does not validate checksums; the hardware doesn't refuse to boot on
// a bad one and neither does this core.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("cartridge: image too small (%d bytes, need at least %d)", len(data), HeaderSize)
	}

	h := Header{
		Title:           cleanTitle(data[titleAddress : titleAddress+titleLength]),
		CartridgeType:   data[cartridgeTypeAddress],
		ROMSizeCode:     data[romSizeAddress],
		RAMSizeCode:     data[ramSizeAddress],
		DestinationCode: data[destinationCodeAddress],
		OldLicenseeCode: data[oldLicenseCodeAddress],
		NewLicenseeCode: data[newLicenseCodeAddress],
		SGBFlag:         data[sgbFlagAddress],
		Version:         data[versionNumberAddress],
		HeaderChecksum:  bit.Combine(0, data[headerChecksumAddress]),
		GlobalChecksum:  bit.Combine(data[globalChecksumAddress], data[globalChecksumAddress+1]),
		CGBSupported:    bit.IsSet(7, data[cgbFlagAddress]),
	}

	return h, nil
}
