package memory

import (
	"fmt"

	"github.com/mkoenig/go-gibi/gibi/bit"
)

const titleLength = 16

const (
	entryPointAddress      = 0x100
	logoAddress            = 0x104
	logoLength             = 48
	titleAddress           = 0x134
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
)

// nintendoLogo is the fixed 48-byte bitmap every licensed cartridge header
// carries at 0x104-0x133. We only need it to validate the header checksum
// a boot ROM would check; the boot ROM itself is out of scope.
var nintendoLogo = [logoLength]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83,
	0x00, 0x0C, 0x00, 0x0D, 0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E,
	0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99, 0xBB, 0xBB, 0x67, 0x63,
	0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

// MBCType identifies which cartridge controller variant a ROM's header
// type byte maps to, independent of the presence of battery/RTC/rumble.
type MBCType uint8

const (
	NoMBCType MBCType = iota
	MBC1Type
	MBC1MultiType
	MBC2Type
	MBC3Type
	MBC5Type
	MBCUnknownType
)

func (t MBCType) String() string {
	switch t {
	case NoMBCType:
		return "ROM ONLY"
	case MBC1Type:
		return "MBC1"
	case MBC1MultiType:
		return "MBC1 (multicart)"
	case MBC2Type:
		return "MBC2"
	case MBC3Type:
		return "MBC3"
	case MBC5Type:
		return "MBC5"
	default:
		return "unknown"
	}
}

// Cartridge holds raw ROM data plus the parsed header fields needed to pick
// and construct the right MBC implementation.
type Cartridge struct {
	data           []byte
	title          string
	headerChecksum uint8
	globalChecksum uint16
	version        uint8
	cartType       uint8
	romSize        uint8
	ramSize        uint8

	mbcType      MBCType
	hasBattery   bool
	hasRTC       bool
	hasRumble    bool
	ramBankCount uint8
	romBankCount uint16

	logoValid      bool
	checksumValid  bool
}

// NewCartridge creates an empty cartridge, useful only for debugging purposes.
func NewCartridge() *Cartridge {
	return &Cartridge{
		data:    make([]byte, 0x10000),
		mbcType: NoMBCType,
	}
}

// NewCartridgeWithData initializes a new Cartridge from a slice of bytes,
// parsing the header at 0x100-0x14F into banking/feature metadata.
func NewCartridgeWithData(bytes []byte) *Cartridge {
	titleBytes := bytes[titleAddress : titleAddress+titleLength]

	cart := &Cartridge{
		data:           make([]byte, len(bytes)),
		title:          cleanGameboyTitle(titleBytes),
		headerChecksum: bytes[headerChecksumAddress],
		globalChecksum: bit.Combine(bytes[globalChecksumAddress], bytes[globalChecksumAddress+1]),
		version:        bytes[versionNumberAddress],
		cartType:       bytes[cartridgeTypeAddress],
		romSize:        bytes[romSizeAddress],
		ramSize:        bytes[ramSizeAddress],
	}

	copy(cart.data, bytes)

	cart.logoValid = len(bytes) >= logoAddress+logoLength &&
		string(bytes[logoAddress:logoAddress+logoLength]) == string(nintendoLogo[:])
	cart.checksumValid = computeHeaderChecksum(bytes) == cart.headerChecksum

	cart.mbcType, cart.hasBattery, cart.hasRTC, cart.hasRumble = decodeCartType(cart.cartType)
	cart.romBankCount = decodeROMBankCount(cart.romSize)
	cart.ramBankCount = decodeRAMBankCount(cart.ramSize, cart.mbcType)

	return cart
}

// computeHeaderChecksum reproduces the boot ROM's header checksum algorithm:
// x = 0; for each byte in 0x134..0x14C: x = x - byte - 1
func computeHeaderChecksum(data []byte) uint8 {
	var x uint8
	for i := titleAddress; i < headerChecksumAddress; i++ {
		x = x - data[i] - 1
	}
	return x
}

// decodeCartType maps the 0x147 cartridge type byte to an MBC variant plus
// the battery/RTC/rumble flags, following the standard cartridge type table.
func decodeCartType(cartType uint8) (mbc MBCType, battery, rtc, rumble bool) {
	switch cartType {
	case 0x00:
		return NoMBCType, false, false, false
	case 0x01:
		return MBC1Type, false, false, false
	case 0x02:
		return MBC1Type, false, false, false
	case 0x03:
		return MBC1Type, true, false, false
	case 0x05:
		return MBC2Type, false, false, false
	case 0x06:
		return MBC2Type, true, false, false
	case 0x0F:
		return MBC3Type, true, true, false
	case 0x10:
		return MBC3Type, true, true, false
	case 0x11:
		return MBC3Type, false, false, false
	case 0x12:
		return MBC3Type, false, false, false
	case 0x13:
		return MBC3Type, true, false, false
	case 0x19:
		return MBC5Type, false, false, false
	case 0x1A:
		return MBC5Type, false, false, false
	case 0x1B:
		return MBC5Type, true, false, false
	case 0x1C:
		return MBC5Type, false, false, true
	case 0x1D:
		return MBC5Type, false, false, true
	case 0x1E:
		return MBC5Type, true, false, true
	default:
		return MBCUnknownType, false, false, false
	}
}

// decodeROMBankCount maps the 0x148 ROM size code to a count of 16KiB
// banks: 0x00-0x08 are 32KiB doubled per step, and 0x52-0x54 are the legacy
// 1152/1280/1536KiB sizes. Unknown codes decode to 0 and are rejected by
// Validate.
func decodeROMBankCount(romSize uint8) uint16 {
	switch {
	case romSize <= 0x08:
		return 2 << romSize
	case romSize == 0x52:
		return 72
	case romSize == 0x53:
		return 80
	case romSize == 0x54:
		return 96
	default:
		return 0
	}
}

func decodeRAMBankCount(ramSize uint8, mbcType MBCType) uint8 {
	if mbcType == MBC2Type {
		// MBC2 has built-in 512x4-bit RAM, not expressed via 0x149.
		return 1
	}
	switch ramSize {
	case 0x00:
		return 0
	case 0x01:
		return 1 // 2KB, uses a single bank's worth of space
	case 0x02:
		return 1 // 8KB
	case 0x03:
		return 4 // 32KB
	case 0x04:
		return 16 // 128KB
	case 0x05:
		return 8 // 64KB
	default:
		return 0
	}
}

// Validate reproduces the checks the boot ROM performs before handing
// control to the cartridge, plus a check that the MBC variant is one this
// emulator implements. A cartridge that fails any of them is rejected at
// load time, before the machine is constructed.
func (c *Cartridge) Validate() error {
	if !c.logoValid {
		return fmt.Errorf("cartridge rejected: logo bytes at 0x104-0x133 do not match")
	}
	if !c.checksumValid {
		return fmt.Errorf("cartridge rejected: header checksum mismatch (header says 0x%02X)", c.headerChecksum)
	}
	if c.mbcType == MBCUnknownType {
		return fmt.Errorf("cartridge rejected: unsupported cartridge type 0x%02X", c.cartType)
	}
	if c.romBankCount == 0 {
		return fmt.Errorf("cartridge rejected: unknown ROM size code 0x%02X", c.romSize)
	}
	return nil
}

// ReadByte reads a byte at the specified address. Does not check bounds, so the caller must make sure the
// address is valid for the cartridge.
func (c Cartridge) ReadByte(addr uint16) uint8 {
	return c.data[addr]
}

// WriteByte writes a byte directly into the backing ROM image. Only useful
// for the debug/no-cartridge case; real cartridges route writes through
// their MBC's register-write logic instead.
func (c *Cartridge) WriteByte(addr uint16, value uint8) {
	c.data[addr] = value
}

// Title returns the cleaned-up game title from the header.
func (c Cartridge) Title() string {
	return c.title
}

// String renders a human-readable summary of the cartridge header, mirroring
// the kind of diagnostic dump most Game Boy emulators print on ROM load.
func (c Cartridge) String() string {
	return fmt.Sprintf(
		"%s [%s] rom=%dKB ram=%d banks battery=%v rtc=%v rumble=%v logoValid=%v checksumValid=%v",
		c.title, c.mbcType, int(c.romBankCount)*16, c.ramBankCount, c.hasBattery, c.hasRTC, c.hasRumble,
		c.logoValid, c.checksumValid,
	)
}
