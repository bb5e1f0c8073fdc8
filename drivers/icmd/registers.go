package icmd

// ---------------- Register addresses ----------------

// Register is a 7-bit iC-MD register address. Bit 7 of the header byte is
// reserved for the transfer direction.
type Register uint8

const (
	// Configuration (R/W, 1 byte each)
	RegConfig0 Register = 0x00 // CNTCFG(2:0), EXCH0..2, INVZ0..1
	RegConfig1 Register = 0x01 // PRIOR, TPCFG(1:0), CFGZ(1:0), CBZ0, CBZ1, TTL
	RegConfig2 Register = 0x02 // MASK(7:0)
	RegConfig3 Register = 0x03 // MASK(9:8), NMASK(1:0), LVDS
	RegConfig4 Register = 0x04 // NENCH0, CH0SEL, ENCH1, CH1SEL, ENCH2, CH2SEL

	// Readouts (R)
	RegCounter     Register = 0x08 // AB counter(s) + nERR/nWARN, 3..7 bytes
	RegUpdate      Register = 0x0A // UPD(23:0)
	RegTouchProbe1 Register = 0x0D // TP1, same layout as RegCounter
	RegTouchProbe2 Register = 0x0E // TP2, same layout as RegCounter
	RegReference   Register = 0x10 // REF(23:0)

	// Control (W)
	RegInstruction Register = 0x30

	// Status (R, 1 byte each)
	RegStatus0 Register = 0x48
	RegStatus1 Register = 0x49
	RegStatus2 Register = 0x4A

	// Identification (R)
	RegProfileID      Register = 0x42 // 2 bytes
	RegDeviceID       Register = 0x78 // 2 bytes
	RegRevision       Register = 0x7A // 4 bytes
	RegManufacturerID Register = 0x7E // 2 bytes
)

// Direction selects read or write in the header byte (bit 7).
type Direction uint8

const (
	Write Direction = 0
	Read  Direction = 1
)

// Transfer limits of a single exchange.
const (
	minExchangeLen = 1
	maxExchangeLen = 7

	addrMask = 0x7F
	readBit  = 0x80

	configRegCount = 5
	fixedRegLen    = 3 // REF and UPD
	statusRegCount = 3
)

// Expected identification bytes.
var (
	idProfile      = [2]byte{0x33, 0x18}
	idDevice       = [2]byte{'M', 'D'}
	idRevision     = [4]byte{'X', 0x00, 0x00, 0x00}
	idManufacturer = [2]byte{0x69, 0x43}
)

// Counter status byte (last byte on the wire, first after reversal).
const (
	counterNErrBit  = 1 << 6
	counterNWarnBit = 1 << 7
)
