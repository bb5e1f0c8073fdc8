// Package icmd provides a minimal TinyGo driver for the iC-Haus iC-MD 48-bit
// three-channel quadrature counter.
//
// Design notes (datasheet references):
// • SPI mode 0/3, one header byte (bit 7 = read, bits 6:0 = address) then 1..7 data bytes.
// • Counter reads are 3..7 bytes depending on CNTCFG; MSB first, status last.
// • nERR/nWARN are active-low and travel with every counter reading.
// • Configuration registers 0x00..0x04 are patched read-modify-write.
package icmd

import "tinygo.org/x/drivers"

// PinOutput drives a GPIO line. true = high.
type PinOutput func(level bool)

// Config carries the bus wiring of one chip.
type Config struct {
	// ChipSelect drives the active-low CS line. Leave nil when the
	// transport selects the chip itself (Linux spidev).
	ChipSelect PinOutput
}

// Device represents an iC-MD on an SPI bus.
type Device struct {
	spi drivers.SPI
	cs  PinOutput

	// CNTCFG as last written through this Device.
	mode CounterMode

	// Fixed buffers to avoid per-call heap allocations.
	w [maxExchangeLen + 1]byte
	r [maxExchangeLen + 1]byte
}

// New constructs a Device. It performs no bus traffic; the cached counter
// mode starts at the power-on default.
func New(spi drivers.SPI, cfg Config) *Device {
	d := &Device{
		spi:  spi,
		cs:   cfg.ChipSelect,
		mode: DefaultCounterMode,
	}
	d.selectChip(false)
	return d
}

// CachedMode returns the counter mode used to size counter reads.
func (d *Device) CachedMode() CounterMode { return d.mode }

// Settings is the subset of the configuration applied by Configure.
type Settings struct {
	Mode          CounterMode
	Input         InputMode
	Differential  DifferentialMode
	ZMode         IndexZMode
	Directions    [3]CountDirection
	IndexInverted [2]IndexPolarity
	IndexClears   [2]ClearMode
}

// DefaultSettings returns the power-on register values.
func DefaultSettings() Settings {
	return Settings{
		Mode:  DefaultCounterMode,
		Input: InputDifferential,
	}
}

// Configure applies s through the individual setters, in register order.
// It stops at the first failure; earlier writes stay applied.
func (d *Device) Configure(s Settings) error {
	if err := d.SetCounterMode(s.Mode); err != nil {
		return err
	}
	for i, dir := range s.Directions {
		if err := d.SetCountingDirection(Channel(i), dir); err != nil {
			return err
		}
	}
	for i, p := range s.IndexInverted {
		if err := d.SetIndexInversion(Channel(i), p); err != nil {
			return err
		}
	}
	if err := d.SetIndexZMode(s.ZMode); err != nil {
		return err
	}
	for i, c := range s.IndexClears {
		if err := d.SetIndexClearsCounter(Channel(i), c); err != nil {
			return err
		}
	}
	if err := d.SetInputMode(s.Input); err != nil {
		return err
	}
	return d.SetDifferentialMode(s.Differential)
}
