package drvshim

import (
	"sync"

	"tinygo.org/x/drivers"
)

// SharedSPI serialises access to one physical bus shared by several chips.
type SharedSPI struct {
	mu  sync.Mutex
	bus drivers.SPI
}

func NewShared(bus drivers.SPI) *SharedSPI { return &SharedSPI{bus: bus} }

// Handle returns a drivers.SPI for one chip. Every call takes the bus lock
// and, when cs is set, drives the active-low chip select around the transfer.
func (s *SharedSPI) Handle(cs func(level bool)) SPI {
	return SPI{shared: s, cs: cs}
}

// SPI is a per-chip view of a SharedSPI.
type SPI struct {
	shared *SharedSPI
	cs     func(level bool)
}

func (s SPI) Tx(w, r []byte) error {
	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()
	s.selectChip(true)
	defer s.selectChip(false)
	return s.shared.bus.Tx(w, r)
}

// Transfer clocks one byte in its own chip-select window.
func (s SPI) Transfer(b byte) (byte, error) {
	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()
	s.selectChip(true)
	defer s.selectChip(false)
	return s.shared.bus.Transfer(b)
}

func (s SPI) selectChip(active bool) {
	if s.cs != nil {
		s.cs(!active)
	}
}
