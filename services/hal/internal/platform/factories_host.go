// services/hal/internal/platform/factories_host.go
//go:build !rp2040 && !rp2350 && !(linux && spidev)

package platform

import (
	"sync"

	"tinygo.org/x/drivers"

	"icmd-go/drivers/icmd/icmdsim"
	"icmd-go/services/hal/internal/halcore"
)

// DefaultCSPin is the chip-select pin of the simulated chip on "spi0".
const DefaultCSPin = 17

// ----------------------------- SPI (host) ------------------------------------

type simSlot struct {
	chip *icmdsim.Chip
	cs   *FakePin // nil: the chip is always selected
}

// SimBus implements drivers.SPI over simulated iC-MD chips. A transfer goes to
// the chip whose CS pin is low; with none selected the bus reads 0xFF.
type SimBus struct {
	mu    sync.Mutex
	slots []simSlot
}

func (b *SimBus) target() *icmdsim.Chip {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.slots {
		if s.cs == nil || !s.cs.Get() {
			return s.chip
		}
	}
	return nil
}

func (b *SimBus) Tx(w, r []byte) error {
	if c := b.target(); c != nil {
		return c.Tx(w, r)
	}
	for i := range r {
		r[i] = 0xFF
	}
	return nil
}

func (b *SimBus) Transfer(v byte) (byte, error) {
	if c := b.target(); c != nil {
		return c.Transfer(v)
	}
	return 0xFF, nil
}

// HostSPIFactory serves SimBus instances by id.
type HostSPIFactory struct {
	mu    sync.Mutex
	buses map[string]*SimBus
	pins  *HostPinFactory
}

func (f *HostSPIFactory) ByID(id string) (drivers.SPI, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.buses[id]
	if !ok {
		return nil, false
	}
	return b, true
}

// AttachChip places a new simulated chip on bus id. cs < 0 attaches it with
// no chip-select line; otherwise the pin of that number selects it.
func (f *HostSPIFactory) AttachChip(id string, cs int) *icmdsim.Chip {
	chip := icmdsim.New()
	slot := simSlot{chip: chip}
	if cs >= 0 && f.pins != nil {
		slot.cs = f.pins.pin(cs)
		slot.cs.mu.Lock()
		slot.cs.onSet = chip.ChipSelect
		slot.cs.mu.Unlock()
	}

	f.mu.Lock()
	b, ok := f.buses[id]
	if !ok {
		b = &SimBus{}
		f.buses[id] = b
	}
	f.mu.Unlock()

	b.mu.Lock()
	b.slots = append(b.slots, slot)
	b.mu.Unlock()
	return chip
}

// Chips returns the simulated chips on bus id in attach order.
func (f *HostSPIFactory) Chips(id string) []*icmdsim.Chip {
	f.mu.Lock()
	b := f.buses[id]
	f.mu.Unlock()
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*icmdsim.Chip, len(b.slots))
	for i, s := range b.slots {
		out[i] = s.chip
	}
	return out
}

// NewHostFactories returns an empty SPI factory sharing pins with the
// returned pin factory.
func NewHostFactories() (*HostSPIFactory, *HostPinFactory) {
	pins := &HostPinFactory{pins: make(map[int]*FakePin)}
	return &HostSPIFactory{buses: make(map[string]*SimBus), pins: pins}, pins
}

var hostDefaults = sync.OnceValues(func() (*HostSPIFactory, *HostPinFactory) {
	spi, pins := NewHostFactories()
	spi.AttachChip("spi0", DefaultCSPin)
	return spi, pins
})

// DefaultSPIFactory provides "spi0" with one simulated chip on DefaultCSPin.
func DefaultSPIFactory() halcore.SPIBusFactory {
	spi, _ := hostDefaults()
	return spi
}

// DefaultHostSPI exposes the default factory for driving the simulation.
func DefaultHostSPI() *HostSPIFactory {
	spi, _ := hostDefaults()
	return spi
}

// ----------------------------- GPIO (host) -----------------------------------

// FakePin implements GPIOPin for host runs and tests.
type FakePin struct {
	mu      sync.RWMutex
	number  int
	level   bool
	modeOut bool
	onSet   func(level bool)
	irqEdge halcore.Edge
	irq     func()
}

func (p *FakePin) ConfigureInput(_ halcore.Pull) error {
	p.mu.Lock()
	p.modeOut = false
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.mu.Unlock()
	p.Set(initial)
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	seen := edgeFrom(p.level, level)
	p.level = level
	hook := p.onSet
	var irq func()
	if irqWanted(p.irqEdge, seen) {
		irq = p.irq
	}
	p.mu.Unlock()
	if hook != nil {
		hook(level)
	}
	if irq != nil {
		irq()
	}
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	v := p.level
	p.mu.RUnlock()
	return v
}

func (p *FakePin) Toggle() { p.Set(!p.Get()) }

func (p *FakePin) Number() int { return p.number }

func (p *FakePin) SetIRQ(edge halcore.Edge, handler func()) error {
	p.mu.Lock()
	p.irqEdge, p.irq = edge, handler
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ClearIRQ() error {
	p.mu.Lock()
	p.irqEdge, p.irq = halcore.EdgeNone, nil
	p.mu.Unlock()
	return nil
}

func edgeFrom(old, new bool) halcore.Edge {
	switch {
	case !old && new:
		return halcore.EdgeRising
	case old && !new:
		return halcore.EdgeFalling
	default:
		return halcore.EdgeNone
	}
}

func irqWanted(cfg, seen halcore.Edge) bool {
	if seen == halcore.EdgeNone {
		return false
	}
	return cfg == halcore.EdgeBoth || cfg == seen
}

// IsOutput reports whether the pin was last configured as an output.
func (p *FakePin) IsOutput() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modeOut
}

// HostPinFactory returns stable *FakePin instances per number.
type HostPinFactory struct {
	mu   sync.Mutex
	pins map[int]*FakePin
}

func (f *HostPinFactory) pin(n int) *FakePin {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pins == nil {
		f.pins = make(map[int]*FakePin)
	}
	p, ok := f.pins[n]
	if !ok {
		// CS lines idle high
		p = &FakePin{number: n, level: true}
		f.pins[n] = p
	}
	return p
}

func (f *HostPinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	if n < 0 {
		return nil, false
	}
	return f.pin(n), true
}

// Get exposes the underlying *FakePin for tests.
func (f *HostPinFactory) Get(n int) (*FakePin, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pins[n]
	return p, ok
}

// DefaultPinFactory provides the host GPIO factory wired to DefaultSPIFactory.
func DefaultPinFactory() halcore.PinFactory {
	_, pins := hostDefaults()
	return pins
}
