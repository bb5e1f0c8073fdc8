// services/hal/internal/platform/factories_spidev.go
//go:build linux && spidev && !rp2040 && !rp2350

package platform

import (
	"os"
	"strconv"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"

	"icmd-go/services/hal/internal/halcore"
)

// SPI clock for every spidev port; HAL_SPI_HZ overrides it.
const defaultSPIFreq = 1 * physic.MegaHertz

var hostInit = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// ----------------------------- SPI (spidev) ----------------------------------

// spidevBus adapts a periph spi.Conn to drivers.SPI. The kernel drives the
// port's own chip select around every Tx.
type spidevBus struct {
	conn spi.Conn
	one  [2]byte
}

func (b *spidevBus) Tx(w, r []byte) error {
	if len(r) == 0 {
		r = nil
	}
	return b.conn.Tx(w, r)
}

func (b *spidevBus) Transfer(v byte) (byte, error) {
	b.one[0] = v
	if err := b.conn.Tx(b.one[:1], b.one[1:2]); err != nil {
		return 0, err
	}
	return b.one[1], nil
}

type spidevFactory struct {
	mu    sync.Mutex
	freq  physic.Frequency
	buses map[string]drivers.SPI
	ports []spi.PortCloser
}

// portName maps "spi0" to the periph port "SPI0.0"; other ids pass through.
func portName(id string) string {
	if len(id) > 3 && id[:3] == "spi" {
		if _, err := strconv.Atoi(id[3:]); err == nil {
			return "SPI" + id[3:] + ".0"
		}
	}
	return id
}

func (f *spidevFactory) ByID(id string) (drivers.SPI, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.buses[id]; ok {
		return b, true
	}
	if hostInit() != nil {
		return nil, false
	}
	p, err := spireg.Open(portName(id))
	if err != nil {
		return nil, false
	}
	c, err := p.Connect(f.freq, spi.Mode0, 8)
	if err != nil {
		_ = p.Close()
		return nil, false
	}
	b := &spidevBus{conn: c}
	f.buses[id] = b
	f.ports = append(f.ports, p)
	return b, true
}

// DefaultSPIFactory opens spidev ports on first use.
func DefaultSPIFactory() halcore.SPIBusFactory {
	freq := defaultSPIFreq
	if v, err := strconv.Atoi(os.Getenv("HAL_SPI_HZ")); err == nil && v > 0 {
		freq = physic.Frequency(v) * physic.Hertz
	}
	return &spidevFactory{freq: freq, buses: make(map[string]drivers.SPI)}
}

// ----------------------------- GPIO (periph) ---------------------------------

type periphPin struct {
	p gpio.PinIO
	n int
}

func (r *periphPin) ConfigureInput(pull halcore.Pull) error {
	pp := gpio.Float
	switch pull {
	case halcore.PullUp:
		pp = gpio.PullUp
	case halcore.PullDown:
		pp = gpio.PullDown
	}
	return r.p.In(pp, gpio.NoEdge)
}

func (r *periphPin) ConfigureOutput(initial bool) error { return r.p.Out(gpio.Level(initial)) }
func (r *periphPin) Set(level bool)                     { _ = r.p.Out(gpio.Level(level)) }
func (r *periphPin) Get() bool                          { return bool(r.p.Read()) }
func (r *periphPin) Toggle()                            { r.Set(!r.Get()) }
func (r *periphPin) Number() int                        { return r.n }

type periphPinFactory struct {
	mu   sync.Mutex
	pins map[int]*periphPin
}

func (f *periphPinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.pins[n]; ok {
		return p, true
	}
	if n < 0 || hostInit() != nil {
		return nil, false
	}
	p := gpioreg.ByName("GPIO" + strconv.Itoa(n))
	if p == nil {
		return nil, false
	}
	pin := &periphPin{p: p, n: n}
	f.pins[n] = pin
	return pin, true
}

// DefaultPinFactory maps numbers to the periph "GPIO<n>" names.
func DefaultPinFactory() halcore.PinFactory {
	return &periphPinFactory{pins: make(map[int]*periphPin)}
}
