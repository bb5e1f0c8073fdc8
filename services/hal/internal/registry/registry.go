// services/hal/internal/registry/registry.go
package registry

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"icmd-go/services/hal/internal/halcore"
)

// BuildInput is passed to a device builder.
type BuildInput struct {
	Ctx        context.Context
	Buses      halcore.SPIBusFactory
	Pins       halcore.PinFactory
	DeviceID   string
	Type       string
	ParamsJSON any
	BusRefType string // e.g. "spi"
	BusRefID   string // e.g. "spi0"
}

// BuildOutput describes a constructed device.
type BuildOutput struct {
	Adaptor     halcore.Adaptor
	BusID       string        // "" if not on a shared bus
	SampleEvery time.Duration // 0 if not a periodic producer
	IRQ         *IRQRequest   // nil if none
}

// IRQRequest asks the service to register a GPIO IRQ. A matching edge
// triggers a priority measurement of DevID.
type IRQRequest struct {
	DevID      string
	Pin        halcore.IRQPin
	Edge       halcore.Edge
	DebounceMS int
	Invert     bool
}

// Builder creates an adaptor from config and factories.
type Builder interface {
	Build(in BuildInput) (BuildOutput, error)
}

var builders = xsync.NewMapOf[string, Builder]()

// RegisterBuilder panics when deviceType is already taken.
func RegisterBuilder(deviceType string, b Builder) {
	if _, loaded := builders.LoadOrStore(deviceType, b); loaded {
		panic("device builder already registered for type " + deviceType)
	}
}

func Lookup(deviceType string) (Builder, bool) {
	return builders.Load(deviceType)
}

// Types lists the registered device types.
func Types() []string {
	out := make([]string, 0, builders.Size())
	builders.Range(func(k string, _ Builder) bool {
		out = append(out, k)
		return true
	})
	return out
}
