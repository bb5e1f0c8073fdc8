// services/hal/internal/devices/icmd/builder.go
package icmddev

import (
	"reflect"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"tinygo.org/x/drivers"

	"icmd-go/drivers/icmd"
	"icmd-go/errcode"
	"icmd-go/services/hal/internal/consts"
	"icmd-go/services/hal/internal/drvshim"
	"icmd-go/services/hal/internal/halcore"
	"icmd-go/services/hal/internal/halerr"
	"icmd-go/services/hal/internal/registry"
	"icmd-go/services/hal/internal/util"
	"icmd-go/types"
	"icmd-go/x/mathx"
)

const defaultSampleEvery = time.Second

func init() {
	registry.RegisterBuilder("icmd", builder{})
}

type builder struct{}

// Chips on one physical bus share a lock; pins are claimed once per factory.
var (
	shared  = xsync.NewMapOf[drivers.SPI, *drvshim.SharedSPI]()
	claimed = xsync.NewMapOf[pinKey, struct{}]()
)

type pinKey struct {
	f halcore.PinFactory
	n int
}

// sharedBus returns the lock for spi. Buses whose dynamic type cannot be a
// map key get a private lock.
func sharedBus(spi drivers.SPI) *drvshim.SharedSPI {
	if t := reflect.TypeOf(spi); t == nil || !t.Comparable() {
		return drvshim.NewShared(spi)
	}
	s, _ := shared.LoadOrCompute(spi, func() *drvshim.SharedSPI { return drvshim.NewShared(spi) })
	return s
}

func claimPin(f halcore.PinFactory, n int) (halcore.GPIOPin, func(), error) {
	if f == nil {
		return nil, nil, halerr.ErrUnknownPin
	}
	pin, ok := f.ByNumber(n)
	if !ok {
		return nil, nil, halerr.ErrUnknownPin
	}
	k := pinKey{f: f, n: n}
	if _, busy := claimed.LoadOrStore(k, struct{}{}); busy {
		return nil, nil, halerr.ErrPinInUse
	}
	var once sync.Once
	release := func() { once.Do(func() { claimed.Delete(k) }) }
	return pin, release, nil
}

func invalidParams(err error) error {
	return &errcode.E{C: errcode.InvalidParams, Op: "build", Msg: err.Error(), Err: err}
}

func (builder) Build(in registry.BuildInput) (registry.BuildOutput, error) {
	if in.BusRefID == "" {
		return registry.BuildOutput{}, halerr.ErrMissingBusRef
	}
	if in.BusRefType != consts.BusSPI {
		return registry.BuildOutput{}, halerr.ErrBusType
	}
	if in.Buses == nil {
		return registry.BuildOutput{}, halerr.ErrUnknownBus
	}
	spi, ok := in.Buses.ByID(in.BusRefID)
	if !ok {
		return registry.BuildOutput{}, util.Errf("%w: %s", halerr.ErrUnknownBus, in.BusRefID)
	}

	var p types.ICMDParams
	if in.ParamsJSON != nil {
		if err := util.DecodeJSON(in.ParamsJSON, &p); err != nil {
			return registry.BuildOutput{}, invalidParams(err)
		}
	}
	settings, err := settingsFrom(p)
	if err != nil {
		return registry.BuildOutput{}, invalidParams(err)
	}

	info := types.CounterInfo{Chip: "iC-MD", Bus: in.BusRefID, CSPin: -1, NErrPin: -1}
	var (
		cs       func(level bool)
		releases []func()
	)
	release := func() {
		for _, r := range releases {
			r()
		}
	}
	if p.CSPin != nil {
		pin, rel, err := claimPin(in.Pins, *p.CSPin)
		if err != nil {
			return registry.BuildOutput{}, err
		}
		releases = append(releases, rel)
		if err := pin.ConfigureOutput(true); err != nil {
			release()
			return registry.BuildOutput{}, err
		}
		cs, info.CSPin = pin.Set, *p.CSPin
	}

	// NERR is open-drain, active low.
	var irq *registry.IRQRequest
	if p.NErrPin != nil {
		pin, rel, err := claimPin(in.Pins, *p.NErrPin)
		if err != nil {
			release()
			return registry.BuildOutput{}, err
		}
		releases = append(releases, rel)
		if err := pin.ConfigureInput(halcore.PullUp); err != nil {
			release()
			return registry.BuildOutput{}, err
		}
		info.NErrPin = *p.NErrPin
		if irqPin, ok := pin.(halcore.IRQPin); ok {
			irq = &registry.IRQRequest{
				DevID:      in.DeviceID,
				Pin:        irqPin,
				Edge:       halcore.EdgeFalling,
				DebounceMS: mathx.Clamp(p.IRQDebounceMS, 0, 50),
			}
		}
	}

	dev := icmd.New(sharedBus(spi).Handle(cs), icmd.Config{})

	if p.VerifyIdentity {
		id, err := dev.CheckDevice()
		if err != nil {
			release()
			return registry.BuildOutput{}, err
		}
		if id != icmd.IdentityOK {
			release()
			return registry.BuildOutput{}, &errcode.E{C: errcode.IdentityMismatch, Op: "build", Msg: id.String(), Err: id.Err()}
		}
	}
	if err := dev.Configure(settings); err != nil {
		release()
		return registry.BuildOutput{}, err
	}

	every := defaultSampleEvery
	if p.SampleEveryMs > 0 {
		every = time.Duration(p.SampleEveryMs) * time.Millisecond
	}
	return registry.BuildOutput{
		Adaptor:     &adaptor{id: in.DeviceID, dev: dev, info: info, release: release},
		BusID:       in.BusRefID,
		SampleEvery: every,
		IRQ:         irq,
	}, nil
}
