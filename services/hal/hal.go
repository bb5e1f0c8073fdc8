// services/hal/hal.go
package hal

import (
	"context"

	"icmd-go/bus"
	"icmd-go/services/hal/internal/halcore"
	"icmd-go/services/hal/internal/platform"
	"icmd-go/services/hal/internal/service"
	"icmd-go/x/logx"

	// Device builders register with the registry.
	_ "icmd-go/services/hal/internal/devices/icmd"
)

type (
	SPIBusFactory = halcore.SPIBusFactory
	PinFactory    = halcore.PinFactory
	GPIOPin       = halcore.GPIOPin
)

// Run serves the HAL on conn until ctx is done. Nil factories select the
// platform defaults.
func Run(ctx context.Context, conn *bus.Connection, spi SPIBusFactory, pins PinFactory, log logx.Logger) {
	if spi == nil {
		spi = platform.DefaultSPIFactory()
	}
	if pins == nil {
		pins = platform.DefaultPinFactory()
	}
	service.New(conn, spi, pins, log).Run(ctx)
}
