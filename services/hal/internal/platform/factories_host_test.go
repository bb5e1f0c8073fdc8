//go:build !rp2040 && !rp2350 && !(linux && spidev)

package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icmd-go/drivers/icmd"
	"icmd-go/services/hal/internal/halcore"
)

func TestSimBusRoutesByChipSelect(t *testing.T) {
	spi, pins := NewHostFactories()
	a := spi.AttachChip("spi0", 5)
	b := spi.AttachChip("spi0", 6)
	b.SetCount(icmd.Channel0, 0x123456)

	bus, ok := spi.ByID("spi0")
	require.True(t, ok)
	pa, _ := pins.ByNumber(5)
	pb, _ := pins.ByNumber(6)
	require.NoError(t, pa.ConfigureOutput(true))
	require.NoError(t, pb.ConfigureOutput(true))

	dev := icmd.New(bus, icmd.Config{ChipSelect: pb.Set})
	v, err := dev.ReadCounter()
	require.NoError(t, err)
	assert.Equal(t, []int64{0x123456}, icmd.Counts(v))
	assert.Empty(t, a.Log())
	assert.Len(t, b.Log(), 1)
}

func TestSimBusIdleReadsOnes(t *testing.T) {
	spi, _ := NewHostFactories()
	spi.AttachChip("spi0", 5)
	bus, _ := spi.ByID("spi0")

	r := make([]byte, 3)
	require.NoError(t, bus.Tx([]byte{0x80, 0, 0}, r))
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF}, r)
}

func TestChipWithoutChipSelect(t *testing.T) {
	spi, _ := NewHostFactories()
	chip := spi.AttachChip("spi1", -1)
	bus, ok := spi.ByID("spi1")
	require.True(t, ok)

	dev := icmd.New(bus, icmd.Config{})
	id, err := dev.CheckDevice()
	require.NoError(t, err)
	assert.Equal(t, icmd.IdentityOK, id)
	assert.Len(t, chip.Log(), 4)
}

func TestDefaultFactoriesShareChip(t *testing.T) {
	chips := DefaultHostSPI().Chips("spi0")
	require.Len(t, chips, 1)
	_, ok := DefaultPinFactory().ByNumber(DefaultCSPin)
	assert.True(t, ok)
	_, ok = DefaultSPIFactory().ByID("spi9")
	assert.False(t, ok)
}

func TestFakePinIRQEdges(t *testing.T) {
	_, pins := NewHostFactories()
	g, _ := pins.ByNumber(3)
	pin := g.(halcore.IRQPin)
	require.NoError(t, pin.ConfigureInput(halcore.PullUp))

	var n int
	require.NoError(t, pin.SetIRQ(halcore.EdgeFalling, func() { n++ }))
	pin.Set(false)
	pin.Set(false)
	pin.Set(true)
	assert.Equal(t, 1, n)

	require.NoError(t, pin.SetIRQ(halcore.EdgeBoth, func() { n++ }))
	pin.Set(false)
	pin.Set(true)
	assert.Equal(t, 3, n)

	require.NoError(t, pin.ClearIRQ())
	pin.Set(false)
	assert.Equal(t, 3, n)
}
