package errcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"icmd-go/drivers/icmd"
)

func TestOf(t *testing.T) {
	assert.Equal(t, OK, Of(nil))
	assert.Equal(t, Busy, Of(Busy))
	assert.Equal(t, Timeout, Of(&E{C: Timeout, Msg: "spi"}))
	assert.Equal(t, Error, Of(errors.New("x")))
}

func TestEError(t *testing.T) {
	e := &E{C: UnknownBus, Op: "build", Msg: "spi9", Err: errors.New("cause")}
	assert.Equal(t, "unknown_bus: spi9", e.Error())
	assert.Equal(t, "unknown_bus", (&E{C: UnknownBus}).Error())
	assert.EqualError(t, errors.Unwrap(e), "cause")
}

func TestMapDriverErr(t *testing.T) {
	cases := []struct {
		err  error
		want Code
	}{
		{nil, OK},
		{icmd.ErrInvalidChannel, InvalidParams},
		{icmd.ErrInvalidValue, InvalidParams},
		{icmd.ErrInvalidLength, InvalidParams},
		{fmt.Errorf("set: %w", icmd.ErrInvalidMode), InvalidParams},
		{icmd.ErrProfileMismatch, IdentityMismatch},
		{icmd.IdentityManufacturerMismatch.Err(), IdentityMismatch},
		{fmt.Errorf("wrapped: %w", PinInUse), PinInUse},
		{&E{C: UnknownPin}, UnknownPin},
		{errors.New("spi: nack"), Error},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MapDriverErr(tc.err), "%v", tc.err)
	}
}
