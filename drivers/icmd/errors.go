package icmd

import "errors"

var (
	// Sentinel errors (TinyGo-safe; no fmt)
	ErrInvalidChannel = errors.New("icmd: invalid channel")
	ErrInvalidValue   = errors.New("icmd: invalid field value")
	ErrInvalidLength  = errors.New("icmd: exchange length out of range")
	ErrInvalidMode    = errors.New("icmd: invalid counter mode")

	// Identity check failures.
	ErrProfileMismatch      = errors.New("icmd: BiSS profile mismatch")
	ErrDeviceMismatch       = errors.New("icmd: device ID mismatch")
	ErrRevisionMismatch     = errors.New("icmd: revision mismatch")
	ErrManufacturerMismatch = errors.New("icmd: manufacturer ID mismatch")
)
