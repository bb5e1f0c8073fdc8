package icmd

import "bytes"

// Identity is the result code of CheckDevice.
type Identity int8

const (
	IdentityOK                   Identity = 0
	IdentityProfileMismatch      Identity = -1
	IdentityDeviceMismatch       Identity = -2
	IdentityRevisionMismatch     Identity = -3
	IdentityManufacturerMismatch Identity = -4
)

// Err returns the sentinel error for a mismatch, nil for IdentityOK.
func (id Identity) Err() error {
	switch id {
	case IdentityOK:
		return nil
	case IdentityProfileMismatch:
		return ErrProfileMismatch
	case IdentityDeviceMismatch:
		return ErrDeviceMismatch
	case IdentityRevisionMismatch:
		return ErrRevisionMismatch
	case IdentityManufacturerMismatch:
		return ErrManufacturerMismatch
	default:
		return ErrInvalidValue
	}
}

func (id Identity) String() string {
	switch id {
	case IdentityOK:
		return "ok"
	case IdentityProfileMismatch:
		return "profile_mismatch"
	case IdentityDeviceMismatch:
		return "device_mismatch"
	case IdentityRevisionMismatch:
		return "revision_mismatch"
	case IdentityManufacturerMismatch:
		return "manufacturer_mismatch"
	default:
		return "unknown"
	}
}

// CheckDevice reads the identification registers in order and reports the
// first mismatch. A transport error is returned with IdentityOK.
func (d *Device) CheckDevice() (Identity, error) {
	checks := [...]struct {
		reg  Register
		want []byte
		fail Identity
	}{
		{RegProfileID, idProfile[:], IdentityProfileMismatch},
		{RegDeviceID, idDevice[:], IdentityDeviceMismatch},
		{RegRevision, idRevision[:], IdentityRevisionMismatch},
		{RegManufacturerID, idManufacturer[:], IdentityManufacturerMismatch},
	}
	var b [4]byte
	for _, c := range checks {
		got := b[:len(c.want)]
		if err := d.readReg(c.reg, got); err != nil {
			return IdentityOK, err
		}
		if !bytes.Equal(got, c.want) {
			return c.fail, nil
		}
	}
	return IdentityOK, nil
}
