package icmd

// ---------------- Counter and touch probe ----------------

// ReadCounter reads the AB counter(s) sized by the cached counter mode.
func (d *Device) ReadCounter() (CounterValue, error) {
	return d.readCounterReg(RegCounter)
}

// ReadTouchProbe reads touch probe register n (1 or 2). The layout follows the
// cached counter mode; the status bits read as nABERR (NErr) and nTPVAL (NWarn).
func (d *Device) ReadTouchProbe(n int) (CounterValue, error) {
	switch n {
	case 1:
		return d.readCounterReg(RegTouchProbe1)
	case 2:
		return d.readCounterReg(RegTouchProbe2)
	default:
		return nil, ErrInvalidValue
	}
}

func (d *Device) readCounterReg(reg Register) (CounterValue, error) {
	n := d.mode.ByteLen()
	var b [maxExchangeLen]byte
	if err := d.readReg(reg, b[:n]); err != nil {
		return nil, err
	}
	return DecodeCounter(d.mode, b[:n])
}

// ---------------- Fixed-width readouts ----------------

// ReadReference returns the 24-bit reference register REF.
func (d *Device) ReadReference() (uint32, error) { return d.readU24(RegReference) }

// ReadUpdate returns the 24-bit update register UPD.
func (d *Device) ReadUpdate() (uint32, error) { return d.readU24(RegUpdate) }

// ---------------- Instruction / status ----------------

// SendInstruction writes the instruction byte. The reserved bit is always
// sent as 0.
func (d *Device) SendInstruction(i Instruction) error {
	return d.writeByte(RegInstruction, byte(i&^instructionReserved))
}

// ReadStatus reads Status0..Status2 in one transfer.
func (d *Device) ReadStatus() (Status, error) {
	var raw [statusRegCount]byte
	if err := d.readReg(RegStatus0, raw[:]); err != nil {
		return Status{}, err
	}
	return decodeStatus(raw), nil
}
