package icmd

// ---------------- Field access ----------------

func (d *Device) readField(f field) (uint8, error) {
	b, err := d.readByte(f.reg)
	if err != nil {
		return 0, err
	}
	return f.get(b), nil
}

// writeField patches f into its register: one read, one write. Bits outside f
// are written back as read.
func (d *Device) writeField(f field, v uint8) error {
	if !f.fits(v) {
		return ErrInvalidValue
	}
	b, err := d.readByte(f.reg)
	if err != nil {
		return err
	}
	return d.writeByte(f.reg, f.patch(b, v))
}

func channelField(fs []field, ch Channel) (field, error) {
	if int(ch) >= len(fs) {
		return field{}, ErrInvalidChannel
	}
	return fs[ch], nil
}

// ---------------- Counter mode (Config0[2:0]) ----------------

// CounterMode reads CNTCFG from the chip. The cache is not touched.
func (d *Device) CounterMode() (CounterMode, error) {
	v, err := d.readField(fCntCfg)
	return CounterMode(v), err
}

// SetCounterMode writes CNTCFG and, on success, caches m for counter reads.
func (d *Device) SetCounterMode(m CounterMode) error {
	if !m.Valid() {
		return ErrInvalidMode
	}
	if err := d.writeField(fCntCfg, uint8(m)); err != nil {
		return err
	}
	d.mode = m
	return nil
}

// ---------------- Index (Z) handling ----------------

func (d *Device) IndexZMode() (IndexZMode, error) {
	v, err := d.readField(fCfgZ)
	return IndexZMode(v), err
}

func (d *Device) SetIndexZMode(m IndexZMode) error {
	return d.writeField(fCfgZ, uint8(m))
}

// IndexClearsCounter reports CBZx; ch is 0 or 1.
func (d *Device) IndexClearsCounter(ch Channel) (ClearMode, error) {
	f, err := channelField(fCbZ[:], ch)
	if err != nil {
		return 0, err
	}
	v, err := d.readField(f)
	return ClearMode(v), err
}

func (d *Device) SetIndexClearsCounter(ch Channel, c ClearMode) error {
	f, err := channelField(fCbZ[:], ch)
	if err != nil {
		return err
	}
	return d.writeField(f, uint8(c))
}

// IndexInversion reports INVZx; ch is 0 or 1.
func (d *Device) IndexInversion(ch Channel) (IndexPolarity, error) {
	f, err := channelField(fInvZ[:], ch)
	if err != nil {
		return 0, err
	}
	v, err := d.readField(f)
	return IndexPolarity(v), err
}

func (d *Device) SetIndexInversion(ch Channel, p IndexPolarity) error {
	f, err := channelField(fInvZ[:], ch)
	if err != nil {
		return err
	}
	return d.writeField(f, uint8(p))
}

// ---------------- Inputs ----------------

func (d *Device) InputMode() (InputMode, error) {
	v, err := d.readField(fTTL)
	return InputMode(v), err
}

func (d *Device) SetInputMode(m InputMode) error {
	return d.writeField(fTTL, uint8(m))
}

func (d *Device) DifferentialMode() (DifferentialMode, error) {
	v, err := d.readField(fLVDS)
	return DifferentialMode(v), err
}

func (d *Device) SetDifferentialMode(m DifferentialMode) error {
	return d.writeField(fLVDS, uint8(m))
}

// ---------------- Counting direction (EXCHx) ----------------

func (d *Device) CountingDirection(ch Channel) (CountDirection, error) {
	f, err := channelField(fExch[:], ch)
	if err != nil {
		return 0, err
	}
	v, err := d.readField(f)
	return CountDirection(v), err
}

func (d *Device) SetCountingDirection(ch Channel, dir CountDirection) error {
	f, err := channelField(fExch[:], ch)
	if err != nil {
		return err
	}
	return d.writeField(f, uint8(dir))
}

// ---------------- Whole configuration block ----------------

// ReadConfig reads Config0..Config4 in one transfer.
func (d *Device) ReadConfig() (Registers, error) {
	var raw [configRegCount]byte
	if err := d.readReg(RegConfig0, raw[:]); err != nil {
		return Registers{}, err
	}
	return decodeRegisters(raw), nil
}

// WriteConfig writes Config0..Config4 in one transfer. Reserved bits are taken
// from a preceding read. On success the cached counter mode follows the
// CNTCFG written.
func (d *Device) WriteConfig(r Registers) error {
	if !r.Config0.Mode.Valid() {
		return ErrInvalidMode
	}
	var raw [configRegCount]byte
	if err := d.readReg(RegConfig0, raw[:]); err != nil {
		return err
	}
	out := r.encode(raw)
	if err := d.writeReg(RegConfig0, out[:]); err != nil {
		return err
	}
	d.mode = r.Config0.Mode
	return nil
}
