package icmd

// SPI transactions: one header byte (direction + 7-bit address) followed by
// 1..7 data bytes, bracketed by chip select.

// Exchange performs one chip-select-bracketed transfer of the header byte and
// len(buf) data bytes. For reads buf receives the bytes clocked in; for writes
// buf is sent and the bytes clocked back are discarded.
func (d *Device) Exchange(reg Register, dir Direction, buf []byte) error {
	n := len(buf)
	if n < minExchangeLen || n > maxExchangeLen {
		return ErrInvalidLength
	}
	d.w[0] = header(reg, dir)
	if dir == Read {
		clear(d.w[1 : n+1])
	} else {
		copy(d.w[1:], buf)
	}

	d.selectChip(true)
	err := d.spi.Tx(d.w[:n+1], d.r[:n+1])
	d.selectChip(false)
	if err != nil {
		return err
	}
	if dir == Read {
		copy(buf, d.r[1:n+1])
	}
	return nil
}

func header(reg Register, dir Direction) byte {
	h := byte(reg) & addrMask
	if dir == Read {
		h |= readBit
	}
	return h
}

// selectChip drives the active-low chip select line.
func (d *Device) selectChip(active bool) {
	if d.cs != nil {
		d.cs(!active)
	}
}

func (d *Device) readReg(reg Register, buf []byte) error {
	return d.Exchange(reg, Read, buf)
}

func (d *Device) writeReg(reg Register, buf []byte) error {
	return d.Exchange(reg, Write, buf)
}

func (d *Device) readByte(reg Register) (byte, error) {
	var b [1]byte
	if err := d.readReg(reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Device) writeByte(reg Register, v byte) error {
	b := [1]byte{v}
	return d.writeReg(reg, b[:])
}

// readU24 reads a 3-byte register sent most significant byte first.
func (d *Device) readU24(reg Register) (uint32, error) {
	var b [fixedRegLen]byte
	if err := d.readReg(reg, b[:]); err != nil {
		return 0, err
	}
	reverse(b[:])
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16, nil
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
