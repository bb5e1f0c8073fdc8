// Package icmdsim is an in-memory iC-MD. It implements drivers.SPI and a
// chip-select callback so the icmd driver and the HAL can run without hardware.
package icmdsim

import (
	"sync"

	"icmd-go/drivers/icmd"
)

const (
	regCount  = 128
	maxData   = 7
	readBit   = 0x80
	addrMask  = 0x7F
	u24Mask   = 0xFFFFFF
	numCounts = 3
)

// Transaction is one chip-select window as seen by the chip.
type Transaction struct {
	Header byte
	Out    []byte // bytes clocked in after the header (MOSI)
	In     []byte // bytes clocked out after the header (MISO)
}

func (t Transaction) Read() bool { return t.Header&readBit != 0 }

func (t Transaction) Register() icmd.Register { return icmd.Register(t.Header & addrMask) }

// Chip models the register file and counters of one iC-MD.
type Chip struct {
	mu sync.Mutex

	regs     [regCount]byte
	counts   [numCounts]int64
	cstat    icmd.CounterStatus
	tp       [2][numCounts]int64
	ref, upd uint32
	act      [2]bool

	csDriven bool
	selected bool

	// current transaction
	open bool
	pos  int
	hdr  byte
	resp [maxData]byte
	cur  Transaction

	log     []Transaction
	failErr error
}

// New returns a chip in its power-on state with valid identification bytes.
func New() *Chip {
	c := &Chip{cstat: icmd.CounterStatus{NErr: true, NWarn: true}}
	copy(c.regs[icmd.RegProfileID:], []byte{0x33, 0x18})
	copy(c.regs[icmd.RegDeviceID:], []byte{'M', 'D'})
	copy(c.regs[icmd.RegRevision:], []byte{'X', 0, 0, 0})
	copy(c.regs[icmd.RegManufacturerID:], []byte{0x69, 0x43})
	return c
}

// ---------------- Transport ----------------

// ChipSelect is the active-low CS input; pass it as icmd.Config.ChipSelect.
// Once it has been driven, transactions are delimited by CS only.
func (c *Chip) ChipSelect(level bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.csDriven = true
	active := !level
	if active == c.selected {
		return
	}
	c.selected = active
	if active {
		c.begin()
	} else {
		c.end()
	}
}

// Tx clocks len(w) bytes. Without a driven CS line every Tx is a whole
// transaction.
func (c *Chip) Tx(w, r []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failErr; err != nil {
		c.failErr = nil
		return err
	}
	n := len(w)
	if len(r) > n {
		n = len(r)
	}
	implicit := !c.csDriven
	if implicit {
		c.begin()
	}
	for i := 0; i < n; i++ {
		var out byte
		if i < len(w) {
			out = w[i]
		}
		in := c.step(out)
		if i < len(r) {
			r[i] = in
		}
	}
	if implicit {
		c.end()
	}
	return nil
}

// Transfer clocks a single byte. It requires a driven CS line.
func (c *Chip) Transfer(b byte) (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failErr; err != nil {
		c.failErr = nil
		return 0, err
	}
	return c.step(b), nil
}

// FailNext makes the next Tx or Transfer return err without clocking.
func (c *Chip) FailNext(err error) {
	c.mu.Lock()
	c.failErr = err
	c.mu.Unlock()
}

func (c *Chip) begin() {
	c.open = true
	c.pos = 0
	c.cur = Transaction{}
}

func (c *Chip) end() {
	if !c.open {
		return
	}
	c.open = false
	if c.pos > 0 {
		c.log = append(c.log, c.cur)
	}
}

func (c *Chip) step(out byte) byte {
	if !c.open {
		return 0xFF
	}
	defer func() { c.pos++ }()
	if c.pos == 0 {
		c.hdr = out
		c.cur.Header = out
		if out&readBit != 0 {
			c.resp = c.response(icmd.Register(out & addrMask))
		}
		return 0
	}
	i := c.pos - 1
	c.cur.Out = append(c.cur.Out, out)
	if c.hdr&readBit != 0 {
		var in byte
		if i < maxData {
			in = c.resp[i]
		}
		c.cur.In = append(c.cur.In, in)
		return in
	}
	c.cur.In = append(c.cur.In, 0)
	c.write(int(c.hdr&addrMask)+i, out)
	return 0
}

// response builds the bytes a read of reg clocks out.
func (c *Chip) response(reg icmd.Register) [maxData]byte {
	var out [maxData]byte
	switch reg {
	case icmd.RegCounter:
		c.encodeCounts(out[:], c.counts)
	case icmd.RegTouchProbe1:
		c.encodeCounts(out[:], c.tp[0])
	case icmd.RegTouchProbe2:
		c.encodeCounts(out[:], c.tp[1])
	case icmd.RegReference:
		putBE24(out[:], c.ref)
	case icmd.RegUpdate:
		putBE24(out[:], c.upd)
	default:
		for i := range out {
			if a := int(reg) + i; a < regCount {
				out[i] = c.regs[a]
			}
		}
	}
	return out
}

func (c *Chip) encodeCounts(dst []byte, counts [numCounts]int64) {
	v, err := icmd.CounterFromCounts(c.mode(), c.cstat, counts[:]...)
	if err != nil {
		return
	}
	var buf [maxData]byte
	copy(dst, icmd.AppendCounter(buf[:0], v))
}

func putBE24(dst []byte, v uint32) {
	dst[0] = byte(v >> 16)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v)
}

func (c *Chip) write(addr int, v byte) {
	if addr >= regCount {
		return
	}
	switch {
	case addr <= int(icmd.RegConfig4):
		c.regs[addr] = v
	case addr == int(icmd.RegInstruction):
		c.execute(icmd.Instruction(v))
	}
}

func (c *Chip) execute(in icmd.Instruction) {
	for ch := icmd.Channel0; ch <= icmd.Channel2; ch++ {
		bit, _ := icmd.ResetCounter(ch)
		if in.Has(bit) {
			c.counts[ch] = 0
		}
	}
	if in.Has(icmd.LoadTouchProbe) {
		c.tp[1] = c.tp[0]
		c.tp[0] = c.counts
	}
	c.act[0] = in.Has(icmd.Actuator0)
	c.act[1] = in.Has(icmd.Actuator1)
	c.regs[icmd.RegInstruction] = byte(in)
}

func (c *Chip) mode() icmd.CounterMode {
	return icmd.CounterMode(c.regs[icmd.RegConfig0] & 0x07)
}

// ---------------- Test controls ----------------

// Mode returns CNTCFG as held by the chip.
func (c *Chip) Mode() icmd.CounterMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode()
}

// Reg returns the raw register byte at addr.
func (c *Chip) Reg(addr icmd.Register) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs[addr&addrMask]
}

// SetReg overwrites a raw register byte, e.g. to corrupt an ID.
func (c *Chip) SetReg(addr icmd.Register, v byte) {
	c.mu.Lock()
	c.regs[addr&addrMask] = v
	c.mu.Unlock()
}

// SetCount sets the raw value of counter ch; it is truncated on read to the
// width of the active mode.
func (c *Chip) SetCount(ch icmd.Channel, v int64) {
	c.mu.Lock()
	c.counts[ch%numCounts] = v
	c.mu.Unlock()
}

func (c *Chip) Count(ch icmd.Channel) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[ch%numCounts]
}

// Advance adds delta to every enabled counter of the active mode.
func (c *Chip) Advance(delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < c.mode().Counters(); i++ {
		c.counts[i] += delta
	}
}

// SetCounterStatus sets the nERR/nWARN bits sent with counter reads.
func (c *Chip) SetCounterStatus(s icmd.CounterStatus) {
	c.mu.Lock()
	c.cstat = s
	c.mu.Unlock()
}

// SetStatus sets the raw Status0..Status2 bytes.
func (c *Chip) SetStatus(s0, s1, s2 byte) {
	c.mu.Lock()
	c.regs[icmd.RegStatus0] = s0
	c.regs[icmd.RegStatus1] = s1
	c.regs[icmd.RegStatus2] = s2
	c.mu.Unlock()
}

func (c *Chip) SetReference(v uint32) {
	c.mu.Lock()
	c.ref = v & u24Mask
	c.mu.Unlock()
}

func (c *Chip) SetUpdate(v uint32) {
	c.mu.Lock()
	c.upd = v & u24Mask
	c.mu.Unlock()
}

// Actuators returns the ACT0/ACT1 levels of the last instruction.
func (c *Chip) Actuators() (act0, act1 bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.act[0], c.act[1]
}

// Selected reports whether CS is currently asserted.
func (c *Chip) Selected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Log returns a copy of the completed transactions.
func (c *Chip) Log() []Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Transaction(nil), c.log...)
}

func (c *Chip) ResetLog() {
	c.mu.Lock()
	c.log = nil
	c.mu.Unlock()
}
