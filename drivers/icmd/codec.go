package icmd

// Bit-field layouts of the configuration, instruction and status registers.
// Each register is described by explicit shift/width tables; decoding and
// encoding never depend on compiler bit-field packing.

// field is one named sub-range of a register byte.
type field struct {
	reg   Register
	shift uint8
	width uint8
}

func (f field) mask() byte { return byte(uint16(1)<<f.width-1) << f.shift }

func (f field) get(b byte) uint8 { return (b & f.mask()) >> f.shift }

// patch replaces the field bits of b with v and leaves every other bit alone.
func (f field) patch(b byte, v uint8) byte {
	return b&^f.mask() | (v<<f.shift)&f.mask()
}

func (f field) fits(v uint8) bool { return uint16(v) < uint16(1)<<f.width }

// Config0
var (
	fCntCfg = field{RegConfig0, 0, 3}
	fExch   = [3]field{{RegConfig0, 3, 1}, {RegConfig0, 4, 1}, {RegConfig0, 5, 1}}
	fInvZ   = [2]field{{RegConfig0, 6, 1}, {RegConfig0, 7, 1}}
)

// Config1
var (
	fPrior = field{RegConfig1, 0, 1}
	fTpCfg = field{RegConfig1, 1, 2}
	fCfgZ  = field{RegConfig1, 3, 2}
	fCbZ   = [2]field{{RegConfig1, 5, 1}, {RegConfig1, 6, 1}}
	fTTL   = field{RegConfig1, 7, 1}
)

// Config2/3 (MASK is split across both)
var (
	fMaskLo = field{RegConfig2, 0, 8}
	fMaskHi = field{RegConfig3, 0, 2}
	fNMask  = field{RegConfig3, 2, 2}
	fLVDS   = field{RegConfig3, 7, 1}
)

// Config4
var (
	fNEnCh0 = field{RegConfig4, 2, 1}
	fEnCh   = [3]field{{}, {RegConfig4, 4, 1}, {RegConfig4, 6, 1}}
	fChSel  = [3]field{{RegConfig4, 3, 1}, {RegConfig4, 5, 1}, {RegConfig4, 7, 1}}
)

// ---------------- Enumerated field values ----------------

// IndexZMode selects the AB state in which the index signal Z is active (CFGZ).
type IndexZMode uint8

const (
	ZActiveA1B1 IndexZMode = 0b00
	ZActiveA1B0 IndexZMode = 0b01
	ZActiveA0B1 IndexZMode = 0b10
	ZActiveA0B0 IndexZMode = 0b11
)

// CountDirection is the AB exchange bit (EXCHx).
type CountDirection uint8

const (
	CWPositive  CountDirection = 0
	CCWPositive CountDirection = 1
)

// InputMode selects differential or TTL inputs (TTL).
type InputMode uint8

const (
	InputDifferential InputMode = 0
	InputTTL          InputMode = 1
)

// DifferentialMode selects the differential input standard (LVDS).
// Only meaningful while InputMode is InputDifferential.
type DifferentialMode uint8

const (
	DifferentialRS422 DifferentialMode = 0
	DifferentialLVDS  DifferentialMode = 1
)

// ClearMode controls whether Z clears a counter (CBZx).
type ClearMode uint8

const (
	NotClearedByZ ClearMode = 0
	ClearedByZ    ClearMode = 1
)

// IndexPolarity is the Z inversion bit (INVZx).
type IndexPolarity uint8

const (
	IndexNonInverted IndexPolarity = 0
	IndexInverted    IndexPolarity = 1 // Z=0 active
)

// Channel selects one of the counters.
type Channel uint8

const (
	Channel0 Channel = iota
	Channel1
	Channel2
)

func b2u(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

// ---------------- Register images ----------------

// Config0 is the decoded image of register 0x00.
type Config0 struct {
	Mode     CounterMode
	Exchange [3]CountDirection
	InvertZ  [2]IndexPolarity
}

func DecodeConfig0(b byte) Config0 {
	var c Config0
	c.Mode = CounterMode(fCntCfg.get(b))
	for i, f := range fExch {
		c.Exchange[i] = CountDirection(f.get(b))
	}
	for i, f := range fInvZ {
		c.InvertZ[i] = IndexPolarity(f.get(b))
	}
	return c
}

// Encode patches the Config0 fields into existing.
func (c Config0) Encode(existing byte) byte {
	b := fCntCfg.patch(existing, uint8(c.Mode))
	for i, f := range fExch {
		b = f.patch(b, uint8(c.Exchange[i]))
	}
	for i, f := range fInvZ {
		b = f.patch(b, uint8(c.InvertZ[i]))
	}
	return b
}

// Config1 is the decoded image of register 0x01.
type Config1 struct {
	Priority         uint8 // PRIOR
	TouchProbeConfig uint8 // TPCFG(1:0)
	ZMode            IndexZMode
	ClearByZ         [2]ClearMode
	Input            InputMode
}

func DecodeConfig1(b byte) Config1 {
	return Config1{
		Priority:         fPrior.get(b),
		TouchProbeConfig: fTpCfg.get(b),
		ZMode:            IndexZMode(fCfgZ.get(b)),
		ClearByZ:         [2]ClearMode{ClearMode(fCbZ[0].get(b)), ClearMode(fCbZ[1].get(b))},
		Input:            InputMode(fTTL.get(b)),
	}
}

func (c Config1) Encode(existing byte) byte {
	b := fPrior.patch(existing, c.Priority)
	b = fTpCfg.patch(b, c.TouchProbeConfig)
	b = fCfgZ.patch(b, uint8(c.ZMode))
	b = fCbZ[0].patch(b, uint8(c.ClearByZ[0]))
	b = fCbZ[1].patch(b, uint8(c.ClearByZ[1]))
	return fTTL.patch(b, uint8(c.Input))
}

// Config3 is the decoded image of register 0x03. MASK(7:0) lives alone in
// register 0x02 and is carried by Registers.
type Config3 struct {
	MaskHi       uint8 // MASK(9:8)
	NMask        uint8 // NMASK(1:0)
	Differential DifferentialMode
}

func DecodeConfig3(b byte) Config3 {
	return Config3{
		MaskHi:       fMaskHi.get(b),
		NMask:        fNMask.get(b),
		Differential: DifferentialMode(fLVDS.get(b)),
	}
}

// Encode keeps the reserved bits 6:4 of existing.
func (c Config3) Encode(existing byte) byte {
	b := fMaskHi.patch(existing, c.MaskHi)
	b = fNMask.patch(b, c.NMask)
	return fLVDS.patch(b, uint8(c.Differential))
}

// Config4 is the decoded image of register 0x04.
type Config4 struct {
	DisableCh0 bool // NENCH0
	EnableCh1  bool
	EnableCh2  bool
	Select     [3]bool // CHxSEL
}

func DecodeConfig4(b byte) Config4 {
	c := Config4{
		DisableCh0: fNEnCh0.get(b) != 0,
		EnableCh1:  fEnCh[1].get(b) != 0,
		EnableCh2:  fEnCh[2].get(b) != 0,
	}
	for i, f := range fChSel {
		c.Select[i] = f.get(b) != 0
	}
	return c
}

// Encode keeps the reserved bits 1:0 of existing.
func (c Config4) Encode(existing byte) byte {
	b := fNEnCh0.patch(existing, b2u(c.DisableCh0))
	b = fEnCh[1].patch(b, b2u(c.EnableCh1))
	b = fEnCh[2].patch(b, b2u(c.EnableCh2))
	for i, f := range fChSel {
		b = f.patch(b, b2u(c.Select[i]))
	}
	return b
}

// Registers is the full configuration block 0x00..0x04.
type Registers struct {
	Config0 Config0
	Config1 Config1
	MaskLo  uint8 // register 0x02
	Config3 Config3
	Config4 Config4
}

// Mask returns the 10-bit MASK value.
func (r Registers) Mask() uint16 { return uint16(r.Config3.MaskHi)<<8 | uint16(r.MaskLo) }

// SetMask splits a 10-bit MASK value across registers 0x02 and 0x03.
func (r *Registers) SetMask(m uint16) {
	r.MaskLo = uint8(m)
	r.Config3.MaskHi = uint8(m>>8) & 0x03
}

func decodeRegisters(raw [configRegCount]byte) Registers {
	return Registers{
		Config0: DecodeConfig0(raw[0]),
		Config1: DecodeConfig1(raw[1]),
		MaskLo:  raw[2],
		Config3: DecodeConfig3(raw[3]),
		Config4: DecodeConfig4(raw[4]),
	}
}

func (r Registers) encode(existing [configRegCount]byte) [configRegCount]byte {
	return [configRegCount]byte{
		r.Config0.Encode(existing[0]),
		r.Config1.Encode(existing[1]),
		r.MaskLo,
		r.Config3.Encode(existing[3]),
		r.Config4.Encode(existing[4]),
	}
}

// ---------------- Instruction byte (0x30, write-only) ----------------

// Instruction is a set of one-shot commands. Bits act independently.
type Instruction uint8

const (
	ResetCounter0          Instruction = 1 << 0 // ABRES0
	ResetCounter1          Instruction = 1 << 1 // ABRES1
	ResetCounter2          Instruction = 1 << 2 // ABRES2
	EnableZeroCodification Instruction = 1 << 3 // ZCEN
	LoadTouchProbe         Instruction = 1 << 4 // TP: TP2 <- TP1, TP1 <- AB counter
	Actuator0              Instruction = 1 << 5 // ACT0 pin level
	Actuator1              Instruction = 1 << 6 // ACT1 pin level

	instructionReserved Instruction = 1 << 7
)

func (i Instruction) Has(flag Instruction) bool { return i&flag != 0 }

// ResetCounter returns the ABRES bit for ch.
func ResetCounter(ch Channel) (Instruction, error) {
	if ch > Channel2 {
		return 0, ErrInvalidChannel
	}
	return ResetCounter0 << ch, nil
}

// ---------------- Status registers (0x48..0x4A, read-only) ----------------

type Status0 uint8

const (
	S0TouchProbeValid Status0 = 1 << 0 // TPVAL
	S0OverflowRequest Status0 = 1 << 1 // OVFREQ
	S0UpdateValid     Status0 = 1 << 2 // UPDVAL
	S0ReferenceValid  Status0 = 1 << 3 // RVAL
	S0PowerDown       Status0 = 1 << 4 // PDWN
	S0Zero0           Status0 = 1 << 5 // ZERO0
	S0Overflow0       Status0 = 1 << 6 // OVF0
	S0ABError0        Status0 = 1 << 7 // ABERR0
)

type Status1 uint8

const (
	S1TouchProbeStatus Status1 = 1 << 0 // TPS
	S1CommCollision    Status1 = 1 << 1 // COMCOL
	S1ExtWarning       Status1 = 1 << 2 // EXTWARN
	S1ExtError         Status1 = 1 << 3 // EXTERR
	S1PowerDown        Status1 = 1 << 4 // PDWN
	S1Zero1            Status1 = 1 << 5 // ZERO1
	S1Overflow1        Status1 = 1 << 6 // OVF1
	S1ABError1         Status1 = 1 << 7 // ABERR1
)

type Status2 uint8

const (
	S2SSIEnabled    Status2 = 1 << 0 // ENSSI
	S2CommCollision Status2 = 1 << 1 // COMCOL
	S2ExtWarning    Status2 = 1 << 2 // EXTWARN
	S2ExtError      Status2 = 1 << 3 // EXTERR
	S2PowerDown     Status2 = 1 << 4 // PDWN
	S2Zero2         Status2 = 1 << 5 // ZERO2
	S2Overflow2     Status2 = 1 << 6 // OVF2
	S2ABError2      Status2 = 1 << 7 // ABERR2
)

func (s Status0) Has(flag Status0) bool { return s&flag != 0 }
func (s Status1) Has(flag Status1) bool { return s&flag != 0 }
func (s Status2) Has(flag Status2) bool { return s&flag != 0 }

// Status holds the three status bytes as read in one transfer.
type Status struct {
	S0 Status0
	S1 Status1
	S2 Status2
}

func decodeStatus(raw [statusRegCount]byte) Status {
	return Status{S0: Status0(raw[0]), S1: Status1(raw[1]), S2: Status2(raw[2])}
}
