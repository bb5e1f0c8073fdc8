package icmd

// CounterMode is CNTCFG (Config0 bits 2:0): the number of active counters and
// their widths.
type CounterMode uint8

const (
	Counter0_24Bit                               CounterMode = 0b000 // TTL, RS-422 or LVDS
	Counter0_24Bit_Counter1_24Bit                CounterMode = 0b001 // TTL only
	Counter0_48Bit                               CounterMode = 0b010 // TTL, RS-422 or LVDS
	Counter0_16Bit                               CounterMode = 0b011 // TTL, RS-422 or LVDS
	Counter0_32Bit                               CounterMode = 0b100 // TTL, RS-422 or LVDS
	Counter0_32Bit_Counter1_16Bit                CounterMode = 0b101 // TTL only
	Counter0_16Bit_Counter1_16Bit                CounterMode = 0b110 // TTL only
	Counter0_16Bit_Counter1_16Bit_Counter2_16Bit CounterMode = 0b111 // TTL only

	// DefaultCounterMode is the power-on CNTCFG value.
	DefaultCounterMode = Counter0_24Bit
)

var modeNames = [8]string{
	"Counter0_24Bit",
	"Counter0_24Bit_Counter1_24Bit",
	"Counter0_48Bit",
	"Counter0_16Bit",
	"Counter0_32Bit",
	"Counter0_32Bit_Counter1_16Bit",
	"Counter0_16Bit_Counter1_16Bit",
	"Counter0_16Bit_Counter1_16Bit_Counter2_16Bit",
}

// Wire length of a counter read per mode, status byte included.
var modeByteLen = [8]uint8{4, 7, 7, 3, 5, 7, 5, 7}

var modeCounters = [8]uint8{1, 2, 1, 1, 1, 2, 2, 3}

func (m CounterMode) Valid() bool { return m <= Counter0_16Bit_Counter1_16Bit_Counter2_16Bit }

func (m CounterMode) String() string {
	if !m.Valid() {
		return "invalid"
	}
	return modeNames[m]
}

// ByteLen returns the number of data bytes of a counter read in this mode.
func (m CounterMode) ByteLen() int {
	if !m.Valid() {
		return 0
	}
	return int(modeByteLen[m])
}

// Counters returns the number of active counters.
func (m CounterMode) Counters() int {
	if !m.Valid() {
		return 0
	}
	return int(modeCounters[m])
}

// ParseCounterMode maps a mode name as returned by String back to its value.
func ParseCounterMode(s string) (CounterMode, error) {
	for i, n := range modeNames {
		if n == s {
			return CounterMode(i), nil
		}
	}
	return 0, ErrInvalidMode
}

// ---------------- Counter values ----------------

// CounterStatus carries the two active-low flags that accompany every counter
// reading regardless of mode. For touch-probe reads the same bits are nABERR
// and nTPVAL.
type CounterStatus struct {
	NErr  bool
	NWarn bool
}

// Err reports an error condition (nERR low).
func (s CounterStatus) Err() bool { return !s.NErr }

// Warn reports a warning condition (nWARN low).
func (s CounterStatus) Warn() bool { return !s.NWarn }

func (s CounterStatus) byte() byte {
	var b byte
	if s.NErr {
		b |= counterNErrBit
	}
	if s.NWarn {
		b |= counterNWarnBit
	}
	return b
}

func decodeCounterStatus(b byte) CounterStatus {
	return CounterStatus{NErr: b&counterNErrBit != 0, NWarn: b&counterNWarnBit != 0}
}

// CounterValue is a counter reading. Its concrete type is fixed by Mode.
type CounterValue interface {
	Mode() CounterMode
	Status() CounterStatus
	counterValue()
}

type Counter24 struct {
	CounterStatus
	Counter0 uint32 // 24 bit
}

type Counter24x2 struct {
	CounterStatus
	Counter0 uint32 // 24 bit
	Counter1 uint32 // 24 bit
}

type Counter48 struct {
	CounterStatus
	Counter0 uint64 // 48 bit
}

type Counter16 struct {
	CounterStatus
	Counter0 int16
}

type Counter32 struct {
	CounterStatus
	Counter0 int32
}

type Counter32x16 struct {
	CounterStatus
	Counter0 int32
	Counter1 int16
}

type Counter16x2 struct {
	CounterStatus
	Counter0 int16
	Counter1 int16
}

type Counter16x3 struct {
	CounterStatus
	Counter0 int16
	Counter1 int16
	Counter2 int16
}

func (Counter24) Mode() CounterMode    { return Counter0_24Bit }
func (Counter24x2) Mode() CounterMode  { return Counter0_24Bit_Counter1_24Bit }
func (Counter48) Mode() CounterMode    { return Counter0_48Bit }
func (Counter16) Mode() CounterMode    { return Counter0_16Bit }
func (Counter32) Mode() CounterMode    { return Counter0_32Bit }
func (Counter32x16) Mode() CounterMode { return Counter0_32Bit_Counter1_16Bit }
func (Counter16x2) Mode() CounterMode  { return Counter0_16Bit_Counter1_16Bit }
func (Counter16x3) Mode() CounterMode  { return Counter0_16Bit_Counter1_16Bit_Counter2_16Bit }

func (c Counter24) Status() CounterStatus    { return c.CounterStatus }
func (c Counter24x2) Status() CounterStatus  { return c.CounterStatus }
func (c Counter48) Status() CounterStatus    { return c.CounterStatus }
func (c Counter16) Status() CounterStatus    { return c.CounterStatus }
func (c Counter32) Status() CounterStatus    { return c.CounterStatus }
func (c Counter32x16) Status() CounterStatus { return c.CounterStatus }
func (c Counter16x2) Status() CounterStatus  { return c.CounterStatus }
func (c Counter16x3) Status() CounterStatus  { return c.CounterStatus }

func (Counter24) counterValue()    {}
func (Counter24x2) counterValue()  {}
func (Counter48) counterValue()    {}
func (Counter16) counterValue()    {}
func (Counter32) counterValue()    {}
func (Counter32x16) counterValue() {}
func (Counter16x2) counterValue()  {}
func (Counter16x3) counterValue()  {}

// Counts flattens a reading into Counter0..CounterN, sign-extended where the
// sub-counter is signed.
func Counts(v CounterValue) []int64 {
	switch c := v.(type) {
	case Counter24:
		return []int64{int64(c.Counter0)}
	case Counter24x2:
		return []int64{int64(c.Counter0), int64(c.Counter1)}
	case Counter48:
		return []int64{int64(c.Counter0)}
	case Counter16:
		return []int64{int64(c.Counter0)}
	case Counter32:
		return []int64{int64(c.Counter0)}
	case Counter32x16:
		return []int64{int64(c.Counter0), int64(c.Counter1)}
	case Counter16x2:
		return []int64{int64(c.Counter0), int64(c.Counter1)}
	case Counter16x3:
		return []int64{int64(c.Counter0), int64(c.Counter1), int64(c.Counter2)}
	default:
		return nil
	}
}

// ---------------- Wire codec ----------------
//
// Each sub-counter is sent most significant byte first and the status byte
// comes last. Decoders reverse the transfer so that byte 0 is the status byte
// and every sub-counter is least significant byte first. After reversal the
// highest-numbered counter sits lowest, except in 16+16 mode where Counter0
// sits at bytes 1..2 and Counter1 at bytes 3..4.

// DecodeCounter decodes a counter transfer as received from the bus. wire is
// left untouched.
func DecodeCounter(mode CounterMode, wire []byte) (CounterValue, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}
	n := mode.ByteLen()
	if len(wire) != n {
		return nil, ErrInvalidLength
	}
	var b [maxExchangeLen]byte
	for i := 0; i < n; i++ {
		b[i] = wire[n-1-i]
	}
	return counterDecoders[mode](b[:n]), nil
}

var counterDecoders = [8]func(b []byte) CounterValue{
	decode24,
	decode24x2,
	decode48,
	decode16,
	decode32,
	decode32x16,
	decode16x2,
	decode16x3,
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }

func le24(b []byte) uint32 { return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 }

func le32(b []byte) uint32 { return uint32(le16(b)) | uint32(le16(b[2:]))<<16 }

func le48(b []byte) uint64 { return uint64(le24(b)) | uint64(le24(b[3:]))<<24 }

func decode24(b []byte) CounterValue {
	return Counter24{decodeCounterStatus(b[0]), le24(b[1:])}
}

func decode24x2(b []byte) CounterValue {
	return Counter24x2{
		CounterStatus: decodeCounterStatus(b[0]),
		Counter1:      le24(b[1:]),
		Counter0:      le24(b[4:]),
	}
}

func decode48(b []byte) CounterValue {
	return Counter48{decodeCounterStatus(b[0]), le48(b[1:])}
}

func decode16(b []byte) CounterValue {
	return Counter16{decodeCounterStatus(b[0]), int16(le16(b[1:]))}
}

func decode32(b []byte) CounterValue {
	return Counter32{decodeCounterStatus(b[0]), int32(le32(b[1:]))}
}

func decode32x16(b []byte) CounterValue {
	return Counter32x16{
		CounterStatus: decodeCounterStatus(b[0]),
		Counter1:      int16(le16(b[1:])),
		Counter0:      int32(le32(b[3:])),
	}
}

func decode16x2(b []byte) CounterValue {
	return Counter16x2{
		CounterStatus: decodeCounterStatus(b[0]),
		Counter0:      int16(le16(b[1:])),
		Counter1:      int16(le16(b[3:])),
	}
}

func decode16x3(b []byte) CounterValue {
	return Counter16x3{
		CounterStatus: decodeCounterStatus(b[0]),
		Counter2:      int16(le16(b[1:])),
		Counter1:      int16(le16(b[3:])),
		Counter0:      int16(le16(b[5:])),
	}
}

// AppendCounter appends the wire encoding of v to dst. It is the inverse of
// DecodeCounter; 24- and 48-bit values are truncated to their width.
func AppendCounter(dst []byte, v CounterValue) []byte {
	switch c := v.(type) {
	case Counter24:
		dst = appendBE(dst, uint64(c.Counter0), 3)
	case Counter24x2:
		dst = appendBE(dst, uint64(c.Counter0), 3)
		dst = appendBE(dst, uint64(c.Counter1), 3)
	case Counter48:
		dst = appendBE(dst, c.Counter0, 6)
	case Counter16:
		dst = appendBE(dst, uint64(uint16(c.Counter0)), 2)
	case Counter32:
		dst = appendBE(dst, uint64(uint32(c.Counter0)), 4)
	case Counter32x16:
		dst = appendBE(dst, uint64(uint32(c.Counter0)), 4)
		dst = appendBE(dst, uint64(uint16(c.Counter1)), 2)
	case Counter16x2:
		dst = appendBE(dst, uint64(uint16(c.Counter1)), 2)
		dst = appendBE(dst, uint64(uint16(c.Counter0)), 2)
	case Counter16x3:
		dst = appendBE(dst, uint64(uint16(c.Counter0)), 2)
		dst = appendBE(dst, uint64(uint16(c.Counter1)), 2)
		dst = appendBE(dst, uint64(uint16(c.Counter2)), 2)
	default:
		return dst
	}
	return append(dst, v.Status().byte())
}

func appendBE(dst []byte, v uint64, n int) []byte {
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, byte(v>>(8*uint(i))))
	}
	return dst
}

// CounterFromCounts builds the value of mode from raw counts, truncating each
// to its sub-counter width. Missing counts are zero.
func CounterFromCounts(mode CounterMode, st CounterStatus, counts ...int64) (CounterValue, error) {
	var c [3]int64
	copy(c[:], counts)
	switch mode {
	case Counter0_24Bit:
		return Counter24{st, uint32(c[0]) & 0xFFFFFF}, nil
	case Counter0_24Bit_Counter1_24Bit:
		return Counter24x2{st, uint32(c[0]) & 0xFFFFFF, uint32(c[1]) & 0xFFFFFF}, nil
	case Counter0_48Bit:
		return Counter48{st, uint64(c[0]) & 0xFFFFFFFFFFFF}, nil
	case Counter0_16Bit:
		return Counter16{st, int16(c[0])}, nil
	case Counter0_32Bit:
		return Counter32{st, int32(c[0])}, nil
	case Counter0_32Bit_Counter1_16Bit:
		return Counter32x16{st, int32(c[0]), int16(c[1])}, nil
	case Counter0_16Bit_Counter1_16Bit:
		return Counter16x2{st, int16(c[0]), int16(c[1])}, nil
	case Counter0_16Bit_Counter1_16Bit_Counter2_16Bit:
		return Counter16x3{st, int16(c[0]), int16(c[1]), int16(c[2])}, nil
	default:
		return nil, ErrInvalidMode
	}
}
