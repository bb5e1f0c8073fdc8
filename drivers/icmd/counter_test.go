package icmd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var counterFixtures = []struct {
	name string
	mode CounterMode
	wire []byte
	want CounterValue
}{
	{
		name: "24",
		mode: Counter0_24Bit,
		wire: []byte{0x12, 0x34, 0x56, 0xC0},
		want: Counter24{CounterStatus{NErr: true, NWarn: true}, 0x123456},
	},
	{
		name: "24+24",
		mode: Counter0_24Bit_Counter1_24Bit,
		wire: []byte{0x00, 0x00, 0x01, 0x00, 0x00, 0x02, 0x40},
		want: Counter24x2{CounterStatus: CounterStatus{NErr: true}, Counter0: 1, Counter1: 2},
	},
	{
		name: "48",
		mode: Counter0_48Bit,
		wire: []byte{0x80, 0x00, 0x00, 0x00, 0x00, 0x01, 0x80},
		want: Counter48{CounterStatus{NWarn: true}, 0x800000000001},
	},
	{
		name: "16",
		mode: Counter0_16Bit,
		wire: []byte{0xFF, 0xFE, 0x00},
		want: Counter16{CounterStatus{}, -2},
	},
	{
		name: "32",
		mode: Counter0_32Bit,
		wire: []byte{0x80, 0x00, 0x00, 0x00, 0xC0},
		want: Counter32{CounterStatus{NErr: true, NWarn: true}, math.MinInt32},
	},
	{
		name: "32+16",
		mode: Counter0_32Bit_Counter1_16Bit,
		wire: []byte{0x00, 0x00, 0x01, 0x00, 0xFF, 0xFF, 0xC0},
		want: Counter32x16{CounterStatus: CounterStatus{NErr: true, NWarn: true}, Counter0: 256, Counter1: -1},
	},
	{
		name: "16+16",
		mode: Counter0_16Bit_Counter1_16Bit,
		wire: []byte{0x12, 0x34, 0x56, 0x78, 0xC0},
		want: Counter16x2{CounterStatus: CounterStatus{NErr: true, NWarn: true}, Counter0: 0x5678, Counter1: 0x1234},
	},
	{
		name: "16+16+16",
		mode: Counter0_16Bit_Counter1_16Bit_Counter2_16Bit,
		wire: []byte{0x10, 0x00, 0x20, 0x00, 0x30, 0x00, 0xC0},
		want: Counter16x3{CounterStatus: CounterStatus{NErr: true, NWarn: true}, Counter0: 0x1000, Counter1: 0x2000, Counter2: 0x3000},
	},
}

func TestDecodeCounter(t *testing.T) {
	for _, tc := range counterFixtures {
		t.Run(tc.name, func(t *testing.T) {
			wire := append([]byte(nil), tc.wire...)
			got, err := DecodeCounter(tc.mode, wire)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.mode, got.Mode())
			assert.Equal(t, tc.wire, wire, "input must not be modified")
			assert.Equal(t, tc.wire, AppendCounter(nil, got))
		})
	}
}

// Offsets of each sub-counter in the byte-reversed transfer, status at 0.
func TestCounterLayoutAfterReversal(t *testing.T) {
	type slot struct{ ch, off, width int }
	layouts := map[CounterMode][]slot{
		Counter0_24Bit_Counter1_24Bit:                {{1, 1, 3}, {0, 4, 3}},
		Counter0_32Bit_Counter1_16Bit:                {{1, 1, 2}, {0, 3, 4}},
		Counter0_16Bit_Counter1_16Bit:                {{0, 1, 2}, {1, 3, 2}},
		Counter0_16Bit_Counter1_16Bit_Counter2_16Bit: {{2, 1, 2}, {1, 3, 2}, {0, 5, 2}},
	}
	for mode, slots := range layouts {
		n := mode.ByteLen()
		mem := make([]byte, n)
		mem[0] = 0xC0
		want := make([]int64, mode.Counters())
		for _, s := range slots {
			var v int64
			for i := 0; i < s.width; i++ {
				b := byte(0x10*(s.ch+1) + i + 1)
				mem[s.off+i] = b
				v |= int64(b) << (8 * i)
			}
			want[s.ch] = v
		}
		wire := make([]byte, n)
		for i := range mem {
			wire[n-1-i] = mem[i]
		}
		got, err := DecodeCounter(mode, wire)
		require.NoError(t, err, mode.String())
		assert.Equal(t, want, Counts(got), mode.String())
		assert.Equal(t, wire, AppendCounter(nil, got), mode.String())
	}
}

func TestDecodeCounter16x2Layout(t *testing.T) {
	got, err := DecodeCounter(Counter0_16Bit_Counter1_16Bit, []byte{0x12, 0x34, 0x56, 0x78, 0xC0})
	require.NoError(t, err)
	assert.Equal(t, []int64{0x5678, 0x1234}, Counts(got))
}

func TestDecodeCounterErrors(t *testing.T) {
	_, err := DecodeCounter(Counter0_24Bit, []byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = DecodeCounter(CounterMode(8), []byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestCounterModeTable(t *testing.T) {
	lens := map[CounterMode]int{
		Counter0_24Bit:                               4,
		Counter0_24Bit_Counter1_24Bit:                7,
		Counter0_48Bit:                               7,
		Counter0_16Bit:                               3,
		Counter0_32Bit:                               5,
		Counter0_32Bit_Counter1_16Bit:                7,
		Counter0_16Bit_Counter1_16Bit:                5,
		Counter0_16Bit_Counter1_16Bit_Counter2_16Bit: 7,
	}
	for m, n := range lens {
		assert.Equal(t, n, m.ByteLen(), m.String())
		assert.True(t, m.Valid())
		back, err := ParseCounterMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, back)
	}
	assert.Equal(t, 0, CounterMode(8).ByteLen())
	assert.Equal(t, "invalid", CounterMode(8).String())
	_, err := ParseCounterMode("Counter0_64Bit")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestCounterStatusFlags(t *testing.T) {
	assert.False(t, CounterStatus{NErr: true, NWarn: true}.Err())
	assert.False(t, CounterStatus{NErr: true, NWarn: true}.Warn())
	assert.True(t, CounterStatus{}.Err())
	assert.True(t, CounterStatus{}.Warn())
}

func TestCounts(t *testing.T) {
	for _, tc := range counterFixtures {
		assert.Len(t, Counts(tc.want), tc.mode.Counters(), tc.name)
	}
	assert.Equal(t, []int64{-2}, Counts(Counter16{Counter0: -2}))
	assert.Equal(t, []int64{0xFFFFFF}, Counts(Counter24{Counter0: 0xFFFFFF}))
	assert.Nil(t, Counts(nil))
}

func TestCounterFromCountsTruncates(t *testing.T) {
	v, err := CounterFromCounts(Counter0_24Bit, CounterStatus{}, -1)
	require.NoError(t, err)
	assert.Equal(t, Counter24{Counter0: 0xFFFFFF}, v)

	v, err = CounterFromCounts(Counter0_16Bit, CounterStatus{}, 0x18000)
	require.NoError(t, err)
	assert.Equal(t, Counter16{Counter0: math.MinInt16}, v)

	v, err = CounterFromCounts(Counter0_16Bit_Counter1_16Bit, CounterStatus{NErr: true}, 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 0}, Counts(v))

	_, err = CounterFromCounts(CounterMode(9), CounterStatus{})
	assert.ErrorIs(t, err, ErrInvalidMode)
}
