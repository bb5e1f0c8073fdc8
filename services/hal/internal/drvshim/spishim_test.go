package drvshim

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recBus records every transfer together with the chip selects that were
// low while it ran.
type recBus struct {
	mu       sync.Mutex
	low      map[string]bool
	selected [][]string
}

func (b *recBus) cs(name string) func(bool) {
	return func(level bool) {
		b.mu.Lock()
		b.low[name] = !level
		b.mu.Unlock()
	}
}

func (b *recBus) Tx(w, r []byte) error {
	b.mu.Lock()
	var sel []string
	for n, low := range b.low {
		if low {
			sel = append(sel, n)
		}
	}
	b.selected = append(b.selected, sel)
	b.mu.Unlock()
	copy(r, w)
	return nil
}

func (b *recBus) Transfer(x byte) (byte, error) { return x, b.Tx(nil, nil) }

func TestHandleBracketsChipSelect(t *testing.T) {
	rb := &recBus{low: map[string]bool{}}
	sh := NewShared(rb)
	a := sh.Handle(rb.cs("a"))
	bb := sh.Handle(rb.cs("b"))

	r := make([]byte, 2)
	require.NoError(t, a.Tx([]byte{1, 2}, r))
	assert.Equal(t, []byte{1, 2}, r)
	_, err := bb.Transfer(3)
	require.NoError(t, err)

	require.Len(t, rb.selected, 2)
	assert.Equal(t, []string{"a"}, rb.selected[0])
	assert.Equal(t, []string{"b"}, rb.selected[1])
	assert.False(t, rb.low["a"])
	assert.False(t, rb.low["b"])
}

func TestHandlesSerialise(t *testing.T) {
	rb := &recBus{low: map[string]bool{}}
	sh := NewShared(rb)
	var wg sync.WaitGroup
	for _, name := range []string{"a", "b", "c"} {
		h := sh.Handle(rb.cs(name))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = h.Tx([]byte{0}, make([]byte, 1))
			}
		}()
	}
	wg.Wait()

	require.Len(t, rb.selected, 300)
	for _, sel := range rb.selected {
		assert.Len(t, sel, 1)
	}
}

func TestHandleWithoutChipSelect(t *testing.T) {
	rb := &recBus{low: map[string]bool{}}
	h := NewShared(rb).Handle(nil)
	require.NoError(t, h.Tx([]byte{9}, make([]byte, 1)))
	assert.Len(t, rb.selected, 1)
	assert.Empty(t, rb.selected[0])
}
