package mathx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-5, 0, 50))
	assert.Equal(t, 20, Clamp(20, 0, 50))
	assert.Equal(t, 50, Clamp(99, 0, 50))
	assert.Equal(t, 50, Clamp(99, 50, 0), "swapped bounds")
	assert.Equal(t, time.Second, Clamp(time.Hour, 0, time.Second))
}
