package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstOrderFilter(t *testing.T) {
	f := NewFirstOrderFilter(0, 0.2, 0.05, false)
	assert.InDelta(t, 0.2, f.Alpha(), 1e-12)
	assert.False(t, f.Initialized())

	assert.Equal(t, 10.0, f.Update(10), "first sample seeds")
	assert.True(t, f.Initialized())
	assert.InDelta(t, 12, f.Update(20), 1e-12)

	f.Reset()
	assert.Equal(t, 12.0, f.Value(), "reset keeps the value until the next sample")
	assert.Equal(t, -3.0, f.Update(-3))
}

func TestFirstOrderFilterInitializedBlendsFromX0(t *testing.T) {
	f := NewFirstOrderFilter(5, 0.2, 0.05, true)
	assert.InDelta(t, 5*0.8+10*0.2, f.Update(10), 1e-12)
}
