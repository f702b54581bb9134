package carcontroller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdTorqueLimitsRampUp(t *testing.T) {
	l := DefaultMQBParams().TorqueLimits()

	last := 0
	for i := 1; i <= 30; i++ {
		last = l.Limit(300, last, 0)
		assert.Equal(t, 10*i, last, "step %d", i)
	}
	assert.Equal(t, 300, l.Limit(300, last, 0))
}

func TestStdTorqueLimitsNegative(t *testing.T) {
	l := DefaultMQBParams().TorqueLimits()
	assert.Equal(t, -10, l.Limit(-300, 0, 0))
	assert.Equal(t, -20, l.Limit(-300, -10, 0))
	assert.Equal(t, -290, l.Limit(0, -300, 0), "ramp down by delta down")
}

func TestStdTorqueLimitsDriverOverride(t *testing.T) {
	l := DefaultMQBParams().TorqueLimits()

	// Driver pushing hard against a positive request leaves no room.
	assert.Equal(t, 0, l.Limit(300, 0, -200))

	// Partial override caps the window at 100; torque above it ramps down.
	assert.Equal(t, 190, l.Limit(300, 200, -150))
	assert.Equal(t, 100, l.Limit(300, 100, -150))

	// Driver steering the same way does not restrict the command.
	assert.Equal(t, 300, l.Limit(300, 300, 200))
}

func TestStdTorqueLimitsNeverExceedMax(t *testing.T) {
	l := DefaultMQBParams().TorqueLimits()
	for _, desired := range []int{-5000, -301, -300, 0, 300, 301, 5000} {
		for _, last := range []int{-300, -150, 0, 150, 300} {
			for _, driver := range []int{-500, -100, 0, 100, 500} {
				got := l.Limit(desired, last, driver)
				assert.LessOrEqual(t, got, 300)
				assert.GreaterOrEqual(t, got, -300)
			}
		}
	}
}
