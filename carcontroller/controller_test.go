package carcontroller

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.einride.tech/can"

	"mqb-assist-core/utils"
)

type failingPacker struct{ *MQBPacker }

func (failingPacker) PackHUD(HUDMessage) (can.Frame, error) {
	return can.Frame{}, errors.New("bus map broken")
}

func newController(t *testing.T) *CarController {
	t.Helper()
	p, _ := newPacker(t)
	c, err := NewCarController(DefaultMQBParams(), DefaultBusConfig(), p, nil, utils.NewNopLogger())
	require.NoError(t, err)
	return c
}

func ids(msgs []Message) []uint32 {
	out := make([]uint32, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Frame.ID)
	}
	return out
}

func TestCarControllerSchedule(t *testing.T) {
	c := newController(t)
	in := Inputs{Enabled: true, CarState: CarState{VEgo: 10, ACCActive: true}, SteerFraction: 0.2}

	tests := []struct {
		frame uint64
		want  []uint32
	}{
		{0, []uint32{0x126, 0x397, 0x12B}},
		{1, []uint32{}},
		{2, []uint32{0x126}},
		{3, []uint32{0x12B}},
		{4, []uint32{0x126}},
		{5, []uint32{}},
		{6, []uint32{0x126, 0x12B}},
	}
	for _, tt := range tests {
		msgs, err := c.Update(tt.frame, in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ids(msgs), "frame %d", tt.frame)
	}

	for frame := uint64(7); frame < 30; frame++ {
		_, err := c.Update(frame, in)
		require.NoError(t, err)
	}
	msgs, err := c.Update(30, in)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, 0, msgs[0].Bus)
	assert.Equal(t, 0, msgs[1].Bus)
	assert.Equal(t, 2, msgs[2].Bus)
}

func TestCarControllerRampsTorque(t *testing.T) {
	c := newController(t)
	m := loadMap(t)
	in := Inputs{Enabled: true, CarState: CarState{VEgo: 10, ACCActive: true}, SteerFraction: 1}

	var last float64
	for frame := uint64(0); frame <= 10; frame += 2 {
		msgs, err := c.Update(frame, in)
		require.NoError(t, err)
		v, err := m.DecodeEinrideFrame(msgs[0].Frame)
		require.NoError(t, err)
		last = v["HCA_01_LM_Offset"]
	}
	assert.Equal(t, 60.0, last)
}

func TestNewCarControllerErrors(t *testing.T) {
	p, _ := newPacker(t)

	bad := DefaultMQBParams()
	bad.SteerMax = 0
	_, err := NewCarController(bad, DefaultBusConfig(), p, nil, utils.NewNopLogger())
	assert.Error(t, err)

	_, err = NewCarController(DefaultMQBParams(), DefaultBusConfig(), nil, nil, utils.NewNopLogger())
	assert.Error(t, err)
}

func TestCarControllerPackError(t *testing.T) {
	p, _ := newPacker(t)
	c, err := NewCarController(DefaultMQBParams(), DefaultBusConfig(), failingPacker{p}, nil, utils.NewNopLogger())
	require.NoError(t, err)

	_, err = c.Update(10, Inputs{})
	assert.Error(t, err)

	_, err = c.Update(2, Inputs{})
	assert.NoError(t, err, "HUD not due")
}

type fixedLimiter struct {
	out   int
	calls [][3]int
}

func (l *fixedLimiter) Limit(desired, last, driverTorque int) int {
	l.calls = append(l.calls, [3]int{desired, last, driverTorque})
	return l.out
}

func TestCarControllerUsesInjectedLimiter(t *testing.T) {
	p, _ := newPacker(t)
	m := loadMap(t)
	lim := &fixedLimiter{out: 42}
	c, err := NewCarController(DefaultMQBParams(), DefaultBusConfig(), p, lim, utils.NewNopLogger())
	require.NoError(t, err)

	in := Inputs{Enabled: true, CarState: CarState{VEgo: 10, ACCActive: true, DriverTorque: 7}, SteerFraction: 0.5}
	msgs, err := c.Update(0, in)
	require.NoError(t, err)
	v, err := m.DecodeEinrideFrame(msgs[0].Frame)
	require.NoError(t, err)
	assert.Equal(t, 42.0, v["HCA_01_LM_Offset"])
	assert.Equal(t, 42, c.LastTorque())

	_, err = c.Update(1, in)
	require.NoError(t, err)
	_, err = c.Update(2, in)
	require.NoError(t, err)
	assert.Equal(t, [][3]int{{150, 0, 7}, {150, 42, 7}}, lim.calls)
}

func TestSteeringClampsLimiterOutput(t *testing.T) {
	p := DefaultMQBParams()
	for _, out := range []int{1000, -1000} {
		c := NewSteeringController(p.HCAStep, p.SteerMax, &fixedLimiter{out: out})
		cmd, ok := c.Update(0, active(1))
		require.True(t, ok)
		assert.Equal(t, out/1000*p.SteerMax, cmd.Torque)
		assert.Equal(t, cmd.Torque, c.LastTorque())
	}
}
