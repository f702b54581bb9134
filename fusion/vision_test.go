package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func lead(prob, x, y, v, a float64) VisionLead {
	return VisionLead{Prob: prob, X: []float64{x, x + 1}, Y: []float64{y}, V: []float64{v}, A: []float64{a}}
}

func TestVisionLeadSeedsThenSmooths(t *testing.T) {
	s := NewVisionLeadState()

	s.Update(lead(0.9, 11.52, -0.5, 15, 0.2), 20, 20)
	assert.True(t, s.Confident())
	assert.InDelta(t, 10, s.DRel, 1e-9)
	assert.InDelta(t, 0.5, s.YRel, 1e-12)
	assert.InDelta(t, 15, s.VLead, 1e-12)
	assert.InDelta(t, 0.2, s.ALead, 1e-12)
	assert.InDelta(t, -5, s.VRel, 1e-12)
	assert.Equal(t, DefaultLeadAccelTau, s.ALeadTau)

	s.Update(lead(0.9, 21.52, -0.5, 15, 0.2), 20, 20)
	assert.InDelta(t, 12, s.DRel, 1e-9)
}

func TestVisionLeadCorrectsSpeedError(t *testing.T) {
	s := NewVisionLeadState()
	s.Update(lead(0.9, 30, 0, 16, 0), 20, 21)

	assert.InDelta(t, 1, s.SpeedError(), 1e-12)
	assert.InDelta(t, 15, s.VLead, 1e-12)
	assert.InDelta(t, -5, s.VRel, 1e-12)
}

func TestVisionLeadLowProbabilityResets(t *testing.T) {
	s := NewVisionLeadState()
	s.Update(lead(0.9, 11.52, 1, 15, 1), 20, 20)
	assert.InDelta(t, 1.35, s.ALeadTau, 1e-12)

	s.Update(lead(0.5, 50, 1, 30, 1), 20, 20)
	assert.False(t, s.Confident())
	assert.Zero(t, s.DRel)
	assert.Zero(t, s.YRel)
	assert.Zero(t, s.VLead)
	assert.Zero(t, s.ALead)
	assert.Zero(t, s.VRel)
	assert.Equal(t, 0.5, s.ModelProb)
	assert.Equal(t, DefaultLeadAccelTau, s.ALeadTau)
	for _, f := range []*FirstOrderFilter{s.speedError, s.dRel, s.yRel, s.vLead, s.aLead} {
		assert.False(t, f.Initialized())
	}

	s.Update(lead(0.9, 31.52, 0, 12, 0), 20, 20)
	assert.InDelta(t, 30, s.DRel, 1e-9, "fresh seed, not blended with stale zeros")
	assert.InDelta(t, 12, s.VLead, 1e-12)
}

func TestVisionLeadWithoutSeriesIsIgnored(t *testing.T) {
	s := NewVisionLeadState()
	s.Update(VisionLead{Prob: 0.99}, 10, 10)

	assert.False(t, s.Confident())
	assert.Zero(t, s.DRel)
	assert.False(t, s.dRel.Initialized())
}
