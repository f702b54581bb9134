package fusion

import "math"

const (
	// DefaultLeadAccelTau decays the lead acceleration to half in about 1 s.
	DefaultLeadAccelTau = 1.5

	// RadarToCamera is how far the radar sits ahead of the camera frame origin (m).
	RadarToCamera = 1.52

	// VEgoStationary is the ego speed below which close radar returns are
	// trusted as leads without model confirmation (m/s).
	VEgoStationary = 4.0

	accelTauThreshold = 0.5
	accelTauDecay     = 0.9
)

// learnLeadAccelTau keeps the default time constant while the lead is not
// accelerating and shrinks it each update while it is.
func learnLeadAccelTau(tau, aLead float64) float64 {
	if math.Abs(aLead) < accelTauThreshold {
		return DefaultLeadAccelTau
	}
	return tau * accelTauDecay
}

// Track follows a single radar return across radar frames.
type Track struct {
	DRel     float64 // longitudinal distance (m)
	YRel     float64 // lateral offset, left positive (m)
	VRel     float64 // relative speed (m/s)
	VLead    float64 // absolute lead speed (m/s)
	VLeadK   float64 // filtered lead speed
	ALeadK   float64 // filtered lead acceleration
	ALeadTau float64
	Cnt      int  // updates received
	Measured bool // false when the radar reports a coasted estimate

	params KalmanParams
	kf     *KF1D
}

// NewTrack seeds the filter at vLead with zero acceleration.
func NewTrack(vLead float64, params KalmanParams) *Track {
	seed := KalmanState{Speed: vLead}
	return &Track{
		VLead:    vLead,
		VLeadK:   vLead,
		ALeadTau: DefaultLeadAccelTau,
		params:   params,
		kf:       NewKF1D(seed, params),
	}
}

// Update records a new radar measurement. The first update only copies the
// seeded state; every later one runs a filter correction on vLead.
func (t *Track) Update(dRel, yRel, vRel, vLead float64, measured bool) {
	t.DRel = dRel
	t.YRel = yRel
	t.VRel = vRel
	t.VLead = vLead
	t.Measured = measured

	if t.Cnt > 0 {
		t.kf.Update(t.VLead)
	}

	s := t.kf.State()
	t.VLeadK = s.Speed
	t.ALeadK = s.Accel
	t.ALeadTau = learnLeadAccelTau(t.ALeadTau, t.ALeadK)

	t.Cnt++
}

// ResetALead re-seeds the filter with a forced acceleration prior.
// Cnt is left alone.
func (t *Track) ResetALead(aLeadK, aLeadTau float64) {
	t.kf = NewKF1D(KalmanState{Speed: t.VLead, Accel: aLeadK}, t.params)
	t.ALeadK = aLeadK
	t.ALeadTau = aLeadTau
}

// ClusterKey is the association feature vector. Lateral offset counts
// double because radar is least accurate in that axis.
func (t *Track) ClusterKey() [3]float64 {
	return [3]float64{t.DRel, t.YRel * 2, t.VRel}
}

// KalmanState returns the filter's current state.
func (t *Track) KalmanState() KalmanState {
	return t.kf.State()
}

// Snapshot copies the fields a Cluster aggregates.
func (t *Track) Snapshot() TrackSnapshot {
	return TrackSnapshot{
		DRel:     t.DRel,
		YRel:     t.YRel,
		VRel:     t.VRel,
		VLead:    t.VLead,
		VLeadK:   t.VLeadK,
		ALeadK:   t.ALeadK,
		ALeadTau: t.ALeadTau,
		Cnt:      t.Cnt,
		Measured: t.Measured,
	}
}
