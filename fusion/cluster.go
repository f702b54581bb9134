package fusion

import (
	"fmt"
	"math"

	"github.com/samber/lo"
)

// fcwModelProb is the vision confidence above which a lead may raise FCW.
const fcwModelProb = 0.9

// TrackSnapshot is a frozen copy of the Track fields used for aggregation.
type TrackSnapshot struct {
	DRel, YRel, VRel, VLead float64
	VLeadK, ALeadK          float64
	ALeadTau                float64
	Cnt                     int
	Measured                bool
}

// Cluster aggregates tracks believed to be the same object. Members are
// snapshotted when the cluster is built, so later track updates do not
// leak into an estimate already handed out.
type Cluster struct {
	members []TrackSnapshot
}

// NewCluster panics when given no tracks: grouping must never produce an
// empty cluster.
func NewCluster(tracks ...*Track) *Cluster {
	if len(tracks) == 0 {
		panic("fusion: cluster needs at least one track")
	}
	return &Cluster{
		members: lo.Map(tracks, func(t *Track, _ int) TrackSnapshot { return t.Snapshot() }),
	}
}

func (c *Cluster) Len() int { return len(c.members) }

func (c *Cluster) DRel() float64   { return meanBy(c.members, func(m TrackSnapshot) float64 { return m.DRel }) }
func (c *Cluster) YRel() float64   { return meanBy(c.members, func(m TrackSnapshot) float64 { return m.YRel }) }
func (c *Cluster) VRel() float64   { return meanBy(c.members, func(m TrackSnapshot) float64 { return m.VRel }) }
func (c *Cluster) VLead() float64  { return meanBy(c.members, func(m TrackSnapshot) float64 { return m.VLead }) }
func (c *Cluster) VLeadK() float64 { return meanBy(c.members, func(m TrackSnapshot) float64 { return m.VLeadK }) }

// ALeadK averages only tracks that have had at least one filter correction.
func (c *Cluster) ALeadK() float64 {
	corrected := c.corrected()
	if len(corrected) == 0 {
		return 0
	}
	return meanBy(corrected, func(m TrackSnapshot) float64 { return m.ALeadK })
}

// ALeadTau follows the same member selection as ALeadK.
func (c *Cluster) ALeadTau() float64 {
	corrected := c.corrected()
	if len(corrected) == 0 {
		return DefaultLeadAccelTau
	}
	return meanBy(corrected, func(m TrackSnapshot) float64 { return m.ALeadTau })
}

func (c *Cluster) Measured() bool {
	return lo.SomeBy(c.members, func(m TrackSnapshot) bool { return m.Measured })
}

func (c *Cluster) IsPotentialFCW(modelProb float64) bool {
	return modelProb > fcwModelProb
}

// PotentialLowSpeedLead reports a close, centred return at low ego speed.
// Returns nearer than 0.75 m are nearly always radar glitches.
func (c *Cluster) PotentialLowSpeedLead(vEgo float64) bool {
	dRel := c.DRel()
	return math.Abs(c.YRel()) < 1.0 && vEgo < VEgoStationary && dRel > 0.75 && dRel < 25
}

// RadarState reports the cluster as a radar-sourced lead.
func (c *Cluster) RadarState(modelProb float64) RadarState {
	return RadarState{
		DRel:      c.DRel(),
		YRel:      c.YRel(),
		VRel:      c.VRel(),
		VLead:     c.VLead(),
		VLeadK:    c.VLeadK(),
		ALeadK:    c.ALeadK(),
		ALeadTau:  c.ALeadTau(),
		Status:    true,
		FCW:       c.IsPotentialFCW(modelProb),
		ModelProb: modelProb,
		Radar:     true,
	}
}

func (c *Cluster) String() string {
	return fmt.Sprintf("x: %4.1f  y: %4.1f  v: %4.1f  a: %4.1f", c.DRel(), c.YRel(), c.VRel(), c.ALeadK())
}

func (c *Cluster) corrected() []TrackSnapshot {
	return lo.Filter(c.members, func(m TrackSnapshot, _ int) bool { return m.Cnt > 1 })
}

// RadarStateFromVision reports the vision lead. Speed and acceleration are
// the vision filter outputs as-is; no Kalman pass is applied.
func RadarStateFromVision(v *VisionLeadState) RadarState {
	return RadarState{
		DRel:      v.DRel,
		YRel:      v.YRel,
		VRel:      v.VRel,
		VLead:     v.VLead,
		VLeadK:    v.VLead,
		ALeadK:    v.ALead,
		ALeadTau:  v.ALeadTau,
		Status:    true,
		FCW:       v.ModelProb > fcwModelProb,
		ModelProb: v.ModelProb,
		Radar:     false,
	}
}

func meanBy(members []TrackSnapshot, f func(TrackSnapshot) float64) float64 {
	return lo.SumBy(members, f) / float64(len(members))
}
