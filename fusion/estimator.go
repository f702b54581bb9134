package fusion

import (
	"sort"

	"github.com/samber/lo"

	"mqb-assist-core/utils"
)

// Detection is one radar return. Ids are stable for as long as the radar
// keeps the object.
type Detection struct {
	TrackID  int
	DRel     float64
	YRel     float64
	VRel     float64
	Measured bool
}

// LeadEstimator keeps a Track per radar id between radar frames and turns
// the upstream-selected lead group into a RadarState.
//
// Calls are not synchronised; drive it from the radar loop only.
type LeadEstimator struct {
	params KalmanParams
	tracks map[int]*Track
	vision *VisionLeadState
	log    *utils.Logger
}

// NewLeadEstimator fails when radarDt is outside the tabulated gain range.
func NewLeadEstimator(radarDt float64, log *utils.Logger) (*LeadEstimator, error) {
	params, err := NewKalmanParams(radarDt)
	if err != nil {
		return nil, err
	}
	log.Debug("lead filter dt=%.3f K=[%.5f %.5f]", params.Dt, params.K.AtVec(0), params.K.AtVec(1))
	return &LeadEstimator{
		params: params,
		tracks: map[int]*Track{},
		vision: NewVisionLeadState(),
		log:    log,
	}, nil
}

// UpdateTracks ingests a radar frame. Tracks whose id is absent are dropped;
// new ids start a Track seeded at their absolute speed. Only the first
// detection of a repeated id is used.
func (e *LeadEstimator) UpdateTracks(detections []Detection, vEgo float64) {
	seen := lo.SliceToMap(detections, func(d Detection) (int, struct{}) { return d.TrackID, struct{}{} })
	for id := range e.tracks {
		if _, ok := seen[id]; !ok {
			e.log.Trace("radar track %d lost", id)
			delete(e.tracks, id)
		}
	}

	updated := make(map[int]bool, len(detections))
	for _, d := range detections {
		if updated[d.TrackID] {
			e.log.Warn("radar track %d repeated in one frame; ignored", d.TrackID)
			continue
		}
		updated[d.TrackID] = true

		vLead := d.VRel + vEgo
		t, ok := e.tracks[d.TrackID]
		if !ok {
			t = NewTrack(vLead, e.params)
			e.tracks[d.TrackID] = t
			e.log.Trace("radar track %d new at d=%.1f v=%.1f", d.TrackID, d.DRel, vLead)
		}
		t.Update(d.DRel, d.YRel, d.VRel, vLead, d.Measured)
	}
}

// UpdateVision ingests a model frame.
func (e *LeadEstimator) UpdateVision(lead VisionLead, vEgo, visionVEgo float64) {
	e.vision.Update(lead, vEgo, visionVEgo)
}

// Lead builds the estimate for the given group of track ids. Unknown ids are
// ignored. With no radar member the vision lead is used when confident;
// otherwise the result has Status false.
func (e *LeadEstimator) Lead(group []int) RadarState {
	if c, ok := e.Cluster(group); ok {
		return c.RadarState(e.vision.ModelProb)
	}
	if e.vision.Confident() {
		return RadarStateFromVision(e.vision)
	}
	return RadarState{ALeadTau: DefaultLeadAccelTau}
}

// Cluster returns the aggregate for group, or false when no id is tracked.
// Repeated ids count once.
func (e *LeadEstimator) Cluster(group []int) (*Cluster, bool) {
	members := lo.FilterMap(lo.Uniq(group), func(id int, _ int) (*Track, bool) {
		t, ok := e.tracks[id]
		return t, ok
	})
	if len(members) == 0 {
		return nil, false
	}
	return NewCluster(members...), true
}

// Track returns the live track for id, e.g. to apply ResetALead.
func (e *LeadEstimator) Track(id int) (*Track, bool) {
	t, ok := e.tracks[id]
	return t, ok
}

// TrackIDs lists tracked ids in ascending order.
func (e *LeadEstimator) TrackIDs() []int {
	ids := lo.Keys(e.tracks)
	sort.Ints(ids)
	return ids
}

func (e *LeadEstimator) Vision() *VisionLeadState {
	return e.vision
}
