package fusion

import "fmt"

// RadarState is the lead estimate handed to longitudinal planning.
type RadarState struct {
	DRel      float64 `json:"dRel"`
	YRel      float64 `json:"yRel"`
	VRel      float64 `json:"vRel"`
	VLead     float64 `json:"vLead"`
	VLeadK    float64 `json:"vLeadK"`
	ALeadK    float64 `json:"aLeadK"`
	ALeadTau  float64 `json:"aLeadTau"`
	Status    bool    `json:"status"`
	FCW       bool    `json:"fcw"`
	ModelProb float64 `json:"modelProb"`
	Radar     bool    `json:"radar"`
}

func (s RadarState) String() string {
	if !s.Status {
		return "no lead"
	}
	src := "vision"
	if s.Radar {
		src = "radar"
	}
	return fmt.Sprintf("%s x: %4.1f  y: %4.1f  v: %4.1f  a: %4.1f  prob: %.2f",
		src, s.DRel, s.YRel, s.VRel, s.ALeadK, s.ModelProb)
}
