package fusion

const (
	// DTModel is the vision model's output period (s).
	DTModel = 0.05

	visionFilterTC = 0.2
	visionMinProb  = 0.5
)

// VisionLead is the model's lead prediction. Index 0 of each series is the
// current time step.
type VisionLead struct {
	Prob float64
	X    []float64
	Y    []float64
	V    []float64
	A    []float64
}

func (l VisionLead) usable() bool {
	return l.Prob > visionMinProb && len(l.X) > 0 && len(l.Y) > 0 && len(l.V) > 0 && len(l.A) > 0
}

// VisionLeadState low-pass filters the model lead for use when no radar
// track is available.
type VisionLeadState struct {
	DRel      float64
	YRel      float64
	VRel      float64
	VLead     float64
	ALead     float64
	ModelProb float64
	ALeadTau  float64

	confident  bool
	speedError *FirstOrderFilter
	dRel       *FirstOrderFilter
	yRel       *FirstOrderFilter
	vLead      *FirstOrderFilter
	aLead      *FirstOrderFilter
}

func NewVisionLeadState() *VisionLeadState {
	return &VisionLeadState{
		ALeadTau:   DefaultLeadAccelTau,
		speedError: NewFirstOrderFilter(0, visionFilterTC, DTModel, false),
		dRel:       NewFirstOrderFilter(0, visionFilterTC, DTModel, false),
		yRel:       NewFirstOrderFilter(0, visionFilterTC, DTModel, false),
		vLead:      NewFirstOrderFilter(0, visionFilterTC, DTModel, false),
		aLead:      NewFirstOrderFilter(0, visionFilterTC, DTModel, false),
	}
}

// Update consumes one model frame. vEgo is the wheel-speed ego estimate and
// visionVEgo the model's own; their smoothed difference corrects the lead
// speed. A low-confidence lead zeroes the outputs and resets every filter so
// the next update seeds them afresh.
func (s *VisionLeadState) Update(lead VisionLead, vEgo, visionVEgo float64) {
	s.speedError.Update(visionVEgo - vEgo)

	s.ModelProb = lead.Prob
	s.confident = lead.usable()
	if s.confident {
		s.DRel = s.dRel.Update(lead.X[0] - RadarToCamera)
		s.YRel = s.yRel.Update(-lead.Y[0])
		s.VLead = s.vLead.Update(lead.V[0] - s.speedError.Value())
		s.ALead = s.aLead.Update(lead.A[0])
		s.VRel = s.VLead - vEgo
	} else {
		s.DRel = 0
		s.YRel = 0
		s.VLead = 0
		s.ALead = 0
		s.VRel = 0
		s.speedError.Reset()
		s.dRel.Reset()
		s.yRel.Reset()
		s.vLead.Reset()
		s.aLead.Reset()
	}

	s.ALeadTau = learnLeadAccelTau(s.ALeadTau, s.ALead)
}

// SpeedError is the smoothed vision minus wheel ego speed.
func (s *VisionLeadState) SpeedError() float64 {
	return s.speedError.Value()
}

// Confident reports whether the last model frame carried a usable lead.
func (s *VisionLeadState) Confident() bool {
	return s.confident
}
