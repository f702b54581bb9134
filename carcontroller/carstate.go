package carcontroller

import (
	"github.com/pkg/errors"
	"go.einride.tech/can"

	"mqb-assist-core/utils"
)

const (
	kphToMs = 1 / 3.6

	// standstillSpeed is the wheel speed below which the car is stopped (m/s).
	standstillSpeed = 0.1
)

// CarState is the vehicle snapshot used by the controller.
type CarState struct {
	VEgo                float64 // m/s
	SteeringAngleDeg    float64
	Standstill          bool
	ACCActive           bool
	DriverTorque        int // HCA units, signed
	Buttons             Buttons
	MainSwitchIndicator bool
	ButtonTypeInfo      int
	TipStufe2           bool
}

var carStateFrames = map[string][]string{
	"ESP_21":     {"ESP_v_Signal"},
	"LH_EPS_03":  {"EPS_Lenkmoment", "EPS_VZ_Lenkmoment"},
	"LWI_01":     {"LWI_Lenkradwinkel", "LWI_VZ_Lenkradwinkel"},
	"TSK_06":     {"TSK_Status"},
	"GRA_ACC_01": graSignals,
}

// CarStateParser folds received powertrain frames into a CarState.
type CarStateParser struct {
	cmap  *utils.CANMap
	state CarState
	seen  map[string]bool
}

// NewCarStateParser fails when the map lacks any frame the parser decodes.
func NewCarStateParser(cmap *utils.CANMap) (*CarStateParser, error) {
	if err := cmap.Require(carStateFrames); err != nil {
		return nil, errors.Wrap(err, "car state")
	}
	return &CarStateParser{cmap: cmap, state: CarState{Standstill: true}, seen: map[string]bool{}}, nil
}

// Update decodes f and reports whether it was a car state frame. Frames
// the map does not know are ignored.
func (p *CarStateParser) Update(f can.Frame) (bool, error) {
	fd, err := p.cmap.FrameByID(f.ID)
	if err != nil || !fd.Receives() {
		return false, nil
	}
	if _, ok := carStateFrames[fd.Name]; !ok {
		return false, nil
	}
	v, err := p.cmap.DecodeEinrideFrame(f)
	if err != nil {
		return false, err
	}

	s := &p.state
	switch fd.Name {
	case "ESP_21":
		s.VEgo = v["ESP_v_Signal"] * kphToMs
		s.Standstill = s.VEgo < standstillSpeed
	case "LH_EPS_03":
		torque := int(v["EPS_Lenkmoment"])
		if v["EPS_VZ_Lenkmoment"] != 0 {
			torque = -torque
		}
		s.DriverTorque = torque
	case "LWI_01":
		s.SteeringAngleDeg = v["LWI_Lenkradwinkel"]
		if v["LWI_VZ_Lenkradwinkel"] != 0 {
			s.SteeringAngleDeg = -s.SteeringAngleDeg
		}
	case "TSK_06":
		switch int(v["TSK_Status"]) {
		case 3, 4, 5:
			s.ACCActive = true
		default:
			s.ACCActive = false
		}
	case "GRA_ACC_01":
		s.Buttons = buttonsFromSignals(v)
		s.MainSwitchIndicator = v["GRA_Typ_Hauptschalter"] != 0
		s.ButtonTypeInfo = int(v["GRA_ButtonTypeInfo"])
		s.TipStufe2 = v["GRA_Tip_Stufe_2"] != 0
	}
	p.seen[fd.Name] = true
	return true, nil
}

func (p *CarStateParser) State() CarState {
	return p.state
}

// Complete reports whether every car state frame has been received at least once.
func (p *CarStateParser) Complete() bool {
	return len(p.seen) == len(carStateFrames)
}
