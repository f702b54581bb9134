package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"mqb-assist-core/carcontroller"
)

// Control modes.
const (
	ModeFraction = "fraction"  // segments give the steer fraction directly
	ModeAnglePID = "angle_pid" // segments give a steering angle tracked by AnglePID
)

// Scenario defines a complete test scenario
type Scenario struct {
	Meta      ScenarioMeta      `json:"meta"`
	Timing    ScenarioTiming    `json:"timing"`
	Defaults  Command           `json:"defaults"`
	Segments  []ScenarioSegment `json:"segments"`
	PIDConfig *AnglePIDConfig   `json:"pid_config,omitempty"` // required in angle_pid mode
}

// ScenarioMeta contains scenario metadata
type ScenarioMeta struct {
	Name        string `json:"name"`
	Version     int    `json:"version"`
	Description string `json:"description"`
	ControlMode string `json:"control_mode,omitempty"`
}

// ScenarioTiming defines timing parameters
type ScenarioTiming struct {
	DurationS float64 `json:"duration_s"`
}

// LeadTarget places a simulated lead car relative to the ego car.
type LeadTarget struct {
	DRel       float64 `json:"d_rel"`
	YRel       float64 `json:"y_rel"`
	VLead      float64 `json:"v_lead"`
	ALead      float64 `json:"a_lead"`
	Radar      bool    `json:"radar"`       // seen by the radar
	VisionProb float64 `json:"vision_prob"` // model confidence, 0 when unseen
}

// Command is what the scenario asks of the controller at one instant.
type Command struct {
	Enabled       bool                       `json:"enabled"`
	SteerFraction float64                    `json:"steer_fraction"`
	SteerAngleDeg float64                    `json:"steer_angle_deg"`
	VisualAlert   carcontroller.VisualAlert  `json:"visual_alert"`
	AudibleAlert  carcontroller.AudibleAlert `json:"audible_alert"`
	LeftLane      bool                       `json:"left_lane"`
	RightLane     bool                       `json:"right_lane"`
	Lead          *LeadTarget                `json:"lead,omitempty"`
}

// ScenarioSegment overrides the defaults during [T0, T1). A negative T1
// runs to the end. Nil pointer fields keep the default.
type ScenarioSegment struct {
	T0            float64                    `json:"t0"`
	T1            float64                    `json:"t1"`
	Enabled       *bool                      `json:"enabled,omitempty"`
	SteerFraction float64                    `json:"steer_fraction,omitempty"`
	SteerAngleDeg float64                    `json:"steer_angle_deg,omitempty"`
	VisualAlert   carcontroller.VisualAlert  `json:"visual_alert,omitempty"`
	AudibleAlert  carcontroller.AudibleAlert `json:"audible_alert,omitempty"`
	LeftLane      *bool                      `json:"left_lane,omitempty"`
	RightLane     *bool                      `json:"right_lane,omitempty"`
	Lead          *LeadTarget                `json:"lead,omitempty"`
	Comment       string                     `json:"comment,omitempty"`
}

// LoadScenario loads a scenario from JSON file
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, errors.Wrap(err, "read scenario")
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (Scenario, error) {
	var scen Scenario
	if err := json.Unmarshal(data, &scen); err != nil {
		return Scenario{}, errors.Wrap(err, "unmarshal scenario")
	}

	if scen.Timing.DurationS <= 0 {
		return Scenario{}, errors.Errorf("invalid duration_s: %f", scen.Timing.DurationS)
	}

	if scen.Meta.ControlMode == "" {
		scen.Meta.ControlMode = ModeFraction
	}

	switch scen.Meta.ControlMode {
	case ModeFraction:
	case ModeAnglePID:
		if scen.PIDConfig == nil {
			return Scenario{}, errors.New("angle_pid mode requires pid_config")
		}
		if err := scen.PIDConfig.Validate(); err != nil {
			return Scenario{}, errors.Wrap(err, "pid_config")
		}
	default:
		return Scenario{}, errors.Errorf("unknown control_mode %q", scen.Meta.ControlMode)
	}

	for i, seg := range scen.Segments {
		if seg.T1 >= 0 && seg.T1 <= seg.T0 {
			return Scenario{}, errors.Errorf("segment %d: t1 %.3f must be after t0 %.3f", i, seg.T1, seg.T0)
		}
		if seg.SteerFraction < -1 || seg.SteerFraction > 1 {
			return Scenario{}, errors.Errorf("segment %d: steer_fraction %.3f outside [-1, 1]", i, seg.SteerFraction)
		}
	}

	return scen, nil
}

// Eval returns the command at time t. The first matching segment wins.
func (s *Scenario) Eval(t float64) Command {
	cmd := s.Defaults

	for _, seg := range s.Segments {
		t1 := seg.T1
		if t1 < 0 {
			t1 = s.Timing.DurationS
		}
		if t < seg.T0 || t >= t1 {
			continue
		}

		if seg.Enabled != nil {
			cmd.Enabled = *seg.Enabled
		}
		if seg.LeftLane != nil {
			cmd.LeftLane = *seg.LeftLane
		}
		if seg.RightLane != nil {
			cmd.RightLane = *seg.RightLane
		}
		cmd.SteerFraction = seg.SteerFraction
		cmd.SteerAngleDeg = seg.SteerAngleDeg
		cmd.VisualAlert = seg.VisualAlert
		cmd.AudibleAlert = seg.AudibleAlert
		if seg.Lead != nil {
			cmd.Lead = seg.Lead
		}
		break
	}

	return cmd
}
