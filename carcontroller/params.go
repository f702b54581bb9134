// Package carcontroller turns per-frame lateral and cruise intent into the
// MQB platform's HCA_01, LDW_02 and GRA_ACC_01 messages.
package carcontroller

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Params is the calibration table for one platform. Steps are in control
// frames (100 Hz); torques are in HCA units (centi-Nm).
type Params struct {
	HCAStep int `yaml:"hca_step"` // HCA_01 period
	LDWStep int `yaml:"ldw_step"` // LDW_02 period
	GRAStep int `yaml:"gra_step"` // GRA_ACC_01 period

	// Documented MQB limits: 3.00 Nm max, full scale reached in 0.6 s.
	SteerMax              int `yaml:"steer_max"`
	SteerDeltaUp          int `yaml:"steer_delta_up"`
	SteerDeltaDown        int `yaml:"steer_delta_down"`
	SteerDriverAllowance  int `yaml:"steer_driver_allowance"`
	SteerDriverMultiplier int `yaml:"steer_driver_multiplier"`
	SteerDriverFactor     int `yaml:"steer_driver_factor"`

	ResumeWindowTicks int `yaml:"resume_window_ticks"` // GRA ticks between resume presses at standstill
	PressFrames       int `yaml:"press_frames"`        // synthetic press length
}

// DefaultMQBParams is the table shared by all supported MQB cars.
func DefaultMQBParams() Params {
	return Params{
		HCAStep: 2,
		LDWStep: 10,
		GRAStep: 3,

		SteerMax:              300,
		SteerDeltaUp:          10,
		SteerDeltaDown:        10,
		SteerDriverAllowance:  100,
		SteerDriverMultiplier: 4,
		SteerDriverFactor:     1,

		ResumeWindowTicks: 33,
		PressFrames:       20,
	}
}

// Validate rejects tables the state machines cannot run safely with.
func (p Params) Validate() error {
	positive := map[string]int{
		"hca_step":                p.HCAStep,
		"ldw_step":                p.LDWStep,
		"gra_step":                p.GRAStep,
		"steer_max":               p.SteerMax,
		"steer_delta_up":          p.SteerDeltaUp,
		"steer_delta_down":        p.SteerDeltaDown,
		"steer_driver_multiplier": p.SteerDriverMultiplier,
		"steer_driver_factor":     p.SteerDriverFactor,
		"resume_window_ticks":     p.ResumeWindowTicks,
		"press_frames":            p.PressFrames,
	}
	for _, name := range sortedKeys(positive) {
		if positive[name] <= 0 {
			return errors.Errorf("%s must be positive, got %d", name, positive[name])
		}
	}
	if p.SteerDriverAllowance < 0 {
		return errors.Errorf("steer_driver_allowance must not be negative, got %d", p.SteerDriverAllowance)
	}
	if p.SteerMax > hcaTorqueLimit {
		return errors.Errorf("steer_max %d exceeds HCA_01 range %d", p.SteerMax, hcaTorqueLimit)
	}
	if p.SteerDeltaUp > p.SteerMax || p.SteerDeltaDown > p.SteerMax {
		return errors.Errorf("steer deltas (%d up, %d down) exceed steer_max %d", p.SteerDeltaUp, p.SteerDeltaDown, p.SteerMax)
	}
	if p.PressFrames >= p.GRAStep*p.ResumeWindowTicks {
		return errors.Errorf("press_frames %d must be shorter than the resume window (%d frames)",
			p.PressFrames, p.GRAStep*p.ResumeWindowTicks)
	}
	return nil
}

// TorqueLimits returns the standard limiter for this table.
func (p Params) TorqueLimits() StdTorqueLimits {
	return StdTorqueLimits{
		SteerMax:         p.SteerMax,
		DeltaUp:          p.SteerDeltaUp,
		DeltaDown:        p.SteerDeltaDown,
		DriverAllowance:  p.SteerDriverAllowance,
		DriverMultiplier: p.SteerDriverMultiplier,
		DriverFactor:     p.SteerDriverFactor,
	}
}

// Supported fingerprints.
const (
	GolfMk7     = "VOLKSWAGEN GOLF 7TH GEN"
	JettaMk7    = "VOLKSWAGEN JETTA 7TH GEN"
	PassatB8    = "VOLKSWAGEN PASSAT 8TH GEN"
	TiguanMk2   = "VOLKSWAGEN TIGUAN 2ND GEN"
	AudiA3Mk3   = "AUDI A3 3RD GEN"
	SkodaOctav3 = "SKODA OCTAVIA 3RD GEN"
)

var platforms = map[string]Params{
	GolfMk7:     DefaultMQBParams(),
	JettaMk7:    DefaultMQBParams(),
	PassatB8:    DefaultMQBParams(),
	TiguanMk2:   DefaultMQBParams(),
	AudiA3Mk3:   DefaultMQBParams(),
	SkodaOctav3: DefaultMQBParams(),
}

// ParamsForFingerprint looks up the table for a detected car. Unknown cars
// are an error; there is no generic fallback.
func ParamsForFingerprint(fingerprint string) (Params, error) {
	p, ok := platforms[fingerprint]
	if !ok {
		return Params{}, errors.Errorf("unsupported fingerprint %q (supported: %v)", fingerprint, Fingerprints())
	}
	return p, nil
}

// Fingerprints lists supported cars.
func Fingerprints() []string {
	return sortedKeys(platforms)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
