package carcontroller

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// BusConfig routes messages to CAN buses.
type BusConfig struct {
	Gateway  int `yaml:"gateway"`  // HCA_01, LDW_02
	Extended int `yaml:"extended"` // GRA_ACC_01 towards the ACC radar
}

// ParamOverrides replaces individual calibration values. Nil fields keep
// the platform value.
type ParamOverrides struct {
	SteerMax              *int `yaml:"steer_max"`
	SteerDeltaUp          *int `yaml:"steer_delta_up"`
	SteerDeltaDown        *int `yaml:"steer_delta_down"`
	SteerDriverAllowance  *int `yaml:"steer_driver_allowance"`
	SteerDriverMultiplier *int `yaml:"steer_driver_multiplier"`
	SteerDriverFactor     *int `yaml:"steer_driver_factor"`
	ResumeWindowTicks     *int `yaml:"resume_window_ticks"`
	PressFrames           *int `yaml:"press_frames"`
}

// VehicleConfig is the YAML vehicle description.
//
//	fingerprint: VOLKSWAGEN GOLF 7TH GEN
//	bus:
//	  gateway: 0
//	  extended: 2
//	overrides:
//	  steer_max: 250
type VehicleConfig struct {
	Fingerprint string         `yaml:"fingerprint"`
	Bus         BusConfig      `yaml:"bus"`
	Overrides   ParamOverrides `yaml:"overrides"`
}

// DefaultBusConfig matches a camera-harness install.
func DefaultBusConfig() BusConfig {
	return BusConfig{Gateway: 0, Extended: 2}
}

// LoadVehicleConfig reads and strictly parses a YAML vehicle config.
func LoadVehicleConfig(path string) (VehicleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return VehicleConfig{}, errors.Wrap(err, "read vehicle config")
	}
	return ParseVehicleConfig(data)
}

// ParseVehicleConfig rejects unknown keys so typos fail at startup.
func ParseVehicleConfig(data []byte) (VehicleConfig, error) {
	cfg := VehicleConfig{Bus: DefaultBusConfig()}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return VehicleConfig{}, errors.Wrap(err, "parse vehicle config")
	}
	if cfg.Fingerprint == "" {
		return VehicleConfig{}, errors.New("vehicle config: fingerprint is required")
	}
	if cfg.Bus.Gateway < 0 || cfg.Bus.Extended < 0 {
		return VehicleConfig{}, errors.Errorf("vehicle config: bus numbers must not be negative (%+v)", cfg.Bus)
	}
	return cfg, nil
}

// Params resolves the fingerprint, applies overrides and validates the result.
func (c VehicleConfig) Params() (Params, error) {
	p, err := ParamsForFingerprint(c.Fingerprint)
	if err != nil {
		return Params{}, err
	}

	o := c.Overrides
	apply := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&p.SteerMax, o.SteerMax)
	apply(&p.SteerDeltaUp, o.SteerDeltaUp)
	apply(&p.SteerDeltaDown, o.SteerDeltaDown)
	apply(&p.SteerDriverAllowance, o.SteerDriverAllowance)
	apply(&p.SteerDriverMultiplier, o.SteerDriverMultiplier)
	apply(&p.SteerDriverFactor, o.SteerDriverFactor)
	apply(&p.ResumeWindowTicks, o.ResumeWindowTicks)
	apply(&p.PressFrames, o.PressFrames)

	if err := p.Validate(); err != nil {
		return Params{}, errors.Wrapf(err, "%s", c.Fingerprint)
	}
	return p, nil
}
