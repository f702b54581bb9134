package main

import "github.com/pkg/errors"

// AnglePIDConfig holds steering angle PID parameters. Output is a steer
// fraction.
type AnglePIDConfig struct {
	Kp            float64 `json:"kp"`
	Ki            float64 `json:"ki"`
	Kd            float64 `json:"kd"`
	MaxOutput     float64 `json:"max_output"` // symmetric saturation, at most 1
	IntegralLimit float64 `json:"integral_limit"`
}

func (c AnglePIDConfig) Validate() error {
	if c.Kp < 0 || c.Ki < 0 || c.Kd < 0 {
		return errors.Errorf("gains must not be negative (kp=%g ki=%g kd=%g)", c.Kp, c.Ki, c.Kd)
	}
	if c.MaxOutput <= 0 || c.MaxOutput > 1 {
		return errors.Errorf("max_output %g must be in (0, 1]", c.MaxOutput)
	}
	if c.IntegralLimit < 0 {
		return errors.Errorf("integral_limit %g must not be negative", c.IntegralLimit)
	}
	return nil
}

// AnglePID tracks a steering wheel angle by commanding steer fraction.
type AnglePID struct {
	cfg AnglePIDConfig

	integral    float64
	prevError   float64
	initialized bool
}

func NewAnglePID(cfg AnglePIDConfig) *AnglePID {
	return &AnglePID{cfg: cfg}
}

// Reset clears the PID state. The runner calls it while steering is disengaged.
func (pid *AnglePID) Reset() {
	pid.integral = 0
	pid.prevError = 0
	pid.initialized = false
}

// Update returns the steer fraction for the angle error target-measured.
func (pid *AnglePID) Update(targetDeg, measuredDeg, dt float64) float64 {
	err := targetDeg - measuredDeg

	// No derivative on the first sample.
	if !pid.initialized {
		pid.prevError = err
		pid.initialized = true
	}

	p := pid.cfg.Kp * err

	pid.integral += err * dt
	pid.integral = clampFloat(pid.integral, -pid.cfg.IntegralLimit, pid.cfg.IntegralLimit)
	i := pid.cfg.Ki * pid.integral

	var d float64
	if dt > 0 {
		d = pid.cfg.Kd * (err - pid.prevError) / dt
	}

	out := p + i + d
	if sat := clampFloat(out, -pid.cfg.MaxOutput, pid.cfg.MaxOutput); sat != out {
		// Anti-windup: back-calculate the integral that yields the limit.
		if pid.cfg.Ki > 0 {
			pid.integral = (sat - p - d) / pid.cfg.Ki
		}
		out = sat
	}

	pid.prevError = err
	return out
}

// Diagnostics returns the current state for logging.
func (pid *AnglePID) Diagnostics() PIDDiagnostics {
	return PIDDiagnostics{
		Error:    pid.prevError,
		Integral: pid.integral,
		P:        pid.cfg.Kp * pid.prevError,
		I:        pid.cfg.Ki * pid.integral,
	}
}

// PIDDiagnostics contains PID internal state for monitoring
type PIDDiagnostics struct {
	Error    float64
	Integral float64
	P        float64
	I        float64
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
