package carcontroller

import "math"

// SteeringCommand is the content of one HCA_01 message.
type SteeringCommand struct {
	Torque         int   // HCA units, signed
	LaneKeepActive bool  // HCA actively steering
	Counter        uint8 // 0..15
}

// SteeringInput is what the steering path needs from a control frame.
type SteeringInput struct {
	Enabled       bool    // assist engaged
	ACCActive     bool    // platform cruise engaged
	Standstill    bool
	DriverTorque  int     // driver torque on the wheel, HCA units
	SteerFraction float64 // requested torque as a fraction of SteerMax, [-1, 1]
}

// SteeringController produces rate-limited HCA_01 torque requests.
//
// Update must be called once per control frame with frame increasing by
// exactly one each call; message cadence and Counter are derived from frame
// alone.
type SteeringController struct {
	step     int
	steerMax int
	limiter  TorqueLimiter
	last     int
}

func NewSteeringController(step, steerMax int, limiter TorqueLimiter) *SteeringController {
	return &SteeringController{step: step, steerMax: steerMax, limiter: limiter}
}

// Update returns a command on HCA frames and false otherwise.
func (c *SteeringController) Update(frame uint64, in SteeringInput) (SteeringCommand, bool) {
	if frame%uint64(c.step) != 0 {
		return SteeringCommand{}, false
	}
	cmd := SteeringCommand{Counter: uint8((frame / uint64(c.step)) % 16)}

	// Torque only with platform ACC engaged (keeps both controllers in
	// agreement) and while moving (the EPS faults otherwise).
	if !(in.Enabled && in.ACCActive && !in.Standstill) {
		c.last = 0
		return cmd, true
	}

	desired := int(math.Round(in.SteerFraction * float64(c.steerMax)))
	torque := clampInt(c.limiter.Limit(desired, c.last, in.DriverTorque), -c.steerMax, c.steerMax)

	// The EPS drops HCA after 180 s of continuous intervention. Releasing
	// HCA for one message at every zero crossing restarts that timer.
	crossing := torque == 0 || (torque > 0 && c.last < 0) || (torque < 0 && c.last > 0)

	c.last = torque
	cmd.Torque = torque
	cmd.LaneKeepActive = !crossing
	return cmd, true
}

// LastTorque is the torque of the most recent command.
func (c *SteeringController) LastTorque() int {
	return c.last
}
