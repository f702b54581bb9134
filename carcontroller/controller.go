package carcontroller

import (
	"github.com/pkg/errors"

	"mqb-assist-core/utils"
)

// Inputs is everything one control frame needs.
type Inputs struct {
	Enabled          bool
	CarState         CarState
	SteerFraction    float64
	VisualAlert      VisualAlert
	AudibleAlert     AudibleAlert
	LeftLaneVisible  bool
	RightLaneVisible bool
}

// CarController runs the steering, HUD and cruise button paths. The three
// paths share the frame counter but are otherwise independent.
type CarController struct {
	params   Params
	bus      BusConfig
	packer   Packer
	steering *SteeringController
	buttons  *ButtonArbiter
	log      *utils.Logger
}

// NewCarController validates params and logs the calibration in use. A
// limiter may be supplied for platforms with a non-standard torque curve;
// nil selects the standard limits from params.
func NewCarController(params Params, bus BusConfig, packer Packer, limiter TorqueLimiter, log *utils.Logger) (*CarController, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Wrap(err, "car controller params")
	}
	if packer == nil {
		return nil, errors.New("car controller: packer is required")
	}
	if limiter == nil {
		limiter = params.TorqueLimits()
	}

	log.Info("HCA step=%d LDW step=%d GRA step=%d bus gateway=%d extended=%d",
		params.HCAStep, params.LDWStep, params.GRAStep, bus.Gateway, bus.Extended)
	log.Info("steer max=%d delta up=%d down=%d driver allowance=%d multiplier=%d factor=%d",
		params.SteerMax, params.SteerDeltaUp, params.SteerDeltaDown,
		params.SteerDriverAllowance, params.SteerDriverMultiplier, params.SteerDriverFactor)
	log.Info("resume window=%d ticks press=%d frames", params.ResumeWindowTicks, params.PressFrames)

	return &CarController{
		params:   params,
		bus:      bus,
		packer:   packer,
		steering: NewSteeringController(params.HCAStep, params.SteerMax, limiter),
		buttons:  NewButtonArbiter(params.GRAStep, params.ResumeWindowTicks, params.PressFrames),
		log:      log,
	}, nil
}

// Update runs one control frame and returns the messages due on it.
//
// The caller must invoke Update exactly once per control frame with frame
// strictly increasing by one. Skipped or repeated frames shift message
// cadence and rolling counters; they are not detected here.
func (c *CarController) Update(frame uint64, in Inputs) ([]Message, error) {
	var out []Message
	cs := in.CarState

	if cmd, ok := c.steering.Update(frame, SteeringInput{
		Enabled:       in.Enabled,
		ACCActive:     cs.ACCActive,
		Standstill:    cs.Standstill,
		DriverTorque:  cs.DriverTorque,
		SteerFraction: in.SteerFraction,
	}); ok {
		f, err := c.packer.PackSteering(cmd)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d: pack HCA_01", frame)
		}
		out = append(out, Message{Bus: c.bus.Gateway, Frame: f})
		if c.log.Enabled(utils.TRACE) {
			c.log.Trace("frame=%d HCA torque=%d active=%v idx=%d", frame, cmd.Torque, cmd.LaneKeepActive, cmd.Counter)
		}
	}

	if frame%uint64(c.params.LDWStep) == 0 {
		msg := EncodeHUD(HUDInput{
			Enabled:          in.Enabled,
			Standstill:       cs.Standstill,
			Visual:           in.VisualAlert,
			Audible:          in.AudibleAlert,
			LeftLaneVisible:  in.LeftLaneVisible,
			RightLaneVisible: in.RightLaneVisible,
		})
		f, err := c.packer.PackHUD(msg)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d: pack LDW_02", frame)
		}
		out = append(out, Message{Bus: c.bus.Gateway, Frame: f})
	}

	if msg, ok := c.buttons.Update(frame, ButtonInput{
		Enabled:             in.Enabled,
		ACCActive:           cs.ACCActive,
		Standstill:          cs.Standstill,
		Raw:                 cs.Buttons,
		MainSwitchIndicator: cs.MainSwitchIndicator,
		ButtonTypeInfo:      cs.ButtonTypeInfo,
		TipStufe2:           cs.TipStufe2,
	}); ok {
		f, err := c.packer.PackButtons(msg)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d: pack GRA_ACC_01", frame)
		}
		out = append(out, Message{Bus: c.bus.Extended, Frame: f})
		if kind, _ := c.buttons.Pending(); kind != InjectNone {
			c.log.Debug("frame=%d GRA buttons=%s injected=%s", frame, msg.Buttons, kind)
		}
	}

	return out, nil
}

// LastTorque is the most recent HCA torque request.
func (c *CarController) LastTorque() int {
	return c.steering.LastTorque()
}

func (c *CarController) Params() Params {
	return c.params
}
