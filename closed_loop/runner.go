package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.einride.tech/can"

	"mqb-assist-core/carcontroller"
	"mqb-assist-core/fusion"
	"mqb-assist-core/utils"
)

const (
	controlPeriod = 10 * time.Millisecond

	// fusionEvery is the number of control frames per radar and model frame.
	fusionEvery = 5

	rxStaleAfter = 500 * time.Millisecond
)

// leadGroup is the radar id group the simulated lead is reported under.
var leadGroup = []int{1, 2}

type RunnerConfig struct {
	GatewayIface  string
	ExtendedIface string // empty: same as GatewayIface
	MapPath       string // empty: embedded MQB map
	ScenarioPath  string
	VehiclePath   string // empty: Golf Mk7 on the default buses
	TracePath     string // empty: no trace
}

type Runner struct {
	id      uuid.UUID
	log     *utils.Logger
	scen    Scenario
	bus     carcontroller.BusConfig
	cc      *carcontroller.CarController
	state   *carcontroller.CarStateParser
	lat     *AnglePID // angle_pid mode only
	leads   *fusion.LeadEstimator
	sim     simLead
	lead    fusion.RadarState
	writers map[int]utils.CANWriter
	reader  utils.CANReader // nil: no car state feedback
	trace   *traceWriter
	closers []io.Closer
	sent    uint64
}

// NewRunner loads the configuration files and opens the CAN sockets.
func NewRunner(ctx context.Context, cfg RunnerConfig, log *utils.Logger) (*Runner, error) {
	cmap, err := loadCANMap(cfg.MapPath)
	if err != nil {
		return nil, err
	}

	scen, err := LoadScenario(cfg.ScenarioPath)
	if err != nil {
		return nil, errors.Wrap(err, "load scenario")
	}

	vehicle := carcontroller.VehicleConfig{Fingerprint: carcontroller.GolfMk7, Bus: carcontroller.DefaultBusConfig()}
	if cfg.VehiclePath != "" {
		if vehicle, err = carcontroller.LoadVehicleConfig(cfg.VehiclePath); err != nil {
			return nil, err
		}
	}

	var closers []io.Closer
	fail := func(err error) (*Runner, error) {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, err
	}

	ifaces := map[int]string{vehicle.Bus.Gateway: cfg.GatewayIface}
	extIface := cfg.ExtendedIface
	if extIface == "" {
		extIface = cfg.GatewayIface
	}
	if vehicle.Bus.Extended != vehicle.Bus.Gateway {
		ifaces[vehicle.Bus.Extended] = extIface
	} else if extIface != cfg.GatewayIface {
		return nil, errors.Errorf("buses %d and %d are the same but interfaces %s and %s differ",
			vehicle.Bus.Gateway, vehicle.Bus.Extended, cfg.GatewayIface, extIface)
	}

	// One socket per interface, shared by buses routed to it.
	byIface := map[string]*utils.SocketCANWriter{}
	writers := map[int]utils.CANWriter{}
	for bus, iface := range ifaces {
		w, ok := byIface[iface]
		if !ok {
			if w, err = utils.NewSocketCANWriter(ctx, iface); err != nil {
				return fail(err)
			}
			byIface[iface] = w
			closers = append(closers, w)
		}
		writers[bus] = w
	}

	reader, err := utils.NewSocketCANReader(ctx, cfg.GatewayIface)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, reader)

	r, err := newRunner(scen, vehicle, cmap, writers, reader, log)
	if err != nil {
		return fail(err)
	}

	if cfg.TracePath != "" {
		f, err := os.Create(cfg.TracePath)
		if err != nil {
			return fail(errors.Wrap(err, "create trace"))
		}
		closers = append(closers, f)
		if r.trace, err = newTraceWriter(f); err != nil {
			return fail(err)
		}
	}

	r.closers = closers
	return r, nil
}

func loadCANMap(path string) (*utils.CANMap, error) {
	if path == "" {
		return utils.LoadDefaultCANMap()
	}
	return utils.LoadCANMap(path)
}

// newRunner wires the controllers around already open transports.
func newRunner(scen Scenario, vehicle carcontroller.VehicleConfig, cmap *utils.CANMap,
	writers map[int]utils.CANWriter, reader utils.CANReader, log *utils.Logger) (*Runner, error) {
	id := uuid.New()
	log = log.WithField("run", id.String())

	for _, bus := range []int{vehicle.Bus.Gateway, vehicle.Bus.Extended} {
		if _, ok := writers[bus]; !ok {
			return nil, errors.Errorf("no writer for bus %d", bus)
		}
	}

	params, err := vehicle.Params()
	if err != nil {
		return nil, err
	}
	packer, err := carcontroller.NewMQBPacker(cmap)
	if err != nil {
		return nil, errors.Wrap(err, "packer")
	}
	cc, err := carcontroller.NewCarController(params, vehicle.Bus, packer, nil, log.WithField("module", "carcontroller"))
	if err != nil {
		return nil, err
	}
	state, err := carcontroller.NewCarStateParser(cmap)
	if err != nil {
		return nil, err
	}
	leads, err := fusion.NewLeadEstimator(fusionEvery*controlPeriod.Seconds(), log.WithField("module", "fusion"))
	if err != nil {
		return nil, err
	}

	r := &Runner{
		id:      id,
		log:     log,
		scen:    scen,
		bus:     vehicle.Bus,
		cc:      cc,
		state:   state,
		leads:   leads,
		lead:    fusion.RadarState{ALeadTau: fusion.DefaultLeadAccelTau},
		writers: writers,
		reader:  reader,
	}
	if scen.Meta.ControlMode == ModeAnglePID {
		r.lat = NewAnglePID(*scen.PIDConfig)
		log.Info("angle PID initialized: Kp=%.3f Ki=%.3f Kd=%.3f max=%.2f",
			scen.PIDConfig.Kp, scen.PIDConfig.Ki, scen.PIDConfig.Kd, scen.PIDConfig.MaxOutput)
	}
	log.Info("vehicle %s", vehicle.Fingerprint)
	return r, nil
}

func (r *Runner) Close() {
	for _, c := range r.closers {
		_ = c.Close()
	}
}

func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("Starting: scenario=%s mode=%s duration=%.2fs gateway=%d extended=%d",
		r.scen.Meta.Name, r.scen.Meta.ControlMode, r.scen.Timing.DurationS, r.bus.Gateway, r.bus.Extended)

	start := time.Now()
	ticker := time.NewTicker(controlPeriod)
	defer ticker.Stop()

	endAfter := time.Duration(r.scen.Timing.DurationS * float64(time.Second))

	rxCtx, stopRx := context.WithCancel(ctx)
	defer stopRx()
	rxChan := make(chan can.Frame, 256)
	if r.reader != nil {
		go r.receiveLoop(rxCtx, rxChan)
	}
	lastRx := start

	var frame uint64
	for {
		select {
		case <-ctx.Done():
			r.log.Warn("Context canceled; stopping")
			r.log.Info("Stopped. frames=%d sent=%d", frame, r.sent)
			_ = r.flushTrace()
			return ctx.Err()

		case f := <-rxChan:
			lastRx = time.Now()
			if _, err := r.state.Update(f); err != nil {
				r.log.Warn("RX decode id=0x%X: %v", f.ID, err)
			}

		case now := <-ticker.C:
			elapsed := now.Sub(start)
			if elapsed > endAfter {
				r.log.Info("Completed. frames=%d sent=%d", frame, r.sent)
				return r.flushTrace()
			}

			if frame%100 == 0 {
				if msg := r.carStateWarning(now.Sub(lastRx)); msg != "" {
					r.log.Warn("%s", msg)
				}
			}

			if err := r.step(ctx, frame, elapsed.Seconds()); err != nil {
				r.log.Critical("Frame %d failed: %v", frame, err)
				return err
			}
			frame++
		}
	}
}

// carStateWarning describes why car state cannot be trusted, or returns ""
// when it is fresh and every car state frame has been seen.
func (r *Runner) carStateWarning(rxAge time.Duration) string {
	if rxAge > rxStaleAfter {
		return fmt.Sprintf("No car state for %.0f ms; controls stay disengaged", rxAge.Seconds()*1000)
	}
	if !r.state.Complete() {
		return "Car state incomplete; waiting for every car state frame"
	}
	return ""
}

// step runs one control frame at scenario time t.
func (r *Runner) step(ctx context.Context, frame uint64, t float64) error {
	cmd := r.scen.Eval(t)
	cs := r.state.State()

	fraction := cmd.SteerFraction
	if r.lat != nil {
		if cmd.Enabled && cs.ACCActive && !cs.Standstill {
			fraction = r.lat.Update(cmd.SteerAngleDeg, cs.SteeringAngleDeg, controlPeriod.Seconds())
			if frame%100 == 0 {
				diag := r.lat.Diagnostics()
				r.log.Debug("PID: angle=%.1f target=%.1f err=%.2f out=%.3f P=%.3f I=%.3f",
					cs.SteeringAngleDeg, cmd.SteerAngleDeg, diag.Error, fraction, diag.P, diag.I)
			}
		} else {
			r.lat.Reset()
			fraction = 0
		}
	}

	msgs, err := r.cc.Update(frame, carcontroller.Inputs{
		Enabled:          cmd.Enabled,
		CarState:         cs,
		SteerFraction:    fraction,
		VisualAlert:      cmd.VisualAlert,
		AudibleAlert:     cmd.AudibleAlert,
		LeftLaneVisible:  cmd.LeftLane,
		RightLaneVisible: cmd.RightLane,
	})
	if err != nil {
		return err
	}

	for _, m := range msgs {
		if err := r.writers[m.Bus].WriteFrame(ctx, m.Frame); err != nil {
			return errors.Wrapf(err, "transmit id=0x%X bus=%d", m.Frame.ID, m.Bus)
		}
		r.sent++
		r.log.Trace("TX t=%.3f bus=%d id=0x%X data=% X", t, m.Bus, m.Frame.ID, m.Frame.Data[:m.Frame.Length])
	}

	if frame%fusionEvery == 0 {
		return r.updateLead(cmd, cs, t)
	}
	return nil
}

// updateLead advances the simulated lead and runs one fusion frame.
func (r *Runner) updateLead(cmd Command, cs carcontroller.CarState, t float64) error {
	var (
		detections []fusion.Detection
		vision     fusion.VisionLead
	)
	if r.sim.step(cmd.Lead, cs.VEgo, fusionEvery*controlPeriod.Seconds()) {
		detections = r.sim.detections(cs.VEgo)
		vision = r.sim.vision()
	}
	r.leads.UpdateTracks(detections, cs.VEgo)
	r.leads.UpdateVision(vision, cs.VEgo, cs.VEgo)

	lead := r.leads.Lead(leadGroup)
	if lead.Status != r.lead.Status || lead.Radar != r.lead.Radar {
		r.log.Info("t=%.2f lead: %s", t, lead)
	}
	if c, ok := r.leads.Cluster(leadGroup); ok && c.IsPotentialFCW(lead.ModelProb) && c.PotentialLowSpeedLead(cs.VEgo) {
		r.log.Debug("t=%.2f low speed lead close ahead: %s", t, c)
	}
	r.lead = lead

	if r.trace == nil {
		return nil
	}
	return r.trace.Write(traceRow{
		T:        t,
		VEgo:     cs.VEgo,
		AngleDeg: cs.SteeringAngleDeg,
		Torque:   r.cc.LastTorque(),
		Lead:     lead,
	})
}

func (r *Runner) flushTrace() error {
	if r.trace == nil {
		return nil
	}
	return r.trace.Flush()
}

// receiveLoop forwards received frames to the control loop. It stops when
// ctx is done or the reader fails.
func (r *Runner) receiveLoop(ctx context.Context, frames chan<- can.Frame) {
	r.log.Debug("RX loop started")
	defer r.log.Debug("RX loop stopped")

	for {
		frame, err := r.reader.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() == nil {
				r.log.Error("RX error: %v", err)
			}
			return
		}

		select {
		case frames <- frame:
		case <-ctx.Done():
			return
		default:
			r.log.Trace("RX queue full; dropped id=0x%X", frame.ID)
		}
	}
}

// simLead moves a scripted lead car at constant acceleration.
type simLead struct {
	target *LeadTarget
	dRel   float64
	yRel   float64
	vLead  float64
	aLead  float64
}

// step re-seeds from target when it changes, otherwise integrates over dt.
// It reports whether a lead exists.
func (s *simLead) step(target *LeadTarget, vEgo, dt float64) bool {
	if target != s.target {
		s.target = target
		if target != nil {
			s.dRel, s.yRel, s.vLead, s.aLead = target.DRel, target.YRel, target.VLead, target.ALead
		}
		return target != nil
	}
	if target == nil {
		return false
	}
	s.dRel += (s.vLead - vEgo) * dt
	s.vLead = max(s.vLead+s.aLead*dt, 0)
	return true
}

// detections reports the lead as two radar points off its rear corners.
func (s *simLead) detections(vEgo float64) []fusion.Detection {
	if !s.target.Radar {
		return nil
	}
	vRel := s.vLead - vEgo
	return []fusion.Detection{
		{TrackID: leadGroup[0], DRel: s.dRel, YRel: s.yRel - 0.5, VRel: vRel, Measured: true},
		{TrackID: leadGroup[1], DRel: s.dRel + 0.5, YRel: s.yRel + 0.5, VRel: vRel, Measured: true},
	}
}

func (s *simLead) vision() fusion.VisionLead {
	return fusion.VisionLead{
		Prob: s.target.VisionProb,
		X:    []float64{s.dRel + fusion.RadarToCamera},
		Y:    []float64{-s.yRel},
		V:    []float64{s.vLead},
		A:    []float64{s.aLead},
	}
}
