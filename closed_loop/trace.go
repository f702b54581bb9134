package main

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"mqb-assist-core/fusion"
)

var traceHeader = []string{
	"t", "v_ego", "steering_angle_deg", "torque", "lead_status", "lead_radar",
	"d_rel", "v_lead", "v_rel", "a_lead_k", "a_lead_tau",
}

// traceWriter records one CSV row per fusion step for offline plotting.
type traceWriter struct {
	w *csv.Writer
}

func newTraceWriter(out io.Writer) (*traceWriter, error) {
	w := csv.NewWriter(out)
	if err := w.Write(traceHeader); err != nil {
		return nil, errors.Wrap(err, "trace header")
	}
	return &traceWriter{w: w}, nil
}

type traceRow struct {
	T        float64
	VEgo     float64
	AngleDeg float64
	Torque   int
	Lead     fusion.RadarState
}

func (tw *traceWriter) Write(r traceRow) error {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
	rec := []string{
		f(r.T), f(r.VEgo), f(r.AngleDeg), strconv.Itoa(r.Torque),
		strconv.FormatBool(r.Lead.Status), strconv.FormatBool(r.Lead.Radar),
		f(r.Lead.DRel), f(r.Lead.VLead), f(r.Lead.VRel), f(r.Lead.ALeadK), f(r.Lead.ALeadTau),
	}
	if err := tw.w.Write(rec); err != nil {
		return errors.Wrap(err, "trace row")
	}
	return nil
}

func (tw *traceWriter) Flush() error {
	tw.w.Flush()
	return errors.Wrap(tw.w.Error(), "trace flush")
}
