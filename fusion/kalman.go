// Package fusion estimates the lead vehicle's kinematics from radar tracks,
// falling back to the vision model's lead prediction when radar has nothing.
package fusion

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"
)

// KalmanState is the lead filter's hidden state.
type KalmanState struct {
	Speed float64 // m/s
	Accel float64 // m/s^2
}

func (s KalmanState) vec() *mat.VecDense {
	return mat.NewVecDense(2, []float64{s.Speed, s.Accel})
}

// Steady-state gains for Q=diag(10,100), R=1e3, tabulated over the radar step.
var (
	gainSteps = []float64{
		0.01, 0.02, 0.03, 0.04, 0.05, 0.06, 0.07, 0.08, 0.09, 0.10,
		0.11, 0.12, 0.13, 0.14, 0.15, 0.16, 0.17, 0.18, 0.19, 0.20,
	}
	gainSpeed = []float64{
		0.12287673, 0.14556536, 0.16522756, 0.18281627, 0.1988689, 0.21372394,
		0.22761098, 0.24069424, 0.253096, 0.26491023, 0.27621103, 0.28705801,
		0.29750003, 0.30757767, 0.31732515, 0.32677158, 0.33594201, 0.34485814,
		0.35353899, 0.36200124,
	}
	gainAccel = []float64{
		0.29666309, 0.29330885, 0.29042818, 0.28787125, 0.28555364, 0.28342219,
		0.28144091, 0.27958406, 0.27783249, 0.27617149, 0.27458948, 0.27307714,
		0.27162685, 0.27023228, 0.26888809, 0.26758976, 0.26633338, 0.26511557,
		0.26393339, 0.26278425,
	}
)

// KalmanParams holds the fixed transition, observation and gain matrices
// for a constant-acceleration lead model sampled every Dt seconds.
type KalmanParams struct {
	Dt float64
	A  *mat.Dense    // 2x2 transition
	C  *mat.Dense    // 1x2 observation (speed only)
	K  *mat.VecDense // 2x1 steady-state gain
}

// NewKalmanParams builds the lead model for the given radar step.
// The gain table only covers steps strictly between 0.01 s and 0.2 s.
func NewKalmanParams(dt float64) (KalmanParams, error) {
	if !(dt > 0.01 && dt < 0.2) {
		return KalmanParams{}, errors.Errorf("radar time step %.3fs must be between 0.01s and 0.2s", dt)
	}

	var k0, k1 interp.PiecewiseLinear
	if err := k0.Fit(gainSteps, gainSpeed); err != nil {
		return KalmanParams{}, errors.Wrap(err, "fit speed gain")
	}
	if err := k1.Fit(gainSteps, gainAccel); err != nil {
		return KalmanParams{}, errors.Wrap(err, "fit accel gain")
	}

	return KalmanParams{
		Dt: dt,
		A:  mat.NewDense(2, 2, []float64{1, dt, 0, 1}),
		C:  mat.NewDense(1, 2, []float64{1, 0}),
		K:  mat.NewVecDense(2, []float64{k0.Predict(dt), k1.Predict(dt)}),
	}, nil
}

// KF1D is a fixed-gain Kalman filter over a scalar measurement:
//
//	x' = (A - K·C·A)·x + K·z
type KF1D struct {
	x  *mat.VecDense
	ak *mat.Dense
	k  *mat.VecDense
}

func NewKF1D(x0 KalmanState, p KalmanParams) *KF1D {
	var ca mat.Dense
	ca.Mul(p.C, p.A)

	var kca mat.Dense
	kca.Mul(p.K, &ca)

	ak := mat.NewDense(2, 2, nil)
	ak.Sub(p.A, &kca)

	return &KF1D{
		x:  x0.vec(),
		ak: ak,
		k:  mat.VecDenseCopyOf(p.K),
	}
}

// Update folds one speed measurement into the state.
func (kf *KF1D) Update(meas float64) KalmanState {
	next := mat.NewVecDense(2, nil)
	next.MulVec(kf.ak, kf.x)
	next.AddScaledVec(next, meas, kf.k)
	kf.x = next
	return kf.State()
}

func (kf *KF1D) State() KalmanState {
	return KalmanState{Speed: kf.x.AtVec(0), Accel: kf.x.AtVec(1)}
}
