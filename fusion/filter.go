package fusion

// FirstOrderFilter is an exponential low-pass with time constant rc sampled
// every dt seconds. An uninitialized filter adopts the next sample as-is.
type FirstOrderFilter struct {
	x           float64
	dt          float64
	alpha       float64
	initialized bool
}

func NewFirstOrderFilter(x0, rc, dt float64, initialized bool) *FirstOrderFilter {
	f := &FirstOrderFilter{x: x0, dt: dt, initialized: initialized}
	f.UpdateAlpha(rc)
	return f
}

func (f *FirstOrderFilter) UpdateAlpha(rc float64) {
	f.alpha = f.dt / (rc + f.dt)
}

func (f *FirstOrderFilter) Update(x float64) float64 {
	if f.initialized {
		f.x = (1-f.alpha)*f.x + f.alpha*x
	} else {
		f.initialized = true
		f.x = x
	}
	return f.x
}

// Reset makes the next Update seed the filter instead of blending.
func (f *FirstOrderFilter) Reset() { f.initialized = false }

func (f *FirstOrderFilter) Value() float64    { return f.x }
func (f *FirstOrderFilter) Alpha() float64    { return f.alpha }
func (f *FirstOrderFilter) Initialized() bool { return f.initialized }
