package carcontroller

import "strings"

// Buttons is the GRA_ACC_01 button bitmap.
type Buttons uint8

const (
	ButtonMain Buttons = 1 << iota
	ButtonCancel
	ButtonSet
	ButtonAccel
	ButtonDecel
	ButtonResume
	ButtonGapAdjust
)

var buttonNames = []struct {
	b    Buttons
	name string
}{
	{ButtonMain, "main"},
	{ButtonCancel, "cancel"},
	{ButtonSet, "set"},
	{ButtonAccel, "accel"},
	{ButtonDecel, "decel"},
	{ButtonResume, "resume"},
	{ButtonGapAdjust, "gap"},
}

func (b Buttons) Has(x Buttons) bool { return b&x != 0 }

func (b Buttons) String() string {
	var names []string
	for _, bn := range buttonNames {
		if b.Has(bn.b) {
			names = append(names, bn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Injection is a synthetic button press.
type Injection int

const (
	InjectNone Injection = iota
	InjectResume
	InjectCancel
)

func (i Injection) String() string {
	switch i {
	case InjectResume:
		return "resume"
	case InjectCancel:
		return "cancel"
	default:
		return "none"
	}
}

func (i Injection) button() Buttons {
	switch i {
	case InjectResume:
		return ButtonResume
	case InjectCancel:
		return ButtonCancel
	default:
		return 0
	}
}

// ButtonInput is what the cruise button path needs from a control frame.
type ButtonInput struct {
	Enabled             bool
	ACCActive           bool
	Standstill          bool
	Raw                 Buttons // as read from the car
	MainSwitchIndicator bool    // GRA_Typ_Hauptschalter
	ButtonTypeInfo      int
	TipStufe2           bool
}

// ButtonMessage is the content of one forwarded GRA_ACC_01 message.
type ButtonMessage struct {
	Buttons             Buttons
	MainSwitchIndicator bool
	ButtonTypeInfo      int
	TipStufe2           bool
	Counter             uint8
}

// ButtonArbiter forwards the driver's cruise buttons to the ACC radar and
// adds synthetic presses: resume about once a second while engaged at a
// stop, and cancel when the assist disengages before platform ACC does.
//
// Update must be called once per control frame with frame increasing by
// exactly one each call.
type ButtonArbiter struct {
	step        int
	window      int // GRA ticks
	pressFrames int

	pending Injection
	expiry  uint64 // first frame the pending press is no longer applied
}

func NewButtonArbiter(step, windowTicks, pressFrames int) *ButtonArbiter {
	return &ButtonArbiter{step: step, window: windowTicks, pressFrames: pressFrames}
}

// Update returns a message on GRA frames and false otherwise.
func (a *ButtonArbiter) Update(frame uint64, in ButtonInput) (ButtonMessage, bool) {
	if frame%uint64(a.step) != 0 {
		return ButtonMessage{}, false
	}

	if in.Enabled {
		if in.Standstill && frame%uint64(a.step*a.window) == 0 {
			a.inject(InjectResume, frame)
		}
	} else if in.ACCActive {
		a.inject(InjectCancel, frame)
	}

	buttons := in.Raw
	if a.pending != InjectNone {
		if frame < a.expiry {
			buttons |= a.pending.button()
		} else {
			a.pending = InjectNone
			a.expiry = 0
		}
	}

	return ButtonMessage{
		Buttons:             buttons,
		MainSwitchIndicator: in.MainSwitchIndicator,
		ButtonTypeInfo:      in.ButtonTypeInfo,
		TipStufe2:           in.TipStufe2,
		Counter:             uint8((frame / uint64(a.step)) % 16),
	}, true
}

// inject replaces any pending press.
func (a *ButtonArbiter) inject(kind Injection, frame uint64) {
	a.pending = kind
	a.expiry = frame + uint64(a.pressFrames)
}

// Pending reports the in-flight synthetic press, if any.
func (a *ButtonArbiter) Pending() (Injection, uint64) {
	return a.pending, a.expiry
}
