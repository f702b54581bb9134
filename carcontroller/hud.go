package carcontroller

import "github.com/pkg/errors"

// VisualAlert is the HUD alert category requested by controls.
type VisualAlert int

const (
	VisualAlertNone VisualAlert = iota
	VisualAlertFCW
	VisualAlertSteerRequired
	VisualAlertBrakePressed
	VisualAlertWrongGear
	VisualAlertSeatbeltUnbuckled
	VisualAlertSpeedTooHigh
)

var visualAlertNames = map[string]VisualAlert{
	"none":              VisualAlertNone,
	"fcw":               VisualAlertFCW,
	"steerRequired":     VisualAlertSteerRequired,
	"brakePressed":      VisualAlertBrakePressed,
	"wrongGear":         VisualAlertWrongGear,
	"seatbeltUnbuckled": VisualAlertSeatbeltUnbuckled,
	"speedTooHigh":      VisualAlertSpeedTooHigh,
}

// UnmarshalText accepts the alert's camelCase name; empty means none.
func (v *VisualAlert) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*v = VisualAlertNone
		return nil
	}
	a, ok := visualAlertNames[string(text)]
	if !ok {
		return errors.Errorf("unknown visual alert %q", text)
	}
	*v = a
	return nil
}

// AudibleAlert is the chime requested by controls.
type AudibleAlert int

const (
	AudibleAlertNone AudibleAlert = iota
	AudibleAlertChimeEngage
	AudibleAlertChimeDisengage
	AudibleAlertChimeError
	AudibleAlertChimePrompt
	AudibleAlertChimeWarning1
	AudibleAlertChimeWarning2
	AudibleAlertChimeWarningRepeat
)

var audibleAlertNames = map[string]AudibleAlert{
	"none":               AudibleAlertNone,
	"chimeEngage":        AudibleAlertChimeEngage,
	"chimeDisengage":     AudibleAlertChimeDisengage,
	"chimeError":         AudibleAlertChimeError,
	"chimePrompt":        AudibleAlertChimePrompt,
	"chimeWarning1":      AudibleAlertChimeWarning1,
	"chimeWarning2":      AudibleAlertChimeWarning2,
	"chimeWarningRepeat": AudibleAlertChimeWarningRepeat,
}

func (a *AudibleAlert) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*a = AudibleAlertNone
		return nil
	}
	v, ok := audibleAlertNames[string(text)]
	if !ok {
		return errors.Errorf("unknown audible alert %q", text)
	}
	*a = v
	return nil
}

// IsEmergency reports chimes that map to the "Emergency Assist" text.
func (a AudibleAlert) IsEmergency() bool {
	return a == AudibleAlertChimeWarningRepeat
}

// IsWarning reports chimes that map to the beeping "Lane Assist" text.
func (a AudibleAlert) IsWarning() bool {
	return a == AudibleAlertChimeWarning1 || a == AudibleAlertChimeWarning2
}

// HUDAlert is the LDW_Texte code.
type HUDAlert uint8

const (
	HUDAlertNone          HUDAlert = 0
	HUDAlertEmergencyBeep HUDAlert = 6 // "Emergency Assist: Please Take Over Steering", with beep
	HUDAlertWarningBeep   HUDAlert = 7 // "Lane Assist: Please Take Over Steering", with beep
	HUDAlertWarningSilent HUDAlert = 8 // "Lane Assist: Please Take Over Steering", silent
)

// HUDInput is what the HUD path needs from a control frame.
type HUDInput struct {
	Enabled          bool
	Standstill       bool
	Visual           VisualAlert
	Audible          AudibleAlert
	LeftLaneVisible  bool
	RightLaneVisible bool
}

// HUDMessage is the content of one LDW_02 message.
type HUDMessage struct {
	LaneKeepActive   bool
	Alert            HUDAlert
	LeftLaneVisible  bool
	RightLaneVisible bool
}

// EncodeHUDAlert picks the take-over text for a steer-required alert.
func EncodeHUDAlert(visual VisualAlert, audible AudibleAlert) HUDAlert {
	if visual != VisualAlertSteerRequired {
		return HUDAlertNone
	}
	switch {
	case audible.IsEmergency():
		return HUDAlertEmergencyBeep
	case audible.IsWarning():
		return HUDAlertWarningBeep
	default:
		return HUDAlertWarningSilent
	}
}

func EncodeHUD(in HUDInput) HUDMessage {
	return HUDMessage{
		LaneKeepActive:   in.Enabled && !in.Standstill,
		Alert:            EncodeHUDAlert(in.Visual, in.Audible),
		LeftLaneVisible:  in.LeftLaneVisible,
		RightLaneVisible: in.RightLaneVisible,
	}
}
