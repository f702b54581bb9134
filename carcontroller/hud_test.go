package carcontroller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeHUDAlert(t *testing.T) {
	tests := []struct {
		visual  VisualAlert
		audible AudibleAlert
		want    HUDAlert
	}{
		{VisualAlertNone, AudibleAlertNone, HUDAlertNone},
		{VisualAlertNone, AudibleAlertChimeWarningRepeat, HUDAlertNone},
		{VisualAlertFCW, AudibleAlertChimeWarning1, HUDAlertNone},
		{VisualAlertSteerRequired, AudibleAlertChimeWarningRepeat, HUDAlertEmergencyBeep},
		{VisualAlertSteerRequired, AudibleAlertChimeWarning1, HUDAlertWarningBeep},
		{VisualAlertSteerRequired, AudibleAlertChimeWarning2, HUDAlertWarningBeep},
		{VisualAlertSteerRequired, AudibleAlertNone, HUDAlertWarningSilent},
		{VisualAlertSteerRequired, AudibleAlertChimeDisengage, HUDAlertWarningSilent},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EncodeHUDAlert(tt.visual, tt.audible), "visual=%d audible=%d", tt.visual, tt.audible)
	}
	assert.Equal(t, HUDAlert(6), HUDAlertEmergencyBeep)
	assert.Equal(t, HUDAlert(7), HUDAlertWarningBeep)
	assert.Equal(t, HUDAlert(8), HUDAlertWarningSilent)
}

func TestEncodeHUDLaneKeep(t *testing.T) {
	msg := EncodeHUD(HUDInput{Enabled: true, LeftLaneVisible: true})
	assert.True(t, msg.LaneKeepActive)
	assert.True(t, msg.LeftLaneVisible)
	assert.False(t, msg.RightLaneVisible)

	assert.False(t, EncodeHUD(HUDInput{Enabled: true, Standstill: true}).LaneKeepActive)
	assert.False(t, EncodeHUD(HUDInput{}).LaneKeepActive)
}

func TestAlertUnmarshalText(t *testing.T) {
	var v VisualAlert
	assert.NoError(t, v.UnmarshalText([]byte("steerRequired")))
	assert.Equal(t, VisualAlertSteerRequired, v)
	assert.NoError(t, v.UnmarshalText(nil))
	assert.Equal(t, VisualAlertNone, v)
	assert.Error(t, v.UnmarshalText([]byte("steer_required")))

	var a AudibleAlert
	assert.NoError(t, a.UnmarshalText([]byte("chimeWarningRepeat")))
	assert.Equal(t, AudibleAlertChimeWarningRepeat, a)
	assert.Error(t, a.UnmarshalText([]byte("beep")))
}
