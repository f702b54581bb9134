package carcontroller

import (
	"go.einride.tech/can"

	"mqb-assist-core/utils"
)

// hcaTorqueLimit is the largest magnitude HCA_01_LM_Offset can carry.
const hcaTorqueLimit = 511

// Message is a frame addressed to a bus.
type Message struct {
	Bus   int
	Frame can.Frame
}

// Packer encodes controller output into bus frames.
type Packer interface {
	PackSteering(cmd SteeringCommand) (can.Frame, error)
	PackHUD(msg HUDMessage) (can.Frame, error)
	PackButtons(msg ButtonMessage) (can.Frame, error)
}

var graSignals = []string{
	"GRA_Hauptschalter", "GRA_Abbrechen", "GRA_Typ_Hauptschalter",
	"GRA_Tip_Setzen", "GRA_Tip_Hoch", "GRA_Tip_Runter", "GRA_Tip_Wiederaufnahme",
	"GRA_Verstellung_Zeitluecke", "GRA_Codierung", "GRA_Tip_Stufe_2", "GRA_ButtonTypeInfo", "GRA_BZ",
}

var packerFrames = map[string][]string{
	"HCA_01": {
		"HCA_01_BZ", "HCA_01_LM_Offset", "HCA_01_LM_OffSign", "HCA_01_Vib_Freq",
		"HCA_01_Sendestatus", "HCA_01_Status_HCA", "EA_ACC_Wunschgeschwindigkeit",
	},
	"LDW_02":     {"LDW_Lernmodus_links", "LDW_Lernmodus_rechts", "LDW_Texte"},
	"GRA_ACC_01": graSignals,
}

// MQBPacker encodes messages with a CAN map. Checksums are left at zero for
// the transport's platform-specific packer.
type MQBPacker struct {
	cmap *utils.CANMap
}

// NewMQBPacker fails when the map is missing any frame or signal it writes.
func NewMQBPacker(cmap *utils.CANMap) (*MQBPacker, error) {
	if err := cmap.Require(packerFrames); err != nil {
		return nil, err
	}
	return &MQBPacker{cmap: cmap}, nil
}

func (p *MQBPacker) PackSteering(cmd SteeringCommand) (can.Frame, error) {
	torque := cmd.Torque
	sign := 0.0
	if torque < 0 {
		torque = -torque
		sign = 1
	}
	status := 3.0
	if cmd.LaneKeepActive {
		status = 5
	}
	return p.cmap.EncodeEinrideFrame("HCA_01", map[string]float64{
		"EA_ACC_Wunschgeschwindigkeit": 327.36,
		"HCA_01_LM_Offset":             float64(torque),
		"HCA_01_LM_OffSign":            sign,
		"HCA_01_Vib_Freq":              18,
		"HCA_01_Sendestatus":           boolToFloat(cmd.LaneKeepActive),
		"HCA_01_Status_HCA":            status,
		"HCA_01_BZ":                    float64(cmd.Counter),
	})
}

func (p *MQBPacker) PackHUD(msg HUDMessage) (can.Frame, error) {
	return p.cmap.EncodeEinrideFrame("LDW_02", map[string]float64{
		"LDW_Lernmodus_links":  laneVisibility(msg.LeftLaneVisible),
		"LDW_Lernmodus_rechts": laneVisibility(msg.RightLaneVisible),
		"LDW_Texte":            float64(msg.Alert),
	})
}

func (p *MQBPacker) PackButtons(msg ButtonMessage) (can.Frame, error) {
	b := msg.Buttons
	gap := 0.0
	if b.Has(ButtonGapAdjust) {
		gap = 3
	}
	return p.cmap.EncodeEinrideFrame("GRA_ACC_01", map[string]float64{
		"GRA_Hauptschalter":          boolToFloat(b.Has(ButtonMain)),
		"GRA_Abbrechen":              boolToFloat(b.Has(ButtonCancel)),
		"GRA_Tip_Setzen":             boolToFloat(b.Has(ButtonSet)),
		"GRA_Tip_Hoch":               boolToFloat(b.Has(ButtonAccel)),
		"GRA_Tip_Runter":             boolToFloat(b.Has(ButtonDecel)),
		"GRA_Tip_Wiederaufnahme":     boolToFloat(b.Has(ButtonResume)),
		"GRA_Verstellung_Zeitluecke": gap,
		"GRA_Typ_Hauptschalter":      boolToFloat(msg.MainSwitchIndicator),
		"GRA_Codierung":              2,
		"GRA_Tip_Stufe_2":            boolToFloat(msg.TipStufe2),
		"GRA_ButtonTypeInfo":         float64(msg.ButtonTypeInfo),
		"GRA_BZ":                     float64(msg.Counter),
	})
}

// buttonsFromSignals rebuilds the bitmap from a decoded GRA_ACC_01.
func buttonsFromSignals(v map[string]float64) Buttons {
	var b Buttons
	set := func(signal string, x Buttons) {
		if v[signal] != 0 {
			b |= x
		}
	}
	set("GRA_Hauptschalter", ButtonMain)
	set("GRA_Abbrechen", ButtonCancel)
	set("GRA_Tip_Setzen", ButtonSet)
	set("GRA_Tip_Hoch", ButtonAccel)
	set("GRA_Tip_Runter", ButtonDecel)
	set("GRA_Tip_Wiederaufnahme", ButtonResume)
	set("GRA_Verstellung_Zeitluecke", ButtonGapAdjust)
	return b
}

func laneVisibility(visible bool) float64 {
	if visible {
		return 3
	}
	return 1
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
