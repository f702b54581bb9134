package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeHCA(t *testing.T) {
	m, err := LoadDefaultCANMap()
	require.NoError(t, err)

	f, err := m.EncodeEinrideFrame("HCA_01", map[string]float64{
		"HCA_01_BZ":          7,
		"HCA_01_LM_Offset":   300,
		"HCA_01_LM_OffSign":  1,
		"HCA_01_Sendestatus": 1,
		"HCA_01_Status_HCA":  5,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(0x126), f.ID)
	assert.Equal(t, uint8(8), f.Length)
	assert.Equal(t, byte(0x07), f.Data[1]&0x0F)

	got, err := m.DecodeEinrideFrame(f)
	require.NoError(t, err)
	assert.Equal(t, 7.0, got["HCA_01_BZ"])
	assert.Equal(t, 300.0, got["HCA_01_LM_Offset"])
	assert.Equal(t, 1.0, got["HCA_01_LM_OffSign"])
	assert.Equal(t, 5.0, got["HCA_01_Status_HCA"])
	assert.Equal(t, 18.0, got["HCA_01_Vib_Freq"], "default applied")
	assert.InDelta(t, 327.36, got["EA_ACC_Wunschgeschwindigkeit"], 1e-9)
}

func TestEncodeClampsToSignalRange(t *testing.T) {
	m, err := LoadDefaultCANMap()
	require.NoError(t, err)

	payload, _, err := m.EncodeFrame("HCA_01", map[string]float64{"HCA_01_LM_Offset": 4000})
	require.NoError(t, err)

	got, err := m.DecodeFrame(0x126, payload)
	require.NoError(t, err)
	assert.Equal(t, 511.0, got["HCA_01_LM_Offset"])
}

func TestEncodeRejectsUnknownSignal(t *testing.T) {
	m, err := LoadDefaultCANMap()
	require.NoError(t, err)

	_, _, err = m.EncodeFrame("HCA_01", map[string]float64{"NOT_A_SIGNAL": 1})
	assert.Error(t, err)

	_, _, err = m.EncodeFrame("NOT_A_FRAME", nil)
	assert.Error(t, err)
}

func TestSignedSignalTwosComplement(t *testing.T) {
	const csv = `direction,frame_id,frame_name,cycle_ms,dlc,signal_name,start_bit,bit_length,endianness,signed,factor,offset,min,max,default,unit,comment
tx,0x10,TEST,10,2,VAL,0,8,little,true,1,0,-128,127,0,,
tx,0x10,TEST,10,2,SMALL,8,4,little,true,0.5,0,-4,3.5,0,,
`
	m, err := ParseCANMap(strings.NewReader(csv))
	require.NoError(t, err)

	payload, id, err := m.EncodeFrame("TEST", map[string]float64{"VAL": -5, "SMALL": -1.5})
	require.NoError(t, err)
	assert.Equal(t, uint32(0x10), id)
	assert.Equal(t, byte(0xFB), payload[0])
	assert.Equal(t, byte(0x0D), payload[1])

	got, err := m.DecodeFrame(0x10, payload)
	require.NoError(t, err)
	assert.Equal(t, -5.0, got["VAL"])
	assert.Equal(t, -1.5, got["SMALL"])
}

func TestDecodeShortPayload(t *testing.T) {
	m, err := LoadDefaultCANMap()
	require.NoError(t, err)

	_, err = m.DecodeFrame(0x126, []byte{1, 2})
	assert.Error(t, err)
}
