package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "direction,frame_id,frame_name,cycle_ms,dlc,signal_name,start_bit,bit_length,endianness,signed,factor,offset,min,max,default,unit,comment\n"

func TestLoadDefaultCANMap(t *testing.T) {
	m, err := LoadDefaultCANMap()
	require.NoError(t, err)

	assert.Equal(t, []string{"ESP_21", "GRA_ACC_01", "HCA_01", "LDW_02", "LH_EPS_03", "LWI_01", "TSK_06"}, m.FrameNames())

	hca, err := m.FrameByName("HCA_01")
	require.NoError(t, err)
	assert.True(t, hca.Transmits())
	assert.False(t, hca.Receives())
	assert.Equal(t, 20, hca.CycleMS)

	gra, err := m.FrameByID(0x12B)
	require.NoError(t, err)
	assert.True(t, gra.Transmits())
	assert.True(t, gra.Receives())

	for _, fd := range m.ByID {
		for i := 1; i < len(fd.Signals); i++ {
			assert.LessOrEqual(t, fd.Signals[i-1].StartBit, fd.Signals[i].StartBit, fd.Name)
		}
	}
}

func TestLoadCANMapFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+"rx,256,SPEED,20,2,V,0,16,little,false,0.01,0,0,655.35,0,m/s,\n"), 0o644))

	m, err := LoadCANMap(path)
	require.NoError(t, err)
	fd, err := m.FrameByID(256)
	require.NoError(t, err)
	assert.Equal(t, "SPEED", fd.Name)

	_, err = LoadCANMap(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestParseCANMapRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"missing column": "direction,frame_id\ntx,1\n",
		"big endian":     header + "tx,1,A,10,8,S,0,8,big,false,1,0,0,255,0,,\n",
		"bad dlc":        header + "tx,1,A,10,9,S,0,8,little,false,1,0,0,255,0,,\n",
		"out of frame":   header + "tx,1,A,10,1,S,4,8,little,false,1,0,0,255,0,,\n",
		"overlap":        header + "tx,1,A,10,8,S,0,8,little,false,1,0,0,255,0,,\ntx,1,A,10,8,T,4,8,little,false,1,0,0,255,0,,\n",
		"dlc mismatch":   header + "tx,1,A,10,8,S,0,8,little,false,1,0,0,255,0,,\ntx,1,A,10,4,T,8,8,little,false,1,0,0,255,0,,\n",
		"bad direction":  header + "sideways,1,A,10,8,S,0,8,little,false,1,0,0,255,0,,\n",
		"zero factor":    header + "tx,1,A,10,8,S,0,8,little,false,0,0,0,255,0,,\n",
		"bad id":         header + "tx,0xZZ,A,10,8,S,0,8,little,false,1,0,0,255,0,,\n",
		"bad max":        header + "tx,1,A,10,8,S,0,8,little,false,1,0,-300,3OO,0,,\n",
		"bad start bit":  header + "tx,1,A,10,8,S,x,8,little,false,1,0,0,255,0,,\n",
		"bad cycle":      header + "tx,1,A,1O,8,S,0,8,little,false,1,0,0,255,0,,\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCANMap(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}

func TestRequire(t *testing.T) {
	m, err := LoadDefaultCANMap()
	require.NoError(t, err)

	assert.NoError(t, m.Require(map[string][]string{"HCA_01": {"HCA_01_LM_Offset"}}))
	assert.Error(t, m.Require(map[string][]string{"HCA_01": {"Nope"}}))
	assert.Error(t, m.Require(map[string][]string{"Nope": nil}))
}

func TestParseCANMapNamesMalformedCell(t *testing.T) {
	src := header + "tx,0x126,HCA_01,20,8,Assist_Torque,16,9,little,false,1,0,0,3OO,0,,\n"
	_, err := ParseCANMap(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HCA_01")
	assert.Contains(t, err.Error(), "Assist_Torque")
	assert.Contains(t, err.Error(), "max")
}

func TestParseCANMapEmptyNumericCellIsZero(t *testing.T) {
	src := header + "rx,256,SPEED,20,2,V,0,16,little,false,0.01,,,,,m/s,\n"
	m, err := ParseCANMap(strings.NewReader(src))
	require.NoError(t, err)
	sig := m.ByName["SPEED"].Signals[0]
	assert.Zero(t, sig.Offset)
	assert.Zero(t, sig.Max)
}
