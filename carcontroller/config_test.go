package carcontroller

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVehicleConfig(t *testing.T) {
	cfg, err := ParseVehicleConfig([]byte(`
fingerprint: VOLKSWAGEN PASSAT 8TH GEN
bus:
  gateway: 1
  extended: 3
overrides:
  steer_max: 250
  steer_delta_up: 4
`))
	require.NoError(t, err)
	assert.Equal(t, PassatB8, cfg.Fingerprint)
	assert.Equal(t, BusConfig{Gateway: 1, Extended: 3}, cfg.Bus)

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, 250, p.SteerMax)
	assert.Equal(t, 4, p.SteerDeltaUp)
	assert.Equal(t, 10, p.SteerDeltaDown, "not overridden")
}

func TestParseVehicleConfigDefaults(t *testing.T) {
	cfg, err := ParseVehicleConfig([]byte("fingerprint: AUDI A3 3RD GEN\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultBusConfig(), cfg.Bus)

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, DefaultMQBParams(), p)
}

func TestParseVehicleConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing fingerprint", "bus:\n  gateway: 0\n"},
		{"unknown key", "fingerprint: AUDI A3 3RD GEN\nsteer_maks: 3\n"},
		{"unknown override", "fingerprint: AUDI A3 3RD GEN\noverrides:\n  hca_step: 1\n"},
		{"negative bus", "fingerprint: AUDI A3 3RD GEN\nbus:\n  extended: -1\n"},
		{"not yaml", "fingerprint: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVehicleConfig([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestVehicleConfigParamsErrors(t *testing.T) {
	cfg, err := ParseVehicleConfig([]byte("fingerprint: FORD FOCUS\n"))
	require.NoError(t, err)
	_, err = cfg.Params()
	assert.Error(t, err, "unknown fingerprint")

	cfg, err = ParseVehicleConfig([]byte("fingerprint: AUDI A3 3RD GEN\noverrides:\n  steer_max: 1000\n"))
	require.NoError(t, err)
	_, err = cfg.Params()
	assert.Error(t, err, "override fails validation")
}

func TestLoadVehicleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "car.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fingerprint: SKODA OCTAVIA 3RD GEN\n"), 0o644))

	cfg, err := LoadVehicleConfig(path)
	require.NoError(t, err)
	assert.Equal(t, SkodaOctav3, cfg.Fingerprint)

	_, err = LoadVehicleConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
