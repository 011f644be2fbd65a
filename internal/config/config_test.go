package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/greenhouse/internal/logic"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 33*time.Millisecond, cfg.Tick)
	assert.Equal(t, logic.Calibration{AirRaw: 920, WaterRaw: 760, DayRaw: 100}, cfg.Calibration)
	assert.Equal(t, 28, cfg.Thresholds.VentAboveC)
	assert.Equal(t, uint16(0x5c), cfg.Bus.TemperatureAddress)
	assert.Equal(t, uint16(0x68), cfg.Bus.ClockAddress)
	assert.Empty(t, cfg.MQTT.Broker)
	assert.Empty(t, cfg.HTTP.Addr)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyNameUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greenhouse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tick: 50ms
calibration:
  air_raw: 950
  water_raw: 700
thresholds:
  vent_above_c: 25
bus:
  lcd_address: 0x3f
mqtt:
  broker: tcp://192.168.1.200:1883
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.Tick)
	assert.Equal(t, uint16(950), cfg.Calibration.AirRaw)
	assert.Equal(t, uint16(700), cfg.Calibration.WaterRaw)
	assert.Equal(t, uint16(100), cfg.Calibration.DayRaw, "unset field keeps default")
	assert.Equal(t, 25, cfg.Thresholds.VentAboveC)
	assert.Equal(t, 80, cfg.Thresholds.SprinklerBelowPercent)
	assert.Equal(t, uint8(0x3f), cfg.Bus.LCDAddress)
	assert.Equal(t, "tcp://192.168.1.200:1883", cfg.MQTT.Broker)
	assert.Equal(t, "greenhouse", cfg.MQTT.ClientID)
}

func TestLoadRejectsInvertedCalibration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greenhouse.yaml")
	require.NoError(t, os.WriteFile(path, []byte("calibration:\n  air_raw: 700\n  water_raw: 760\n"), 0o644))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "air_raw 700")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greenhouse.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tick: [oops"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tick", func(c *Config) { c.Tick = 0 }},
		{"equal bounds", func(c *Config) { c.Calibration.AirRaw = c.Calibration.WaterRaw }},
		{"negative channel", func(c *Config) { c.Analog.LightChannel = -1 }},
		{"shared channel", func(c *Config) { c.Analog.LightChannel = c.Analog.MoistureChannel }},
		{"negative heartbeat", func(c *Config) { c.MQTT.Heartbeat = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greenhouse.yaml")
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.HTTP.Addr = ":8080"
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
