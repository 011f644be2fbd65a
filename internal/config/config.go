// Package config loads the controller configuration. It is read once at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/greenhouse/internal/bus"
	"github.com/sweeney/greenhouse/internal/diag"
	"github.com/sweeney/greenhouse/internal/display"
	"github.com/sweeney/greenhouse/internal/gpio"
	"github.com/sweeney/greenhouse/internal/logic"
	"github.com/sweeney/greenhouse/internal/sensor"
)

// ErrInvalid is returned by Validate for unusable settings.
var ErrInvalid = errors.New("invalid config")

// Config represents the controller configuration.
type Config struct {
	Tick        time.Duration     `yaml:"tick"`
	Calibration logic.Calibration `yaml:"calibration"`
	Thresholds  logic.Thresholds  `yaml:"thresholds"`
	Bus         BusConfig         `yaml:"bus"`
	Analog      AnalogConfig      `yaml:"analog"`
	GPIO        gpio.Pins         `yaml:"gpio"`
	Serial      SerialConfig      `yaml:"serial"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	HTTP        HTTPConfig        `yaml:"http"`
}

// BusConfig contains I2C addressing.
type BusConfig struct {
	Timeout             time.Duration `yaml:"timeout"`
	TemperatureAddress  uint16        `yaml:"temperature_address"`
	TemperatureRegister uint8         `yaml:"temperature_register"`
	ClockAddress        uint16        `yaml:"clock_address"`
	LCDAddress          uint8         `yaml:"lcd_address"`
}

// AnalogConfig contains the ADC address and input channels.
type AnalogConfig struct {
	Address         uint16 `yaml:"address"`
	Base            uint8  `yaml:"base"` // channel select byte for channel 0
	MoistureChannel int    `yaml:"moisture_channel"`
	LightChannel    int    `yaml:"light_channel"`
}

// SerialConfig contains the diagnostic console port. Empty port disables it.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// MQTTConfig contains telemetry settings. Empty broker disables MQTT.
type MQTTConfig struct {
	Broker    string        `yaml:"broker"`
	ClientID  string        `yaml:"client_id"`
	Heartbeat time.Duration `yaml:"heartbeat"` // 0 disables
}

// HTTPConfig contains the status server address. Empty disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the reference board configuration.
func Default() *Config {
	return &Config{
		Tick:        33 * time.Millisecond,
		Calibration: logic.DefaultCalibration(),
		Thresholds:  logic.DefaultThresholds(),
		Bus: BusConfig{
			Timeout:             bus.DefaultTimeout,
			TemperatureAddress:  sensor.TemperatureAddress,
			TemperatureRegister: sensor.TemperatureRegister,
			ClockAddress:        sensor.ClockAddress,
			LCDAddress:          display.DefaultLCDAddress,
		},
		Analog: AnalogConfig{
			Address:         0x48,
			Base:            0x40,
			MoistureChannel: 0,
			LightChannel:    1,
		},
		GPIO: gpio.DefaultPins(),
		Serial: SerialConfig{
			Baud: diag.DefaultBaud,
		},
		MQTT: MQTTConfig{
			ClientID:  "greenhouse",
			Heartbeat: 15 * time.Minute,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings the controller cannot run with.
func (c *Config) Validate() error {
	if c.Tick <= 0 {
		return fmt.Errorf("%w: tick must be positive, got %v", ErrInvalid, c.Tick)
	}
	if err := c.Calibration.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Analog.MoistureChannel < 0 || c.Analog.LightChannel < 0 {
		return fmt.Errorf("%w: analog channels must not be negative", ErrInvalid)
	}
	if c.Analog.MoistureChannel == c.Analog.LightChannel {
		return fmt.Errorf("%w: moisture and light share analog channel %d", ErrInvalid, c.Analog.LightChannel)
	}
	if c.MQTT.Heartbeat < 0 {
		return fmt.Errorf("%w: heartbeat must not be negative", ErrInvalid)
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
