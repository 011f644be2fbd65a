// Command greenhouse runs the greenhouse climate controller: it samples
// temperature, soil moisture, light and the real-time clock, drives the
// vent, sprinkler and grow-light relays, and shows readings on a 16x2 LCD.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sweeney/greenhouse/internal/analog"
	"github.com/sweeney/greenhouse/internal/bus"
	"github.com/sweeney/greenhouse/internal/config"
	"github.com/sweeney/greenhouse/internal/diag"
	"github.com/sweeney/greenhouse/internal/sensor"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "greenhouse",
	Short: "Greenhouse climate controller",
	Long: `greenhouse - a tick-driven greenhouse controller for a Raspberry Pi.

Every tick performs one step of the control cycle. A full sensor cycle
runs about every 15 seconds; the clock on the display refreshes about
every 200 ms in between.

Settings are read from a YAML file (--config). A missing file means
the reference board defaults.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/greenhouse/config.yaml", "YAML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// setupLogging tees the standard logger to the serial console when one is
// configured. The returned closer is never nil.
func setupLogging(cfg *config.Config) io.Closer {
	if cfg.Serial.Port == "" {
		return io.NopCloser(nil)
	}
	console, err := diag.OpenSerial(cfg.Serial.Port, cfg.Serial.Baud)
	if err != nil {
		log.Printf("diag: %v (console disabled)", err)
		return io.NopCloser(nil)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, console))
	return console
}

// hardware is the set of bus-attached devices shared by every command.
type hardware struct {
	raw   io.Closer
	owner *bus.Owner

	temperature *sensor.Temperature
	clock       *sensor.Clock
	moisture    *sensor.Moisture
	light       *sensor.Light
}

func openHardware(cfg *config.Config) (*hardware, error) {
	raw, err := bus.NewRealBus()
	if err != nil {
		return nil, fmt.Errorf("init bus: %w", err)
	}
	owner := bus.NewOwner(raw, cfg.Bus.Timeout)

	temp := sensor.NewTemperature(owner)
	temp.Address = cfg.Bus.TemperatureAddress
	temp.Register = cfg.Bus.TemperatureRegister

	clk := sensor.NewClock(owner)
	clk.Address = cfg.Bus.ClockAddress

	adc := analog.NewBusConverter(owner, cfg.Analog.Address, cfg.Analog.Base, nil)

	return &hardware{
		raw:         raw,
		owner:       owner,
		temperature: temp,
		clock:       clk,
		moisture:    &sensor.Moisture{ADC: adc, Channel: cfg.Analog.MoistureChannel, Calibration: cfg.Calibration},
		light:       &sensor.Light{ADC: adc, Channel: cfg.Analog.LightChannel, Calibration: cfg.Calibration},
	}, nil
}

// Close stops the bus owner before releasing the bus. An owner stuck on a
// transaction reports bus.ErrTimeout, but the bus is closed regardless.
func (h *hardware) Close() error {
	return errors.Join(h.owner.Close(), h.raw.Close())
}
