package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sweeney/greenhouse/internal/cycle"
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read every sensor once and print the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		hw, err := openHardware(cfg)
		if err != nil {
			return err
		}
		defer hw.Close()
		return printReadings(cmd.OutOrStdout(), hw.temperature, hw.clock, hw.moisture, hw.light)
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
}

// printReadings samples each sensor once. A missing bus device is reported
// in place of its value and does not fail the command.
func printReadings(w io.Writer, temp cycle.TemperatureReader, clk cycle.ClockReader, moisture, light cycle.AnalogReader) error {
	if t, err := temp.Read(); err != nil {
		fmt.Fprintf(w, "temperature: %v\n", err)
	} else {
		fmt.Fprintf(w, "temperature: %s C\n", t)
	}
	if c, err := clk.Read(); err != nil {
		fmt.Fprintf(w, "clock: %v\n", err)
	} else {
		fmt.Fprintf(w, "clock: %s\n", c)
	}
	raw, pct := moisture.Read()
	fmt.Fprintf(w, "moisture: %d%% (raw %d)\n", pct, raw)
	raw, pct = light.Read()
	fmt.Fprintf(w, "light: %d%% (raw %d)\n", pct, raw)
	return nil
}
