package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ds1307"
)

var clockTime string

var setClockCmd = &cobra.Command{
	Use:   "set-clock",
	Short: "Set the real-time clock",
	Long: `Set the DS1307 real-time clock to --time (HH:MM:SS, today's date)
or, without --time, to the system time. Starting the clock also clears
its halt flag.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		t, err := parseClockTime(clockTime, time.Now())
		if err != nil {
			return err
		}
		hw, err := openHardware(cfg)
		if err != nil {
			return err
		}
		defer hw.Close()
		return setClock(cmd.OutOrStdout(), hw.owner, cfg.Bus.ClockAddress, t)
	},
}

func init() {
	setClockCmd.Flags().StringVar(&clockTime, "time", "", "Time of day as HH:MM:SS (default: system time)")
	rootCmd.AddCommand(setClockCmd)
}

// parseClockTime resolves the --time flag against now's date.
func parseClockTime(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	tod, err := time.Parse("15:04:05", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --time %q: want HH:MM:SS", s)
	}
	return time.Date(now.Year(), now.Month(), now.Day(),
		tod.Hour(), tod.Minute(), tod.Second(), 0, now.Location()), nil
}

func setClock(out io.Writer, bus drivers.I2C, addr uint16, t time.Time) error {
	rtc := ds1307.New(bus)
	rtc.Address = uint8(addr)
	if err := rtc.SetTime(t); err != nil {
		return fmt.Errorf("set clock: %w", err)
	}
	fmt.Fprintf(out, "clock set to %s\n", t.Format("15:04:05"))
	return nil
}
