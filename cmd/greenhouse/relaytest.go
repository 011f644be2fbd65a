package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/greenhouse/internal/gpio"
	"github.com/sweeney/greenhouse/internal/logic"
)

var relayHold time.Duration

var relayTestCmd = &cobra.Command{
	Use:   "relay-test",
	Short: "Switch each relay on and off in turn",
	Long: `Switch the vent, sprinkler and grow-light relays on one at a time,
holding each for --hold, then drive every output low.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		w, err := gpio.NewRealWriter(cfg.GPIO)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		defer w.Close()
		return relayTest(cmd.OutOrStdout(), w, relayHold, time.Sleep)
	},
}

func init() {
	relayTestCmd.Flags().DurationVar(&relayHold, "hold", time.Second, "How long each relay stays on")
	rootCmd.AddCommand(relayTestCmd)
}

func relayTest(out io.Writer, w gpio.Writer, hold time.Duration, sleep func(time.Duration)) error {
	for _, a := range logic.Actuators {
		fmt.Fprintf(out, "%s: ON\n", a)
		if err := w.Write(a, true); err != nil {
			return fmt.Errorf("%s on: %w", a, err)
		}
		sleep(hold)
		if err := w.Write(a, false); err != nil {
			return fmt.Errorf("%s off: %w", a, err)
		}
		fmt.Fprintf(out, "%s: OFF\n", a)
	}
	return nil
}
