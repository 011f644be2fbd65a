//go:build linux

package gpio

import (
	"fmt"

	"github.com/sweeney/greenhouse/internal/logic"
	"github.com/warthog618/go-gpiocdev"
)

// RealWriter drives relays through the Linux GPIO character device.
type RealWriter struct {
	chip  *gpiocdev.Chip
	lines map[logic.Actuator]*gpiocdev.Line
}

// NewRealWriter requests every actuator line as an output, driven low.
func NewRealWriter(pins Pins) (*RealWriter, error) {
	chip, err := gpiocdev.NewChip(pins.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	w := &RealWriter{
		chip:  chip,
		lines: make(map[logic.Actuator]*gpiocdev.Line),
	}
	for _, a := range logic.Actuators {
		offset, _ := pins.offset(a)
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("greenhouse"))
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", a, offset, err)
		}
		w.lines[a] = line
	}
	return w, nil
}

// Write drives the actuator's line.
func (w *RealWriter) Write(a logic.Actuator, on bool) error {
	line, ok := w.lines[a]
	if !ok {
		return fmt.Errorf("unknown actuator %q", a)
	}
	v := 0
	if on {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("set %s pin: %w", a, err)
	}
	return nil
}

// Close de-energises every relay and releases the lines.
func (w *RealWriter) Close() error {
	var errs []error

	for _, a := range logic.Actuators {
		line, ok := w.lines[a]
		if !ok {
			continue
		}
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("reset %s pin: %w", a, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", a, err))
		}
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
