//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/greenhouse/internal/logic"
)

// RealWriter is not available on non-Linux platforms.
type RealWriter struct{}

// NewRealWriter returns an error on non-Linux platforms.
func NewRealWriter(pins Pins) (*RealWriter, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Write is not implemented on non-Linux platforms.
func (w *RealWriter) Write(a logic.Actuator, on bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (w *RealWriter) Close() error {
	return nil
}
