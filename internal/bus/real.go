//go:build linux

package bus

import (
	"fmt"

	"github.com/reef-pi/rpi/i2c"
	"tinygo.org/x/drivers"
)

// RealBus reaches devices through the Linux i2c-dev interface.
// The kernel driver does the start/ack/stop framing.
type RealBus struct {
	bus i2c.Bus
}

var _ drivers.I2C = (*RealBus)(nil)

// NewRealBus opens the system I2C bus.
func NewRealBus() (*RealBus, error) {
	b, err := i2c.New()
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	return &RealBus{bus: b}, nil
}

// Tx writes w (if any) then reads len(r) bytes (if any) from addr.
// A device that does not answer surfaces as ErrNotAcknowledged.
func (b *RealBus) Tx(addr uint16, w, r []byte) error {
	a := byte(addr)
	if len(w) > 0 {
		if err := b.bus.WriteBytes(a, w); err != nil {
			return fmt.Errorf("address 0x%02x for write: %w (%v)", a, ErrNotAcknowledged, err)
		}
	}
	if len(r) == 0 {
		return nil
	}
	data, err := b.bus.ReadBytes(a, len(r))
	if err != nil {
		return fmt.Errorf("address 0x%02x for read: %w (%v)", a, ErrNotAcknowledged, err)
	}
	copy(r, data)
	return nil
}

// Close releases the bus file descriptor.
func (b *RealBus) Close() error {
	return b.bus.Close()
}
