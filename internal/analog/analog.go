// Package analog provides blocking analog-to-digital conversions.
package analog

import (
	"encoding/binary"
	"log"
	"sync"

	"tinygo.org/x/drivers"
)

// Converter returns a completed raw sample for an input channel.
// Sample blocks until the conversion is done and always returns a value.
type Converter interface {
	Sample(channel int) uint16
}

// BusConverter reads an ADC that sits on the I2C bus. A conversion is a
// single transaction: write the channel select byte (Base+channel), read the
// result as two bytes little-endian. On a bus error the previous sample of
// that channel is returned and the failure is logged.
type BusConverter struct {
	bus  drivers.I2C
	addr uint16
	base byte
	log  *log.Logger

	mu   sync.Mutex
	last map[int]uint16
}

// NewBusConverter creates a converter for the ADC at addr.
func NewBusConverter(bus drivers.I2C, addr uint16, base byte, logger *log.Logger) *BusConverter {
	if logger == nil {
		logger = log.Default()
	}
	return &BusConverter{
		bus:  bus,
		addr: addr,
		base: base,
		log:  logger,
		last: make(map[int]uint16),
	}
}

// Sample converts one channel.
func (c *BusConverter) Sample(channel int) uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf := make([]byte, 2)
	if err := c.bus.Tx(c.addr, []byte{c.base + byte(channel)}, buf); err != nil {
		c.log.Printf("adc: channel %d: %v (keeping %d)", channel, err, c.last[channel])
		return c.last[channel]
	}
	v := binary.LittleEndian.Uint16(buf)
	c.last[channel] = v
	return v
}
