// Package bus provides the two-wire (I2C) transaction layer used by the sensor readers.
//
// Devices are reached through tinygo's drivers.I2C transaction shape
// (Tx(addr, w, r)). Byte-level controllers that only expose start/write/read
// primitives are adapted with Framed; every transaction should go through an
// Owner so a stalled device degrades to ErrTimeout instead of a hang.
package bus

import (
	"errors"
	"fmt"

	"tinygo.org/x/drivers"
)

var (
	// ErrNotAcknowledged is returned when no device answers its address (absent or busy).
	ErrNotAcknowledged = errors.New("bus: device not acknowledged")
	// ErrTimeout is returned when a transaction does not complete in time.
	ErrTimeout = errors.New("bus: transaction timeout")
	// ErrClosed is returned for transactions submitted after Close.
	ErrClosed = errors.New("bus: closed")
)

// Direction is the R/W bit sent with a device address.
type Direction uint8

const (
	Write Direction = 0
	Read  Direction = 1
)

func (d Direction) String() string {
	if d == Read {
		return "R"
	}
	return "W"
}

// Conn is a byte-level bus controller.
type Conn interface {
	// Start issues a (repeated) start condition and the address byte.
	// Returns ErrNotAcknowledged if no device answers.
	Start(addr uint8, dir Direction) error
	// Send writes one byte to the addressed device.
	Send(b byte)
	// RecvAck reads one byte and acknowledges it (more bytes follow).
	RecvAck() byte
	// RecvNack reads one byte without acknowledging it (last byte).
	RecvNack() byte
	// Stop issues a stop condition.
	Stop()
}

// Framed runs drivers.I2C transactions over a byte-level Conn:
// address-for-write, the bytes of w, then a repeated start
// address-for-read and len(r) bytes, the last one not acknowledged.
type Framed struct {
	Conn Conn
}

var _ drivers.I2C = Framed{}

// Tx performs one write-then-read transaction.
func (f Framed) Tx(addr uint16, w, r []byte) error {
	a := uint8(addr)
	defer f.Conn.Stop()

	if len(w) > 0 {
		if err := f.Conn.Start(a, Write); err != nil {
			return fmt.Errorf("address 0x%02x for write: %w", a, err)
		}
		for _, b := range w {
			f.Conn.Send(b)
		}
	}
	if len(r) == 0 {
		return nil
	}

	if err := f.Conn.Start(a, Read); err != nil {
		return fmt.Errorf("address 0x%02x for read: %w", a, err)
	}
	last := len(r) - 1
	for i := 0; i < last; i++ {
		r[i] = f.Conn.RecvAck()
	}
	r[last] = f.Conn.RecvNack()
	return nil
}
