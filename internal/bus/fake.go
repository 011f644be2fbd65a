package bus

import (
	"fmt"
	"sync"
)

// FakeDevice is a register-file device: the first byte written after an
// address-for-write sets the register pointer, later bytes are stored at the
// pointer, and reads return bytes from the pointer. The pointer
// auto-increments, as it does on DS1307 and DHT12 parts.
type FakeDevice struct {
	Regs [256]byte

	// Absent makes the device ignore its address.
	Absent bool

	ptr byte
}

// FakeConn is a test double for a byte-level bus controller.
// Trace records every bus condition for framing assertions, e.g.
// "S 5c W", "> 02", "S 5c R", "< 18 ACK", "< 05 NACK", "P".
type FakeConn struct {
	mu      sync.Mutex
	devices map[uint8]*FakeDevice
	cur     *FakeDevice
	first   bool

	Trace []string
}

// NewFakeConn creates a FakeConn with no devices attached.
func NewFakeConn() *FakeConn {
	return &FakeConn{devices: make(map[uint8]*FakeDevice)}
}

// Attach places a device at addr and returns it.
func (f *FakeConn) Attach(addr uint8) *FakeDevice {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := &FakeDevice{}
	f.devices[addr] = d
	return d
}

// Device returns the device at addr, or nil.
func (f *FakeConn) Device(addr uint8) *FakeDevice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.devices[addr]
}

// Start addresses a device.
func (f *FakeConn) Start(addr uint8, dir Direction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.devices[addr]
	if !ok || d.Absent {
		f.Trace = append(f.Trace, fmt.Sprintf("S %02x %s NACK", addr, dir))
		f.cur = nil
		return ErrNotAcknowledged
	}
	f.Trace = append(f.Trace, fmt.Sprintf("S %02x %s", addr, dir))
	f.cur = d
	f.first = dir == Write
	return nil
}

// Send writes one byte to the addressed device.
func (f *FakeConn) Send(b byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Trace = append(f.Trace, fmt.Sprintf("> %02x", b))
	if f.cur == nil {
		return
	}
	if f.first {
		f.cur.ptr = b
		f.first = false
		return
	}
	f.cur.Regs[f.cur.ptr] = b
	f.cur.ptr++
}

// RecvAck reads one byte and acknowledges it.
func (f *FakeConn) RecvAck() byte { return f.recv("ACK") }

// RecvNack reads the last byte of a read.
func (f *FakeConn) RecvNack() byte { return f.recv("NACK") }

func (f *FakeConn) recv(ack string) byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var b byte = 0xFF
	if f.cur != nil {
		b = f.cur.Regs[f.cur.ptr]
		f.cur.ptr++
	}
	f.Trace = append(f.Trace, fmt.Sprintf("< %02x %s", b, ack))
	return b
}

// Stop releases the bus.
func (f *FakeConn) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Trace = append(f.Trace, "P")
	f.cur = nil
}

// ResetTrace clears the recorded trace.
func (f *FakeConn) ResetTrace() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Trace = nil
}
