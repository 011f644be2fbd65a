//go:build !linux

package bus

import "errors"

// RealBus is not available on non-Linux platforms.
type RealBus struct{}

// NewRealBus returns an error on non-Linux platforms.
func NewRealBus() (*RealBus, error) {
	return nil, errors.New("bus: not supported on this platform (requires Linux)")
}

// Tx is not implemented on non-Linux platforms.
func (b *RealBus) Tx(addr uint16, w, r []byte) error {
	return errors.New("bus: not supported")
}

// Close is not implemented on non-Linux platforms.
func (b *RealBus) Close() error {
	return nil
}
