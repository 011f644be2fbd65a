package bus

import (
	"sync"
	"time"

	"tinygo.org/x/drivers"
)

// DefaultTimeout bounds a single transaction. It is well under one tick.
const DefaultTimeout = 25 * time.Millisecond

type request struct {
	addr uint16
	w    []byte
	r    []byte
	done chan error
}

// Owner serialises all transactions for one bus onto a single goroutine and
// bounds each call with a timeout. A request that times out is abandoned:
// the caller's buffers are never written after Tx returns.
type Owner struct {
	bus     drivers.I2C
	timeout time.Duration

	reqs chan request
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

var _ drivers.I2C = (*Owner)(nil)

// NewOwner starts the bus goroutine. A timeout <= 0 uses DefaultTimeout.
func NewOwner(bus drivers.I2C, timeout time.Duration) *Owner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	o := &Owner{
		bus:     bus,
		timeout: timeout,
		reqs:    make(chan request),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go o.loop()
	return o
}

func (o *Owner) loop() {
	defer close(o.done)
	for {
		select {
		case req := <-o.reqs:
			req.done <- o.bus.Tx(req.addr, req.w, req.r)
		case <-o.quit:
			return
		}
	}
}

// Tx submits a transaction and waits for it, at most the owner's timeout.
func (o *Owner) Tx(addr uint16, w, r []byte) error {
	req := request{
		addr: addr,
		w:    append([]byte(nil), w...),
		r:    make([]byte, len(r)),
		done: make(chan error, 1),
	}

	t := time.NewTimer(o.timeout)
	defer t.Stop()

	select {
	case o.reqs <- req:
	case <-t.C:
		return ErrTimeout
	case <-o.quit:
		return ErrClosed
	}

	select {
	case err := <-req.done:
		if err != nil {
			return err
		}
		copy(r, req.r)
		return nil
	case <-t.C:
		return ErrTimeout
	}
}

// Close stops the bus goroutine. An in-flight transaction gets one more
// timeout period to finish before Close gives up on it.
func (o *Owner) Close() error {
	o.once.Do(func() { close(o.quit) })
	select {
	case <-o.done:
		return nil
	case <-time.After(o.timeout):
		return ErrTimeout
	}
}
