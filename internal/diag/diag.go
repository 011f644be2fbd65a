// Package diag carries diagnostic text to a serial console.
package diag

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"
)

// DefaultBaud matches the console the controller has always used (8N1).
const DefaultBaud = 9600

// OpenSerial opens a serial console for diagnostic output.
// Lines written to it end in CRLF.
func OpenSerial(port string, baud int) (io.WriteCloser, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	p, err := serial.Open(port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", port, err)
	}
	return NewCRLFWriter(p), nil
}

// CRLFWriter rewrites bare LF as CRLF for terminal consoles.
// Writes are best-effort: an error from the console is returned but the
// full length is reported written, so a log.Logger never stalls on it.
type CRLFWriter struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// NewCRLFWriter wraps w.
func NewCRLFWriter(w io.WriteCloser) *CRLFWriter {
	return &CRLFWriter{w: w}
}

func (c *CRLFWriter) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))
	if bytes.Contains(p, []byte("\r\n")) {
		out = bytes.ReplaceAll(out, []byte("\r\r\n"), []byte("\r\n"))
	}
	if _, err := c.w.Write(out); err != nil {
		return len(p), err
	}
	return len(p), nil
}

// Close closes the underlying console.
func (c *CRLFWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Close()
}
