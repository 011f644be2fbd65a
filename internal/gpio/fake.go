package gpio

import (
	"sync"

	"github.com/sweeney/greenhouse/internal/logic"
)

// FakeWriter is a test double that records relay writes.
type FakeWriter struct {
	mu sync.Mutex

	// Writes contains every write in order.
	Writes []Write

	// Levels holds the current level of each line.
	Levels map[logic.Actuator]bool

	// WriteError, if set, will be returned by Write().
	WriteError error

	// Closed tracks if Close was called
	Closed bool
}

// Write is a single recorded line change.
type Write struct {
	Actuator logic.Actuator
	On       bool
}

// NewFakeWriter creates a FakeWriter with every line low.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{Levels: make(map[logic.Actuator]bool)}
}

// Write records the line level.
func (f *FakeWriter) Write(a logic.Actuator, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, Write{Actuator: a, On: on})
	f.Levels[a] = on
	return nil
}

// Level returns the current level of an actuator line.
func (f *FakeWriter) Level(a logic.Actuator) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Levels[a]
}

// Close drives every line low and marks the writer closed.
func (f *FakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range logic.Actuators {
		f.Levels[a] = false
	}
	f.Closed = true
	return nil
}

// Reset forgets recorded writes.
func (f *FakeWriter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Writes = nil
	f.Levels = make(map[logic.Actuator]bool)
	f.Closed = false
	f.WriteError = nil
}
