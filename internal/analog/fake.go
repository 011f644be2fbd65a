package analog

import "sync"

// FakeConverter returns scripted samples per channel.
// Each call to Sample consumes the next value; the last value repeats.
type FakeConverter struct {
	mu      sync.Mutex
	samples map[int][]uint16
	index   map[int]int

	// Calls records the channel of every conversion.
	Calls []int
}

// NewFakeConverter creates a FakeConverter with no samples (every channel reads 0).
func NewFakeConverter() *FakeConverter {
	return &FakeConverter{
		samples: make(map[int][]uint16),
		index:   make(map[int]int),
	}
}

// Set scripts the samples returned for channel.
func (f *FakeConverter) Set(channel int, samples ...uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples[channel] = samples
	f.index[channel] = 0
}

// Sample returns the next scripted value for channel.
func (f *FakeConverter) Sample(channel int) uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, channel)

	s := f.samples[channel]
	if len(s) == 0 {
		return 0
	}
	i := f.index[channel]
	if i < len(s)-1 {
		f.index[channel] = i + 1
	}
	return s[i]
}
