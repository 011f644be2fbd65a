package mqtt

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	Readings         []ReadingsEvent
	ReadingsPayloads [][]byte

	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// PublishError, if set, is returned by PublishReadings.
	PublishError error

	// PublishSystemError, if set, is returned by PublishSystem.
	PublishSystemError error

	Closed    bool
	Connected bool
}

// NewFakePublisher creates a FakePublisher.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishReadings records the readings event.
func (f *FakePublisher) PublishReadings(event ReadingsEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Readings = append(f.Readings, event)
	f.ReadingsPayloads = append(f.ReadingsPayloads, payload)
	return nil
}

// PublishSystem records the lifecycle event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected returns the Connected field.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears everything recorded.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}
