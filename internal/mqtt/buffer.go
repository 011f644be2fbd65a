package mqtt

import "log"

// pending is a message held back while the broker is unreachable.
type pending struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox is a bounded FIFO of pending messages. When full, the oldest
// message is dropped. Callers synchronize access.
type outbox struct {
	msgs    []pending
	limit   int
	dropped int
}

func newOutbox(limit int) *outbox {
	return &outbox{limit: limit}
}

func (o *outbox) push(m pending) {
	if len(o.msgs) == o.limit {
		if o.dropped == 0 {
			log.Printf("mqtt: outbox full (%d messages), dropping oldest", o.limit)
		}
		o.dropped++
		copy(o.msgs, o.msgs[1:])
		o.msgs[len(o.msgs)-1] = m
		return
	}
	o.msgs = append(o.msgs, m)
}

// take empties the outbox and returns its messages oldest first.
func (o *outbox) take() []pending {
	if len(o.msgs) == 0 {
		return nil
	}
	out := o.msgs
	o.msgs = nil
	if o.dropped > 0 {
		log.Printf("mqtt: %d messages dropped while disconnected", o.dropped)
		o.dropped = 0
	}
	return out
}

func (o *outbox) len() int {
	return len(o.msgs)
}
