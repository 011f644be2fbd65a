package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// OutboxLimit bounds the messages held while disconnected.
const OutboxLimit = 100

// Options configures a RealPublisher.
type Options struct {
	Broker   string
	ClientID string

	// OnConnectionChange, if set, is called on every connect and disconnect.
	OnConnectionChange func(connected bool)
}

// RealPublisher publishes to an MQTT broker. Messages published while the
// connection is down are queued and sent once it is back.
type RealPublisher struct {
	client paho.Client
	opts   Options

	mu     sync.Mutex
	outbox *outbox
}

// NewRealPublisher connects to the broker. The last will marks the
// controller offline if the connection drops uncleanly.
func NewRealPublisher(o Options) (*RealPublisher, error) {
	p := &RealPublisher{opts: o, outbox: newOutbox(OutboxLimit)}

	will, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE"})
	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
			p.notify(false)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

func (p *RealPublisher) notify(connected bool) {
	if p.opts.OnConnectionChange != nil {
		p.opts.OnConnectionChange(connected)
	}
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.notify(true)

	p.mu.Lock()
	backlog := p.outbox.take()
	p.mu.Unlock()

	if len(backlog) > 0 {
		log.Printf("mqtt: reconnected, sending %d queued messages", len(backlog))
	}
	for _, m := range backlog {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
}

// IsConnected reports whether the client currently holds a connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.outbox.push(pending{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// PublishReadings sends a full-cycle readings message (QoS 0, not retained).
func (p *RealPublisher) PublishReadings(event ReadingsEvent) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.publish(TopicReadings, 0, false, payload)
}

// PublishSystem sends a lifecycle event (QoS 1).
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

// Close disconnects from the broker, waiting up to a second.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	p.notify(false)
	return nil
}
