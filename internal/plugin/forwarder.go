package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robohome/robohome-core/internal/infrastructure/mqtt"
)

// EventForwarderName is the name EventForwarder registers under.
const EventForwarderName = "event-forwarder"

// Publisher is the part of the MQTT client the forwarder needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Topics() mqtt.Topics
	QoS() byte
}

// EventMessage is the payload published for each trigger.
// Topic: {prefix}/event/{address}
type EventMessage struct {
	Address   string    `json:"address"`
	Trigger   string    `json:"trigger"`
	Timestamp time.Time `json:"timestamp"`
}

// EventForwarder republishes triggers over MQTT.
type EventForwarder struct {
	pub Publisher
	now func() time.Time
}

// NewEventForwarder returns a forwarder publishing through pub.
func NewEventForwarder(pub Publisher) *EventForwarder {
	return &EventForwarder{pub: pub, now: time.Now}
}

// Name implements Plugin.
func (f *EventForwarder) Name() string { return EventForwarderName }

// OnTrigger implements Plugin.
func (f *EventForwarder) OnTrigger(ctx context.Context, address, trigger string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(EventMessage{
		Address:   address,
		Trigger:   trigger,
		Timestamp: f.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if err := f.pub.Publish(f.pub.Topics().Event(address), payload, f.pub.QoS(), false); err != nil {
		return fmt.Errorf("forwarding event: %w", err)
	}
	return nil
}
