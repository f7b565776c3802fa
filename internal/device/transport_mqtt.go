package device

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robohome/robohome-core/internal/infrastructure/mqtt"
)

// Publisher is the part of the MQTT client the transport needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Topics() mqtt.Topics
	QoS() byte
}

// CommandMessage is the payload published to a device command topic.
type CommandMessage struct {
	Command   string         `json:"command"`
	Params    map[string]any `json:"params,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// MQTTTransport publishes commands to {prefix}/command/{address}.
type MQTTTransport struct {
	pub Publisher
	now func() time.Time
}

// NewMQTTTransport returns a transport publishing through pub.
func NewMQTTTransport(pub Publisher) *MQTTTransport {
	return &MQTTTransport{pub: pub, now: time.Now}
}

// Send implements Transport.
func (t *MQTTTransport) Send(ctx context.Context, address, command string, params map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(CommandMessage{
		Command:   command,
		Params:    params,
		Timestamp: t.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding command: %w", err)
	}
	return t.pub.Publish(t.pub.Topics().Command(address), payload, t.pub.QoS(), false)
}
