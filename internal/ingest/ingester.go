package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/robohome/robohome-core/internal/infrastructure/mqtt"
)

// Subscriber is the part of the MQTT client the ingester needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	Topics() mqtt.Topics
	QoS() byte
}

// Notifier receives triggers.
type Notifier interface {
	Notify(ctx context.Context, address, trigger string) error
}

// StateReporter records last-known device state.
type StateReporter interface {
	ReportState(address string, state int) error
}

// Logger defines the logging interface used by the Ingester.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// TriggerMessage is the object form of a trigger payload.
type TriggerMessage struct {
	Trigger string `json:"trigger"`
}

// StateMessage is a state report payload.
type StateMessage struct {
	State *int `json:"state"`
}

type route struct {
	topic   string
	handler mqtt.MessageHandler
}

// Ingester subscribes to device topics and forwards what arrives.
type Ingester struct {
	client   Subscriber
	notifier Notifier
	states   StateReporter
	logger   Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started []string
}

// New returns a stopped ingester. states may be nil to ignore state reports.
func New(client Subscriber, notifier Notifier, states StateReporter) *Ingester {
	return &Ingester{
		client:   client,
		notifier: notifier,
		states:   states,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger.
func (in *Ingester) SetLogger(logger Logger) {
	in.logger = logger
}

// Start subscribes to the trigger and state topics. Handlers run with a
// context derived from ctx that is cancelled by Stop.
func (in *Ingester) Start(ctx context.Context) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.cancel != nil {
		return ErrAlreadyStarted
	}

	in.ctx, in.cancel = context.WithCancel(context.WithoutCancel(ctx))
	topics := in.client.Topics()

	subs := []route{{topics.AllTriggers(), in.handleTrigger}}
	if in.states != nil {
		subs = append(subs, route{topics.AllStates(), in.handleState})
	}

	for _, s := range subs {
		if err := in.client.Subscribe(s.topic, in.client.QoS(), s.handler); err != nil {
			in.stopLocked()
			return fmt.Errorf("subscribing to %s: %w", s.topic, err)
		}
		in.started = append(in.started, s.topic)
	}

	in.logger.Info("mqtt ingestion started", "topics", in.started)
	return nil
}

// Stop removes the subscriptions. It is safe to call more than once.
func (in *Ingester) Stop() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.stopLocked()
}

func (in *Ingester) stopLocked() {
	if in.cancel == nil {
		return
	}
	for _, topic := range in.started {
		if err := in.client.Unsubscribe(topic); err != nil {
			in.logger.Warn("mqtt unsubscribe failed", "topic", topic, "error", err)
		}
	}
	in.started = nil
	in.cancel()
	in.cancel = nil
}

func (in *Ingester) context() context.Context {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.ctx == nil {
		return context.Background()
	}
	return in.ctx
}

func (in *Ingester) handleTrigger(topic string, payload []byte) error {
	address, ok := in.client.Topics().AddressFromTopic("trigger", topic)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBadTopic, topic)
	}
	trigger, err := ParseTrigger(payload)
	if err != nil {
		return err
	}

	in.logger.Debug("trigger received", "address", address, "trigger", trigger)
	return in.notifier.Notify(in.context(), address, trigger)
}

func (in *Ingester) handleState(topic string, payload []byte) error {
	address, ok := in.client.Topics().AddressFromTopic("state", topic)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBadTopic, topic)
	}
	state, err := ParseState(payload)
	if err != nil {
		return err
	}
	return in.states.ReportState(address, state)
}

// ParseTrigger accepts {"trigger":"motion"}, a JSON string or a bare word.
func ParseTrigger(payload []byte) (string, error) {
	payload = bytes.TrimSpace(payload)
	var trigger string
	switch {
	case len(payload) == 0:
		return "", fmt.Errorf("%w: empty trigger", ErrBadPayload)
	case payload[0] == '{':
		var msg TriggerMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return "", fmt.Errorf("%w: %w", ErrBadPayload, err)
		}
		trigger = msg.Trigger
	case payload[0] == '"':
		if err := json.Unmarshal(payload, &trigger); err != nil {
			return "", fmt.Errorf("%w: %w", ErrBadPayload, err)
		}
	default:
		trigger = string(payload)
	}

	trigger = strings.TrimSpace(trigger)
	if trigger == "" || strings.ContainsAny(trigger, " \t\n") {
		return "", fmt.Errorf("%w: invalid trigger %q", ErrBadPayload, trigger)
	}
	return trigger, nil
}

// ParseState decodes {"state":n}.
func ParseState(payload []byte) (int, error) {
	var msg StateMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBadPayload, err)
	}
	if msg.State == nil {
		return 0, fmt.Errorf("%w: missing state", ErrBadPayload)
	}
	return *msg.State, nil
}
