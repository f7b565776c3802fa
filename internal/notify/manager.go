package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Subscriber receives device triggers.
type Subscriber interface {
	OnTrigger(ctx context.Context, address, trigger string) error
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ctx context.Context, address, trigger string) error

// OnTrigger implements Subscriber.
func (f SubscriberFunc) OnTrigger(ctx context.Context, address, trigger string) error {
	return f(ctx, address, trigger)
}

// Logger defines the logging interface used by the Manager.
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

type entry struct {
	id   uint64
	name string
	sub  Subscriber
}

// Manager holds the ordered subscriber list. Safe for concurrent use;
// subscribers may subscribe or unsubscribe from inside OnTrigger.
type Manager struct {
	mu     sync.RWMutex
	subs   []entry
	nextID uint64
	logger Logger
}

// NewManager returns a Manager with no subscribers.
func NewManager() *Manager {
	return &Manager{logger: noopLogger{}}
}

// SetLogger sets the logger for delivery failures.
func (m *Manager) SetLogger(logger Logger) {
	m.mu.Lock()
	m.logger = logger
	m.mu.Unlock()
}

// Subscribe appends s under name and returns a function removing it.
// Names identify subscribers in logs and errors and must be unique.
func (m *Manager) Subscribe(name string, s Subscriber) (func(), error) {
	if s == nil {
		return nil, fmt.Errorf("notify: nil subscriber %q", name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.subs {
		if e.name == name {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSubscriber, name)
		}
	}
	m.nextID++
	id := m.nextID
	m.subs = append(m.subs, entry{id: id, name: name, sub: s})

	var once sync.Once
	return func() { once.Do(func() { m.remove(id) }) }, nil
}

func (m *Manager) remove(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.subs {
		if e.id == id {
			m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
			return
		}
	}
}

// Subscribers returns the subscriber names in delivery order.
func (m *Manager) Subscribers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.subs))
	for i, e := range m.subs {
		names[i] = e.name
	}
	return names
}

// Notify delivers the trigger to every subscriber registered when the call
// started, in order. Each failure is wrapped with the subscriber name.
func (m *Manager) Notify(ctx context.Context, address, trigger string) error {
	m.mu.RLock()
	subs := make([]entry, len(m.subs))
	copy(subs, m.subs)
	logger := m.logger
	m.mu.RUnlock()

	var errs []error
	for _, e := range subs {
		if err := deliver(ctx, e, address, trigger); err != nil {
			logger.Warn("subscriber failed",
				"subscriber", e.name,
				"address", address,
				"trigger", trigger,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
		}
	}
	return errors.Join(errs...)
}

func deliver(ctx context.Context, e entry, address, trigger string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSubscriberPanic, r)
		}
	}()
	return e.sub.OnTrigger(ctx, address, trigger)
}
