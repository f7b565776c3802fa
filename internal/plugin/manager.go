package plugin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Plugin reacts to device triggers.
type Plugin interface {
	Name() string
	OnTrigger(ctx context.Context, address, trigger string) error
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

// Manager fans triggers out to plugins. It implements notify.Subscriber.
type Manager struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  Logger
}

// NewManager returns a Manager with no plugins.
func NewManager() *Manager {
	return &Manager{logger: noopLogger{}}
}

// SetLogger sets the logger.
func (m *Manager) SetLogger(logger Logger) {
	m.mu.Lock()
	m.logger = logger
	m.mu.Unlock()
}

// Register appends p. Names must be unique.
func (m *Manager) Register(p Plugin) error {
	if p == nil {
		return ErrNilPlugin
	}
	name := p.Name()

	m.mu.Lock()
	defer m.mu.Unlock()
	if slices.ContainsFunc(m.plugins, func(q Plugin) bool { return q.Name() == name }) {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, name)
	}
	m.plugins = append(m.plugins, p)
	m.logger.Info("plugin registered", "plugin", name)
	return nil
}

// Unregister removes the plugin called name and reports whether it existed.
func (m *Manager) Unregister(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.plugins, func(p Plugin) bool { return p.Name() == name })
	if i < 0 {
		return false
	}
	m.plugins = slices.Delete(m.plugins, i, i+1)
	m.logger.Info("plugin unregistered", "plugin", name)
	return true
}

// Plugins returns the registered names in delivery order.
func (m *Manager) Plugins() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.plugins))
	for i, p := range m.plugins {
		names[i] = p.Name()
	}
	return names
}

// OnTrigger delivers the trigger to every plugin registered when the call
// started. Failures are logged and joined.
func (m *Manager) OnTrigger(ctx context.Context, address, trigger string) error {
	m.mu.RLock()
	plugins := slices.Clone(m.plugins)
	logger := m.logger
	m.mu.RUnlock()

	var errs []error
	for _, p := range plugins {
		if err := deliver(ctx, p, address, trigger); err != nil {
			logger.Debug("plugin failed",
				"plugin", p.Name(),
				"address", address,
				"trigger", trigger,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func deliver(ctx context.Context, p Plugin, address, trigger string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPluginPanic, r)
		}
	}()
	return p.OnTrigger(ctx, address, trigger)
}
