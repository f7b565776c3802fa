package plugin

import "errors"

var (
	// ErrNilPlugin is returned when registering a nil plugin.
	ErrNilPlugin = errors.New("plugin: nil plugin")

	// ErrDuplicatePlugin is returned when a plugin name is already registered.
	ErrDuplicatePlugin = errors.New("plugin: name already registered")

	// ErrPluginPanic wraps a recovered panic from a plugin.
	ErrPluginPanic = errors.New("plugin: panic in OnTrigger")
)
