package device

import (
	"context"
)

// Device is the runtime behaviour behind an Item.
type Device interface {
	// State returns the device's numeric state, an index into its
	// type's States.
	State(ctx context.Context) (int, error)
}

// Switchable devices can be turned on and off.
type Switchable interface {
	Device
	TurnOn(ctx context.Context) error
	TurnOff(ctx context.Context) error
}

// Dimmable devices accept a brightness level in 0..100.
type Dimmable interface {
	Switchable
	SetBrightness(ctx context.Context, level int) error
}

// BrightnessReporter devices remember the last brightness level set.
type BrightnessReporter interface {
	Brightness() int
	ReportBrightness(level int)
}

// StateReporter devices accept state reported by the device itself.
type StateReporter interface {
	ReportState(state int)
}

// ActionFunc implements a named action for a device type.
type ActionFunc func(ctx context.Context, d Device, args ...any) (any, error)

// Transport delivers a command to the device at address.
type Transport interface {
	Send(ctx context.Context, address, command string, params map[string]any) error
}

// NoopTransport accepts every command without sending it. Devices keep
// their optimistic state, which is enough when no broker is configured.
type NoopTransport struct{}

// Send implements Transport.
func (NoopTransport) Send(context.Context, string, string, map[string]any) error {
	return nil
}
