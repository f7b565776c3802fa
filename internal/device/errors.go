package device

import "errors"

// Domain errors for the device package.
//
//	if errors.Is(err, device.ErrUnsupportedMethod) {
//	    // reject the rule
//	}
var (
	// ErrUnsupportedMethod is returned when a method is not registered for an item's type.
	ErrUnsupportedMethod = errors.New("device: unsupported method")

	// ErrUnknownType is returned when a type name is not in the catalogue.
	ErrUnknownType = errors.New("device: unknown type")

	// ErrTypeExists is returned when registering a type name twice.
	ErrTypeExists = errors.New("device: type already registered")

	// ErrInvalidType is returned when a TypeSpec is incomplete.
	ErrInvalidType = errors.New("device: invalid type")

	// ErrInvalidState is returned when a value or trigger is outside a type's states.
	ErrInvalidState = errors.New("device: invalid state")

	// ErrInvalidArgument is returned when an action receives unusable arguments.
	ErrInvalidArgument = errors.New("device: invalid argument")

	// ErrInvalidName is returned when a name is empty or too long.
	ErrInvalidName = errors.New("device: invalid name")

	// ErrInvalidAddress is returned when an address cannot be used as a topic segment.
	ErrInvalidAddress = errors.New("device: invalid address")

	// ErrTransport is returned when a command cannot be delivered.
	ErrTransport = errors.New("device: transport failed")
)
