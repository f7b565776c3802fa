package device

import (
	"fmt"
	"strings"
)

const (
	maxNameLength    = 100
	maxAddressLength = 128
)

// ValidateName checks that a room or item name is usable.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateAddress checks that an address can be used as a single MQTT
// topic segment.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("%w: address cannot be empty", ErrInvalidAddress)
	}
	if len(address) > maxAddressLength {
		return fmt.Errorf("%w: address exceeds %d characters", ErrInvalidAddress, maxAddressLength)
	}
	if strings.ContainsAny(address, "/+# \t\n") {
		return fmt.Errorf("%w: %q contains reserved characters", ErrInvalidAddress, address)
	}
	return nil
}
