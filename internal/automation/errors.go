package automation

import "errors"

// ErrNotFound is the parent of every lookup failure in this package.
//
//	if errors.Is(err, automation.ErrNotFound) {
//	    // unknown room, item, event, condition or action
//	}
var ErrNotFound = errors.New("automation: not found")

// notFoundError is a specific lookup failure that also matches ErrNotFound.
type notFoundError struct{ msg string }

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }

var (
	// ErrRoomNotFound is returned when a room ID does not exist.
	ErrRoomNotFound error = &notFoundError{"automation: room not found"}

	// ErrItemNotFound is returned when an item ID or address does not exist.
	ErrItemNotFound error = &notFoundError{"automation: item not found"}

	// ErrEventNotFound is returned when an event ID does not exist.
	ErrEventNotFound error = &notFoundError{"automation: event not found"}

	// ErrConditionNotFound is returned when a condition ID does not exist
	// on the given event.
	ErrConditionNotFound error = &notFoundError{"automation: condition not found"}

	// ErrActionNotFound is returned when an action ID does not exist on the
	// given event.
	ErrActionNotFound error = &notFoundError{"automation: action not found"}
)

var (
	// ErrInvalidScope is returned for a scope outside item, room and house.
	ErrInvalidScope = errors.New("automation: invalid scope")

	// ErrInvalidRule is returned when a type and trigger value do not
	// combine into a rule.
	ErrInvalidRule = errors.New("automation: invalid rule")

	// ErrInvalidEquivalence is returned for an unknown comparison operator.
	ErrInvalidEquivalence = errors.New("automation: invalid equivalence")

	// ErrDuplicateAddress is returned when an address is already in use.
	ErrDuplicateAddress = errors.New("automation: address already in use")

	// ErrPersistence is returned when the repository rejects a write. The
	// in-memory house is left unchanged.
	ErrPersistence = errors.New("automation: persistence failed")
)
