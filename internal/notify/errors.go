package notify

import "errors"

var (
	// ErrSubscriberPanic wraps a recovered subscriber panic.
	ErrSubscriberPanic = errors.New("notify: subscriber panicked")

	// ErrDuplicateSubscriber is returned when a name is already subscribed.
	ErrDuplicateSubscriber = errors.New("notify: subscriber name already in use")
)
