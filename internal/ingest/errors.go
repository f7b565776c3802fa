package ingest

import "errors"

var (
	// ErrBadTopic is returned for a message on a topic with no device address.
	ErrBadTopic = errors.New("ingest: topic has no device address")

	// ErrBadPayload is returned for a message that cannot be decoded.
	ErrBadPayload = errors.New("ingest: malformed payload")

	// ErrAlreadyStarted is returned by Start on a running ingester.
	ErrAlreadyStarted = errors.New("ingest: already started")
)
