package stream

import "errors"

var (
	// ErrTransport wraps read failures of the upstream byte stream.
	ErrTransport = errors.New("stream transport failed")

	// ErrSinkDelivery wraps errors returned by a Sink. Delivery order cannot be
	// reconstructed after a gap, so the stream is aborted.
	ErrSinkDelivery = errors.New("stream event delivery failed")

	// ErrCanceled wraps the context error when the caller stops the stream.
	ErrCanceled = errors.New("stream canceled")

	// ErrStreamUsed is returned when Run is called more than once.
	ErrStreamUsed = errors.New("stream already run")
)
