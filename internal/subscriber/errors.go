package subscriber

import "errors"

var (
	ErrNoTopic          = errors.New("subscription topic is empty")
	ErrNilTransport     = errors.New("transport is nil")
	ErrNilRenderer      = errors.New("renderer is nil")
	ErrStreamClosed     = errors.New("delivery stream closed")
	ErrRetriesExhausted = errors.New("retry policy gave up")
)
