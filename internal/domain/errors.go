package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNoChannels      = errors.New("experiment has no channels")
	ErrNoLayers        = errors.New("channel has no layers")
	ErrMalformedRecord = errors.New("malformed record")
	ErrNotFound        = errors.New("not found")
	ErrChannelNotFound = errors.New("channel not found")
)

// MalformedRecordError reports the first field of a serialized record that
// failed validation. Field is a path such as "channels[1].layers[0].max_zoom".
type MalformedRecordError struct {
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed experiment record: %s: %s", e.Field, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

// ServiceError is the failure payload reported by the remote service.
type ServiceError struct {
	StatusCode int
	Message    string
	// Payload is the raw value of the "error" member of the response body.
	Payload json.RawMessage
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("service error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("service error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether the service answered 404.
func (e *ServiceError) IsNotFound() bool {
	return e.StatusCode == 404
}
