package broker

import "fmt"

// UnknownMessageType reports an api_key with no registered handler. This
// is a local/protocol-level failure: no framed error response is sent,
// the connection is closed instead.
type UnknownMessageType struct {
	APIKey int
}

func (e *UnknownMessageType) Error() string {
	return fmt.Sprintf("broker: no handler registered for api_key %d", e.APIKey)
}

// payloadError reports a request whose JSON payload didn't match the
// strict schema for its api_key (unknown fields are rejected).
type payloadError struct {
	reason string
}

func (e *payloadError) Error() string {
	return fmt.Sprintf("broker: invalid request payload: %s", e.reason)
}
