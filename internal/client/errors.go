package client

import "fmt"

// ErrConnectionClosed is returned to callers with a pending request when
// the underlying connection's read loop terminates: every still-pending
// completion is released with this error.
type ErrConnectionClosed struct {
	Cause error
}

func (e *ErrConnectionClosed) Error() string {
	if e.Cause == nil {
		return "client: connection closed"
	}
	return fmt.Sprintf("client: connection closed: %s", e.Cause)
}

func (e *ErrConnectionClosed) Unwrap() error { return e.Cause }

// ErrInvalidCorrelationID reports a correlation id collision on link, or
// a response frame whose correlation id has no pending slot.
type ErrInvalidCorrelationID struct {
	CorrelationID uint64
	Reason        string
}

func (e *ErrInvalidCorrelationID) Error() string {
	return fmt.Sprintf("client: correlation id %d: %s", e.CorrelationID, e.Reason)
}
