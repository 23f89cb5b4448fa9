package core

import (
	"errors"
	"fmt"
)

// Error codes sent to clients in outbound error events.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeStoreFailure = "store_failure"
	ErrCodeNotFound     = "not_found"
	ErrCodeForbidden    = "forbidden"
	ErrCodeUnauthorized = "unauthorized"
)

var (
	// ErrAuthFailure covers missing, malformed, expired or unverifiable tokens and
	// unknown or inactive users. All of them refuse the connection the same way.
	ErrAuthFailure = errors.New("authentication failed")
	// ErrStoreFailure is returned when the durable store is unreachable or rejects a write.
	ErrStoreFailure = errors.New("store failure")
	// ErrNotFound is returned when a message does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller may not act on a message.
	ErrForbidden = errors.New("forbidden")
	// ErrDeliveryFailure marks a failed send to a single session.
	ErrDeliveryFailure = errors.New("delivery failed")
	// ErrMalformedEvent marks an inbound payload that could not be decoded or has an unknown type.
	ErrMalformedEvent = errors.New("malformed event")
	// ErrRateLimited marks an inbound event dropped because the session exceeded its budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrInvalidContent is returned when chat content is empty or too long.
	ErrInvalidContent = errors.New("invalid message content")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// DeliveryError reports a failed send to one session.
type DeliveryError struct {
	SessionID string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to session %s: %v", e.SessionID, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Is reports DeliveryError as ErrDeliveryFailure.
func (e *DeliveryError) Is(target error) bool {
	return target == ErrDeliveryFailure
}

// errorFor maps a dispatch failure to the error event reported to the sender.
func errorFor(err error) *CoreError {
	switch {
	case errors.Is(err, ErrInvalidContent):
		return coreError(ErrCodeBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return coreError(ErrCodeNotFound, "message not found")
	case errors.Is(err, ErrForbidden):
		return coreError(ErrCodeForbidden, "not allowed")
	default:
		return coreError(ErrCodeStoreFailure, "message could not be saved")
	}
}
