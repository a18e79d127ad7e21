package exo

import (
	"errors"
	"fmt"
)

// Code is a stable short identifier classifying a failure.
type Code string

// The error taxonomy. Codes are part of the public contract and never change
// meaning between releases.
const (
	// CodeMissingTenantID: the tenant could not be resolved from any source
	// at connection time.
	CodeMissingTenantID Code = "MissingTenantId"

	// CodeMissingAuthenticationFactory: no token provider or credentials were
	// configured.
	CodeMissingAuthenticationFactory Code = "MissingAuthenticationFactory"

	// CodeErrorWithPlainText: the service failed with an unstructured text
	// payload.
	CodeErrorWithPlainText Code = "ErrorWithPlainText"

	// CodeErrorWithUnknownDetail: the service reported a details message that
	// does not follow its structured-error convention.
	CodeErrorWithUnknownDetail Code = "ErrorWithUnknownDetail"

	// CodeErrorWithInternalException: the failure carried an inner exception.
	CodeErrorWithInternalException Code = "ErrorWithInternalException"

	// CodeErrorWithMissingDetail: the failure carried an error object with no
	// recognizable detail shape.
	CodeErrorWithMissingDetail Code = "ErrorWithMissingDetail"

	// CodeUnknownError: nothing usable could be extracted from the failure.
	CodeUnknownError Code = "UnknownError"

	// CodeTooManyRequests: the throttling retry budget was exhausted.
	CodeTooManyRequests Code = "TooManyRequests"

	// CodeTimeout: the invocation's effective timeout elapsed.
	CodeTimeout Code = "Timeout"

	// CodeValueProtection: a secret parameter could not be encrypted.
	CodeValueProtection Code = "UnableToProtectValue"
)

// Error is the typed error produced by the invocation engine and the
// connection builder.
type Error struct {
	// Status is the HTTP status of the failing response, zero when the
	// failure happened before or outside a response.
	Status int

	// Code classifies the failure.
	Code Code

	// Subtype is the service-reported classification, often empty.
	Subtype string

	// Message is the human-readable failure description.
	Message string

	// Err is the wrapped lower-level cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}

	switch {
	case e.Subtype != "" && e.Status != 0:
		return fmt.Sprintf("%s (%s, HTTP %d): %s", e.Code, e.Subtype, e.Status, msg)
	case e.Subtype != "":
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Subtype, msg)
	case e.Status != 0:
		return fmt.Sprintf("%s (HTTP %d): %s", e.Code, e.Status, msg)
	default:
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// codeIs reports whether err carries the given taxonomy code.
func codeIs(err error, code Code) bool {
	typed := &Error{}
	if errors.As(err, &typed) {
		return typed.Code == code
	}

	return false
}

// IsThrottled reports whether err is a retry-budget exhaustion failure.
func IsThrottled(err error) bool {
	return codeIs(err, CodeTooManyRequests)
}

// IsTimeout reports whether err is an invocation timeout.
func IsTimeout(err error) bool {
	return codeIs(err, CodeTimeout)
}

// IsMissingTenant reports whether err is a tenant resolution failure.
func IsMissingTenant(err error) bool {
	return codeIs(err, CodeMissingTenantID)
}

// IsMissingAuthenticationFactory reports whether err is a missing credential
// configuration failure.
func IsMissingAuthenticationFactory(err error) bool {
	return codeIs(err, CodeMissingAuthenticationFactory)
}
