package engine

import (
	"encoding/json"
	"strings"

	"github.com/GreyCorbel/ExoHelper/pkg/exo"
)

// pipeSegments is the number of segments in the service's structured-error
// convention: errorCode|errorSubtype|message. The convention is undocumented,
// so anything that does not split into exactly this many parts falls through
// to the unknown-detail path.
const pipeSegments = 3

// wireError is the outer shape of a structured failure payload. The error
// object is kept raw so it can be stringified verbatim when its inner shape
// is unrecognized.
type wireError struct {
	Error json.RawMessage `json:"error"`
}

// wireErrorBody is the recognized inner shape of the error object.
type wireErrorBody struct {
	Details *struct {
		Message string `json:"message"`
	} `json:"details"`
	InnerError *struct {
		Type              string `json:"type"`
		InternalException *struct {
			Message string `json:"message"`
		} `json:"internalException"`
	} `json:"innerError"`
}

// buildError converts a failure payload into one typed error. Classification
// runs in priority order: plain text, pipe-delimited details, free-form
// details, inner exception, bare error object, nothing usable.
func buildError(status int, body []byte, exceptionType string) *exo.Error {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return &exo.Error{Status: status, Code: exo.CodeUnknownError, Message: "service returned no failure detail"}
	}

	var outer wireError

	err := json.Unmarshal(body, &outer)
	if err != nil {
		code := exo.CodeErrorWithPlainText
		if exceptionType != "" {
			code = exo.Code(exceptionType)
		}

		return &exo.Error{Status: status, Code: code, Message: text}
	}

	if len(outer.Error) == 0 || string(outer.Error) == "null" {
		return &exo.Error{Status: status, Code: exo.CodeUnknownError, Message: text}
	}

	var inner wireErrorBody

	err = json.Unmarshal(outer.Error, &inner)
	if err != nil {
		return &exo.Error{Status: status, Code: exo.CodeErrorWithMissingDetail, Message: string(outer.Error)}
	}

	if inner.Details != nil && inner.Details.Message != "" {
		message := inner.Details.Message

		parts := strings.Split(message, "|")
		if len(parts) == pipeSegments {
			return &exo.Error{
				Status:  status,
				Code:    exo.Code(parts[0]),
				Subtype: parts[1],
				Message: parts[2],
			}
		}

		return &exo.Error{Status: status, Code: exo.CodeErrorWithUnknownDetail, Message: message}
	}

	if inner.InnerError != nil && inner.InnerError.InternalException != nil {
		return &exo.Error{
			Status:  status,
			Code:    exo.CodeErrorWithInternalException,
			Subtype: inner.InnerError.Type,
			Message: inner.InnerError.InternalException.Message,
		}
	}

	return &exo.Error{Status: status, Code: exo.CodeErrorWithMissingDetail, Message: string(outer.Error)}
}

// failureMessage extracts the most specific message from a failure payload,
// for the throttling-message sniff and for retry-exhaustion reporting.
func failureMessage(body []byte) string {
	var outer wireError

	err := json.Unmarshal(body, &outer)
	if err == nil && len(outer.Error) > 0 {
		var inner wireErrorBody

		err = json.Unmarshal(outer.Error, &inner)
		if err == nil && inner.Details != nil && inner.Details.Message != "" {
			return inner.Details.Message
		}
	}

	return strings.TrimSpace(string(body))
}
