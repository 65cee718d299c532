package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
)

// NoCredentialsError reports that credential resolution produced no
// candidates at all, so no request was ever sent.
type NoCredentialsError struct {
	Label string
}

func (e *NoCredentialsError) Error() string {
	return fmt.Sprintf("no credentials available for %s", e.Label)
}

// RequestError describes one failed attempt against the generation API. It
// covers all three failure classes of an attempt: transport errors, non-2xx
// statuses, and unparseable success bodies.
//
// Message holds the upstream's own description when one could be
// extracted; Error returns it verbatim so callers see exactly what the
// service said.
type RequestError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return fmt.Sprintf("call to %s failed", e.Endpoint)
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// newStatusError builds the attempt error for a non-2xx response, carrying
// the most specific failure message the body offers.
func newStatusError(endpoint string, status int, body []byte) *RequestError {
	return &RequestError{
		Endpoint:   endpoint,
		StatusCode: status,
		Message:    failureMessage(status, body),
	}
}

// failureMessage extracts a human-readable description from an error
// response body. Preference order: the message nested under the body's
// error object, then a top-level message field, then a generic line naming
// the status code.
func failureMessage(status int, body []byte) string {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(payload.Error, &nested); err == nil && nested.Message != "" {
				return nested.Message
			}
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return fmt.Sprintf("call failed with status %d", status)
}

// IsNoCredentials reports whether err means resolution found nothing to
// try.
func IsNoCredentials(err error) bool {
	var target *NoCredentialsError
	return errors.As(err, &target)
}

// IsRequestFailure reports whether err came from a failed attempt against
// the API, as opposed to having no credentials at all.
func IsRequestFailure(err error) bool {
	var target *RequestError
	return errors.As(err, &target)
}
