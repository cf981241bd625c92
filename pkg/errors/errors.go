// Package errors defines the error taxonomy shared by the API client and
// the services built on top of it.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	// ErrorTypeTransport means no response was received at all (offline,
	// DNS failure, timeout).
	ErrorTypeTransport ErrorType = "TRANSPORT"
	// ErrorTypeServer covers HTTP 5xx responses.
	ErrorTypeServer ErrorType = "SERVER"
	// ErrorTypeRateLimited covers HTTP 429 and 403. Treating 403 the same
	// as 429 is a deliberate, coarse policy carried over from the API's
	// observed behavior; flagged for review in DESIGN.md.
	ErrorTypeRateLimited ErrorType = "RATE_LIMITED"
	// ErrorTypeValidation is a 4xx carrying a field-level error map.
	ErrorTypeValidation ErrorType = "VALIDATION"
	// ErrorTypeNotFound is HTTP 404.
	ErrorTypeNotFound ErrorType = "NOT_FOUND"
	// ErrorTypeClient is any other 4xx (400, 401, ...). Never retried.
	ErrorTypeClient ErrorType = "CLIENT"
	// ErrorTypeDomain is a success=false envelope delivered on HTTP 200.
	ErrorTypeDomain ErrorType = "DOMAIN"
	// ErrorTypeInternal is a local failure (encoding, invariant violation).
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// APIError is the custom error type for the client.
type APIError struct {
	Type    ErrorType
	Message string

	// Status is the HTTP status of the response, or 0 when no response
	// was received.
	Status int

	// Body is the raw response body, when a response was received.
	Body []byte

	// Fields holds the server's field->messages validation map, keyed by
	// field name. Only set for validation errors. The first message of
	// each field is what the UI displays.
	Fields map[string][]string

	Err error
}

// Error implements the error interface
func (e *APIError) Error() string {
	switch {
	case e.Status > 0 && e.Err != nil:
		return fmt.Sprintf("%s (%d): %s: %v", e.Type, e.Status, e.Message, e.Err)
	case e.Status > 0:
		return fmt.Sprintf("%s (%d): %s", e.Type, e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *APIError) Unwrap() error {
	return e.Err
}

// laravelErrorBody mirrors the validation payload shape the API returns:
// a human message plus a field->messages map.
type laravelErrorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// NewTransport creates a transport error (no response received).
func NewTransport(err error) error {
	return &APIError{
		Type:    ErrorTypeTransport,
		Message: "request failed without a response",
		Err:     err,
	}
}

// NewDomain creates a domain error for a success=false envelope.
func NewDomain(message string) error {
	if message == "" {
		message = "request was rejected by the server"
	}
	return &APIError{
		Type:    ErrorTypeDomain,
		Message: message,
		Status:  200,
	}
}

// NewValidation creates a client-side validation error with a field map,
// matching the shape of server-side validation failures so callers handle
// both identically.
func NewValidation(message string, fields map[string][]string) error {
	return &APIError{
		Type:    ErrorTypeValidation,
		Message: message,
		Fields:  fields,
	}
}

// NewInternal creates an internal error
func NewInternal(message string, err error) error {
	return &APIError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// FromResponse classifies an HTTP error response into the taxonomy.
// The body is kept verbatim; validation maps are decoded when present.
func FromResponse(status int, body []byte) error {
	apiErr := &APIError{
		Status: status,
		Body:   body,
	}

	var parsed laravelErrorBody
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
		apiErr.Message = parsed.Message
		if len(parsed.Errors) > 0 {
			apiErr.Fields = parsed.Errors
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("server returned status %d", status)
	}

	switch {
	case status == 403 || status == 429:
		apiErr.Type = ErrorTypeRateLimited
	case status == 404:
		apiErr.Type = ErrorTypeNotFound
	case status >= 500:
		apiErr.Type = ErrorTypeServer
	case len(apiErr.Fields) > 0:
		apiErr.Type = ErrorTypeValidation
	default:
		apiErr.Type = ErrorTypeClient
	}
	return apiErr
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an APIError, preserve the classification.
	if apiErr, ok := err.(*APIError); ok {
		return &APIError{
			Type:    apiErr.Type,
			Message: fmt.Sprintf("%s: %s", message, apiErr.Message),
			Status:  apiErr.Status,
			Body:    apiErr.Body,
			Fields:  apiErr.Fields,
			Err:     apiErr.Err,
		}
	}

	return &APIError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// Type checking functions

// IsRetryable reports whether the error falls in the retry policy:
// transport failures, 5xx, and the 403/429 rate-limit class.
func IsRetryable(err error) bool {
	apiErr, ok := err.(*APIError)
	if !ok {
		return false
	}
	switch apiErr.Type {
	case ErrorTypeTransport, ErrorTypeServer, ErrorTypeRateLimited:
		return true
	}
	return false
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Type == ErrorTypeValidation
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Type == ErrorTypeNotFound
}

// IsDomain checks if an error is a success=false domain failure
func IsDomain(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Type == ErrorTypeDomain
}

// IsTransport checks if an error is a transport failure
func IsTransport(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Type == ErrorTypeTransport
}

// FieldErrors returns the server's field->messages map when the error is a
// validation failure, nil otherwise.
func FieldErrors(err error) map[string][]string {
	apiErr, ok := err.(*APIError)
	if !ok {
		return nil
	}
	return apiErr.Fields
}

// StatusOf returns the HTTP status attached to the error, or 0.
func StatusOf(err error) int {
	apiErr, ok := err.(*APIError)
	if !ok {
		return 0
	}
	return apiErr.Status
}
