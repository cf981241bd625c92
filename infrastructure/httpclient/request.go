// Package httpclient implements the shared API client: one call surface
// for all network I/O, with auth injection, response caching, retry,
// coalescing, circuit breaking and observability applied as explicitly
// composed decorators around a base transport.
package httpclient

import (
	"net/http"
)

// Request is the descriptor for one outbound API call. It is created per
// call site, mutated in place by the retry decorator, and discarded once
// the call resolves or exhausts its retries.
type Request struct {
	Method string
	URL    string
	Header http.Header

	// Body is the full request body. Kept as a byte slice so retries can
	// replay it.
	Body []byte

	// ContentType is sent as the Content-Type header when Body is set.
	ContentType string

	// retryCount is owned by the retry decorator.
	retryCount int

	// idempotencyKey is assigned once per logical write and reused across
	// retries of the same descriptor.
	idempotencyKey string
}

// NewRequest creates a descriptor with an initialized header map.
func NewRequest(method, url string) *Request {
	return &Request{
		Method: method,
		URL:    url,
		Header: make(http.Header),
	}
}

// IsRead reports whether the request uses the read method. Only reads are
// coalesced and cached.
func (r *Request) IsRead() bool {
	return r.Method == http.MethodGet
}

// RetryCount returns how many times this descriptor has been re-dispatched.
func (r *Request) RetryCount() int {
	return r.retryCount
}

// Response is the resolved result of a request.
type Response struct {
	Status int
	Header http.Header
	Body   []byte

	// FromCache is true when the body was served by the stale-on-error
	// fallback rather than live transport.
	FromCache bool
}
