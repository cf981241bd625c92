package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	apperrors "manara-client/pkg/errors"
)

// Doer is the single call surface for network I/O. Decorators wrap a Doer
// and are themselves Doers, so policies compose without the callers
// knowing which are active.
type Doer interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// DoerFunc adapts a function to the Doer interface.
type DoerFunc func(ctx context.Context, req *Request) (*Response, error)

// Do implements Doer.
func (f DoerFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Transport is the base Doer backed by net/http. It performs exactly one
// HTTP round trip per call: classification of error responses happens
// here, every resilience policy lives in the decorators above it.
type Transport struct {
	client *http.Client
}

// NewTransport creates the base transport with the given timeout.
func NewTransport(timeout time.Duration) *Transport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Transport{
		client: &http.Client{Timeout: timeout},
	}
}

// Do executes one HTTP round trip. Any response with a status outside the
// 2xx range is returned as a classified error; a failure to obtain a
// response at all is a transport error.
func (t *Transport) Do(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, apperrors.NewInternal("building request", err)
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewTransport(err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, apperrors.NewTransport(err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, apperrors.FromResponse(httpResp.StatusCode, respBody)
	}

	return &Response{
		Status: httpResp.StatusCode,
		Header: httpResp.Header,
		Body:   respBody,
	}, nil
}
