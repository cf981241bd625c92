package httpclient

import (
	"context"

	"github.com/google/uuid"
)

// IdempotencyDoer stamps every write with an Idempotency-Key header so the
// server can deduplicate a retried write that actually reached it the
// first time. The key is assigned once per descriptor and reused verbatim
// by every retry of that descriptor.
type IdempotencyDoer struct {
	inner Doer
}

// NewIdempotencyDoer creates the idempotency key decorator.
func NewIdempotencyDoer(inner Doer) *IdempotencyDoer {
	return &IdempotencyDoer{inner: inner}
}

// Do assigns a key to writes that do not have one yet.
func (d *IdempotencyDoer) Do(ctx context.Context, req *Request) (*Response, error) {
	if !req.IsRead() {
		if req.idempotencyKey == "" {
			req.idempotencyKey = uuid.NewString()
		}
		req.Header.Set("Idempotency-Key", req.idempotencyKey)
	}
	return d.inner.Do(ctx, req)
}

var _ Doer = (*IdempotencyDoer)(nil)
