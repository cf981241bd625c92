package httpclient

import (
	"context"
	"sync/atomic"
)

// SwitchDoer is an atomically swappable indirection over a Doer. It lets
// the decorated chain be rebuilt when runtime feature flags change while
// every caller keeps holding the same client handle. Calls in flight on
// the old chain finish on it; calls after a Swap go to the new one.
type SwitchDoer struct {
	current atomic.Value // Doer
}

// NewSwitchDoer creates the indirection pointing at inner.
func NewSwitchDoer(inner Doer) *SwitchDoer {
	d := &SwitchDoer{}
	d.current.Store(&inner)
	return d
}

// Do delegates to the current chain.
func (d *SwitchDoer) Do(ctx context.Context, req *Request) (*Response, error) {
	return (*d.current.Load().(*Doer)).Do(ctx, req)
}

// Swap replaces the chain behind the handle.
func (d *SwitchDoer) Swap(inner Doer) {
	d.current.Store(&inner)
}

// Current returns the chain currently behind the handle.
func (d *SwitchDoer) Current() Doer {
	return *d.current.Load().(*Doer)
}

var _ Doer = (*SwitchDoer)(nil)
