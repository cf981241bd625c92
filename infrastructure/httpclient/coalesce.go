package httpclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CoalesceConfig controls the read-coalescing dispatcher.
type CoalesceConfig struct {
	// Window is how long the dispatcher holds a GET before firing it.
	// Further GETs to the same URL arriving inside the window supersede
	// the held one; only the last descriptor scheduled actually fires.
	Window time.Duration
}

// DefaultCoalesceConfig matches the product policy: 300 ms.
func DefaultCoalesceConfig() CoalesceConfig {
	return CoalesceConfig{Window: 300 * time.Millisecond}
}

// pendingDispatch is one open coalescing window for a URL. All callers
// that arrived during the window block on done and share the result of
// the single trailing dispatch. gen is assigned when the window opens and
// never changes, even when a later caller supersedes the held descriptor.
type pendingDispatch struct {
	req  *Request
	ctx  context.Context
	gen  uint64
	done chan struct{}
	resp *Response
	err  error
}

// CoalesceDoer collapses rapid repeated GETs to the same URL into a single
// dispatch on the trailing edge of a fixed window. The window opens with
// the first call and is not extended by later ones. Superseded callers do
// not fail: they resolve with the trailing call's result. Non-GET methods
// bypass coalescing entirely and dispatch immediately.
//
// A singleflight group additionally dedupes a dispatch that fires while an
// identical GET (for example a retry re-entering this dispatcher) is
// already on the wire.
type CoalesceDoer struct {
	inner  Doer
	config CoalesceConfig

	mu      sync.Mutex
	pending map[string]*pendingDispatch
	nextGen uint64
	group   singleflight.Group
}

// NewCoalesceDoer creates the coalescing dispatcher.
func NewCoalesceDoer(inner Doer, config CoalesceConfig) *CoalesceDoer {
	if config.Window <= 0 {
		config.Window = DefaultCoalesceConfig().Window
	}
	return &CoalesceDoer{
		inner:   inner,
		config:  config,
		pending: make(map[string]*pendingDispatch),
	}
}

// Do schedules reads through the coalescing window and passes everything
// else straight through.
func (d *CoalesceDoer) Do(ctx context.Context, req *Request) (*Response, error) {
	if !req.IsRead() {
		return d.inner.Do(ctx, req)
	}

	d.mu.Lock()
	p, open := d.pending[req.URL]
	if open {
		// Supersede: the latest descriptor scheduled in the window is
		// the one that fires.
		p.req = req
		p.ctx = ctx
	} else {
		d.nextGen++
		p = &pendingDispatch{
			req:  req,
			ctx:  ctx,
			gen:  d.nextGen,
			done: make(chan struct{}),
		}
		d.pending[req.URL] = p
		time.AfterFunc(d.config.Window, func() { d.fire(req.URL) })
	}
	d.mu.Unlock()

	select {
	case <-p.done:
		return p.resp, p.err
	case <-ctx.Done():
		// The caller gave up; the dispatch itself continues for the
		// other waiters.
		return nil, ctx.Err()
	}
}

// fire closes the window for url and dispatches the surviving descriptor.
func (d *CoalesceDoer) fire(url string) {
	d.mu.Lock()
	p, ok := d.pending[url]
	if !ok {
		d.mu.Unlock()
		return
	}
	delete(d.pending, url)
	d.mu.Unlock()

	// The singleflight key is the window's own generation, fixed when the
	// window opened. A retry re-entering this dispatcher opens a new
	// window with a new generation, so it can never wait on the in-flight
	// ancestor that spawned it. Keying on anything from the descriptor
	// would break here: a fresh caller superseding a retried one rewrites
	// p.req mid-window.
	key := fmt.Sprintf("%s#%d", url, p.gen)
	result, err, _ := d.group.Do(key, func() (interface{}, error) {
		return d.inner.Do(p.ctx, p.req)
	})
	if resp, ok := result.(*Response); ok {
		p.resp = resp
	}
	p.err = err
	close(p.done)
}

var _ Doer = (*CoalesceDoer)(nil)
