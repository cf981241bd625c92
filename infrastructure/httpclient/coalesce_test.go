package httpclient

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "manara-client/pkg/errors"
)

// stubDoer records every dispatch and answers with a scripted function.
type stubDoer struct {
	mu    sync.Mutex
	calls []*Request
	fn    func(req *Request) (*Response, error)
}

func (s *stubDoer) Do(ctx context.Context, req *Request) (*Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	if s.fn != nil {
		return s.fn(req)
	}
	return &Response{Status: 200, Body: []byte(`{}`)}, nil
}

func (s *stubDoer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func TestCoalesceDoer_CollapsesRepeatedReads(t *testing.T) {
	// Arrange
	inner := &stubDoer{fn: func(req *Request) (*Response, error) {
		return &Response{Status: 200, Body: []byte(`{"ok":true}`)}, nil
	}}
	doer := NewCoalesceDoer(inner, CoalesceConfig{Window: 30 * time.Millisecond})
	ctx := context.Background()

	// Act: three reads of the same URL inside one window
	var wg sync.WaitGroup
	responses := make([]*Response, 3)
	errs := make([]error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i], errs[i] = doer.Do(ctx, NewRequest(http.MethodGet, "https://api.test/news"))
		}(i)
	}
	wg.Wait()

	// Assert: exactly one dispatch, every caller resolved with its result
	assert.Equal(t, 1, inner.callCount())
	for i := 0; i < 3; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, []byte(`{"ok":true}`), responses[i].Body)
	}
}

func TestCoalesceDoer_LastScheduledDescriptorFires(t *testing.T) {
	inner := &stubDoer{}
	doer := NewCoalesceDoer(inner, CoalesceConfig{Window: 40 * time.Millisecond})
	ctx := context.Background()

	first := NewRequest(http.MethodGet, "https://api.test/news")
	first.Header.Set("X-Marker", "first")
	second := NewRequest(http.MethodGet, "https://api.test/news")
	second.Header.Set("X-Marker", "second")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = doer.Do(ctx, first)
	}()
	time.Sleep(10 * time.Millisecond)
	go func() {
		defer wg.Done()
		_, _ = doer.Do(ctx, second)
	}()
	wg.Wait()

	require.Equal(t, 1, inner.callCount())
	assert.Equal(t, "second", inner.calls[0].Header.Get("X-Marker"))
}

func TestCoalesceDoer_DifferentURLsDispatchIndependently(t *testing.T) {
	inner := &stubDoer{}
	doer := NewCoalesceDoer(inner, CoalesceConfig{Window: 20 * time.Millisecond})
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, url := range []string{"https://api.test/news", "https://api.test/sections"} {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			_, _ = doer.Do(ctx, NewRequest(http.MethodGet, url))
		}(url)
	}
	wg.Wait()

	assert.Equal(t, 2, inner.callCount())
}

func TestCoalesceDoer_WritesBypassTheWindow(t *testing.T) {
	inner := &stubDoer{}
	doer := NewCoalesceDoer(inner, CoalesceConfig{Window: 250 * time.Millisecond})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := doer.Do(ctx, NewRequest(http.MethodPost, "https://api.test/news"))
		require.NoError(t, err)
	}

	// Three immediate dispatches, no window delay
	assert.Equal(t, 3, inner.callCount())
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestCoalesceDoer_FreshReadDuringRetryRedispatchResolvesEveryCaller(t *testing.T) {
	// Arrange: the dispatcher and the retry decorator wired the way the
	// chain wires them, with retried reads re-entering the dispatcher.
	// The first attempt fails, so the retry holds a fresh window open
	// while its original flight is still unresolved.
	var attempts int32
	inner := &stubDoer{fn: func(req *Request) (*Response, error) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return nil, apperrors.NewTransport(errors.New("connection reset"))
		}
		return &Response{Status: 200, Body: []byte(`{"ok":true}`)}, nil
	}}
	retry := NewRetryDoer(inner, RetryConfig{
		MaxRetries: 2,
		BaseDelay:  5 * time.Millisecond,
		MaxDelay:   20 * time.Millisecond,
	}, zap.NewNop())
	doer := NewCoalesceDoer(retry, CoalesceConfig{Window: 40 * time.Millisecond})
	retry.SetRedispatch(doer)
	ctx := context.Background()

	results := make(chan error, 2)
	go func() {
		_, err := doer.Do(ctx, NewRequest(http.MethodGet, "https://api.test/news"))
		results <- err
	}()

	// Wait for the first attempt to fail, then land a second caller
	// inside the redispatch window so it supersedes the retried
	// descriptor.
	require.Eventually(t, func() bool { return atomic.LoadInt32(&attempts) == 1 },
		time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	go func() {
		_, err := doer.Do(ctx, NewRequest(http.MethodGet, "https://api.test/news"))
		results <- err
	}()

	// Assert: both callers resolve; the retry fired exactly one more
	// transport attempt.
	for i := 0; i < 2; i++ {
		select {
		case err := <-results:
			require.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Fatal("caller never resolved")
		}
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestCoalesceDoer_CanceledWaiterDoesNotKillTheDispatch(t *testing.T) {
	inner := &stubDoer{}
	doer := NewCoalesceDoer(inner, CoalesceConfig{Window: 30 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := doer.Do(ctx, NewRequest(http.MethodGet, "https://api.test/news"))
		done <- err
	}()
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)

	// The window still fires for whoever else might be waiting.
	assert.Eventually(t, func() bool { return inner.callCount() == 1 },
		500*time.Millisecond, 10*time.Millisecond)
}
