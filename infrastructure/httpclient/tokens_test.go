package httpclient

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthDoer_AttachesBearerTokenWhenPresent(t *testing.T) {
	inner := &stubDoer{}
	session := NewMemoryTokenStore()
	session.SetToken("session-token")
	doer := NewAuthDoer(inner, NewTieredTokenStore(NewMemoryTokenStore(), session))

	_, err := doer.Do(context.Background(), NewRequest(http.MethodGet, "https://api.test/news"))

	require.NoError(t, err)
	assert.Equal(t, "Bearer session-token", inner.calls[0].Header.Get("Authorization"))
}

func TestAuthDoer_PersistentTierWinsOverSession(t *testing.T) {
	inner := &stubDoer{}
	persistent := NewMemoryTokenStore()
	persistent.SetToken("persistent-token")
	session := NewMemoryTokenStore()
	session.SetToken("session-token")
	doer := NewAuthDoer(inner, NewTieredTokenStore(persistent, session))

	_, err := doer.Do(context.Background(), NewRequest(http.MethodGet, "https://api.test/news"))

	require.NoError(t, err)
	assert.Equal(t, "Bearer persistent-token", inner.calls[0].Header.Get("Authorization"))
}

func TestAuthDoer_MissingTokenIsNotAnError(t *testing.T) {
	inner := &stubDoer{}
	doer := NewAuthDoer(inner, NewTieredTokenStore(NewMemoryTokenStore(), NewMemoryTokenStore()))

	_, err := doer.Do(context.Background(), NewRequest(http.MethodGet, "https://api.test/news"))

	require.NoError(t, err)
	assert.Empty(t, inner.calls[0].Header.Get("Authorization"))
}

func TestFileTokenStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	store := NewFileTokenStore(path)

	_, ok := store.Token()
	assert.False(t, ok)

	store.SetToken("abc123")
	token, ok := store.Token()
	require.True(t, ok)
	assert.Equal(t, "abc123", token)

	store.Clear()
	_, ok = store.Token()
	assert.False(t, ok)
}
