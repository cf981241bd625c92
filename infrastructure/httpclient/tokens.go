package httpclient

import (
	"context"
	"os"
	"strings"
	"sync"
)

// TokenStore holds a single bearer token. Two tiers exist: one meant to
// persist across sessions and one scoped to the current session. Absence
// of a token is not an error; requests simply go out unauthenticated.
type TokenStore interface {
	Token() (string, bool)
	SetToken(token string)
	Clear()
}

// MemoryTokenStore is the session-scoped tier.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryTokenStore creates an empty in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Token returns the stored token, if any.
func (s *MemoryTokenStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// SetToken stores a token.
func (s *MemoryTokenStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Clear removes the token.
func (s *MemoryTokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

// FileTokenStore is the persistent tier: a single token string in a file.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore creates a token store backed by the file at path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Token reads the token file. A missing or empty file means no token.
func (s *FileTokenStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(data))
	return token, token != ""
}

// SetToken writes the token file, creating it if needed.
func (s *FileTokenStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = os.WriteFile(s.path, []byte(token+"\n"), 0o600)
}

// Clear removes the token file.
func (s *FileTokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = os.Remove(s.path)
}

// TieredTokenStore resolves a token from the persistent tier first, then
// the session tier. Writes always target the session tier.
type TieredTokenStore struct {
	Persistent TokenStore
	Session    TokenStore
}

// NewTieredTokenStore combines the two tiers.
func NewTieredTokenStore(persistent, session TokenStore) *TieredTokenStore {
	return &TieredTokenStore{Persistent: persistent, Session: session}
}

// Token checks the persistent tier before the session tier.
func (s *TieredTokenStore) Token() (string, bool) {
	if s.Persistent != nil {
		if token, ok := s.Persistent.Token(); ok {
			return token, true
		}
	}
	if s.Session != nil {
		return s.Session.Token()
	}
	return "", false
}

// SetToken stores in the session tier.
func (s *TieredTokenStore) SetToken(token string) {
	if s.Session != nil {
		s.Session.SetToken(token)
	}
}

// Clear clears both tiers.
func (s *TieredTokenStore) Clear() {
	if s.Persistent != nil {
		s.Persistent.Clear()
	}
	if s.Session != nil {
		s.Session.Clear()
	}
}

// AuthDoer injects the bearer token, when one exists, right before
// dispatch. It sits closest to the transport so every retry attempt picks
// up the current token.
type AuthDoer struct {
	inner  Doer
	tokens TokenStore
}

// NewAuthDoer creates the auth injection decorator.
func NewAuthDoer(inner Doer, tokens TokenStore) *AuthDoer {
	return &AuthDoer{inner: inner, tokens: tokens}
}

// Do attaches Authorization: Bearer <token> when a token is available.
func (d *AuthDoer) Do(ctx context.Context, req *Request) (*Response, error) {
	if d.tokens != nil {
		if token, ok := d.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return d.inner.Do(ctx, req)
}

var _ Doer = (*AuthDoer)(nil)
