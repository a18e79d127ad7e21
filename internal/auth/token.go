package auth

import (
	"sync"
	"time"
)

// expiryMargin is how long before actual expiry a cached token is already
// treated as stale, so it never expires mid-flight.
const expiryMargin = 2 * time.Minute

// Token is one acquired bearer token.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`

	// ExpiresAt is computed from ExpiresIn at acquisition time.
	ExpiresAt time.Time `json:"-"`
}

// Valid reports whether the token can still be used, with margin.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	return time.Now().Add(expiryMargin).Before(t.ExpiresAt)
}

// tokenStore caches tokens per scope, safe for concurrent use.
type tokenStore struct {
	mu     sync.RWMutex
	tokens map[string]*Token
}

func newTokenStore() *tokenStore {
	return &tokenStore{tokens: make(map[string]*Token)}
}

func (s *tokenStore) get(scope string) *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tokens[scope]
}

func (s *tokenStore) set(scope string, token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[scope] = token
}

func (s *tokenStore) drop(scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, scope)
}
