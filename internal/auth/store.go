package auth

import (
	"sync"
	"time"
)

// TokenStore keeps issued admin tokens by hash. Tokens do not survive a restart.
type TokenStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

// NewTokenStore creates an empty token store
func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]time.Time)}
}

// Insert records a token
func (s *TokenStore) Insert(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[string(token.Hash)] = token.Expiry
}

// Valid reports whether plaintext names an unexpired token at now
func (s *TokenStore) Valid(plaintext string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := string(hashToken(plaintext))
	expiry, ok := s.tokens[key]
	if !ok {
		return false
	}
	if !now.Before(expiry) {
		delete(s.tokens, key)
		return false
	}
	return true
}

// Delete revokes one token
func (s *TokenStore) Delete(plaintext string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, string(hashToken(plaintext)))
}

// DeleteExpired drops every token expired at now and returns how many were removed
func (s *TokenStore) DeleteExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, expiry := range s.tokens {
		if !now.Before(expiry) {
			delete(s.tokens, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored tokens
func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}
