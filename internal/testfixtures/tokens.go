package testfixtures

import (
	"fmt"
	"sync"
)

// TokenSequence hands out predictable session ids and tokens
// ("token-1", "token-2", ...) in place of random ones.
type TokenSequence struct {
	mu     sync.Mutex
	prefix string
	n      uint64
}

// NewTokenSequence returns a sequence using prefix, or "token" when empty.
func NewTokenSequence(prefix string) *TokenSequence {
	if prefix == "" {
		prefix = "token"
	}
	return &TokenSequence{prefix: prefix}
}

// Next returns the next value.
func (s *TokenSequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n)
}

// NextFunc returns Next for injection.
func (s *TokenSequence) NextFunc() func() string {
	if s == nil {
		return func() string { return "" }
	}
	return s.Next
}

// Issued reports how many values were handed out.
func (s *TokenSequence) Issued() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}
