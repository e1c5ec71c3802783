package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/wordduel/internal/dependencies/random"
)

// MockRandom hands out queued tokens, then deterministic fallbacks
type MockRandom struct {
	mu     sync.Mutex
	tokens []string
	issued int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a MockRandom with the given tokens queued
func NewMockRandom(tokens ...string) *MockRandom {
	return &MockRandom{tokens: tokens}
}

// Token returns the next queued token. Once the queue is empty it returns
// "P00001", "P00002", ... truncated or padded to length.
func (r *MockRandom) Token(length int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.tokens) > 0 {
		t := r.tokens[0]
		r.tokens = r.tokens[1:]
		return t
	}
	r.issued++
	t := fmt.Sprintf("P%0*d", max(length-1, 1), r.issued)
	if len(t) > length && length > 0 {
		t = t[len(t)-length:]
	}
	return t
}

// Queue appends tokens to be returned by Token
func (r *MockRandom) Queue(tokens ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, tokens...)
}
