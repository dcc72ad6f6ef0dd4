// Package ratelimit implements the per-client token-bucket rate
// limiter used by the basic authorizer, plus the lazily-materialized
// per-client bucket registry that backs it.
package ratelimit

import (
	"sync"
	"time"
)

// Bucket is a classic token bucket: size, refill amount, refill
// interval, current tokens, and the wall-clock time tokens were last
// recomputed.
//
// Both TryConsume and CanConsume recompute and persist the refill
// state before testing the token count — CanConsume is non-destructive
// only with respect to the requested n tokens, not with respect to the
// bucket's refill bookkeeping. This mirrors the Python original, where
// calculate_new_tokens() mutates the bucket as a side effect of both
// get_tokens() and can_consume().
type Bucket struct {
	mu               sync.Mutex
	size             int64
	refillAmount     int64
	refillIntervalMs int64
	tokens           int64
	lastRefillMs     int64
}

// NewBucket creates a bucket starting full (tokens = size).
func NewBucket(size, refillAmount, refillIntervalMs int64) *Bucket {
	return &Bucket{
		size:             size,
		refillAmount:     refillAmount,
		refillIntervalMs: refillIntervalMs,
		tokens:           size,
		lastRefillMs:     nowMs(),
	}
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

// refillLocked recomputes tokens based on elapsed time and clamps to
// [0, size]. Must be called with mu held.
func (b *Bucket) refillLocked(now int64) {
	elapsed := now - b.lastRefillMs
	if elapsed > 0 && b.refillIntervalMs > 0 {
		periods := elapsed / b.refillIntervalMs
		newTokens := periods * b.refillAmount
		b.tokens += newTokens
	}
	if b.tokens > b.size {
		b.tokens = b.size
	}
	if b.tokens < 0 {
		b.tokens = 0
	}
	b.lastRefillMs = now
}

// TryConsume refills the bucket, then atomically tests tokens >= n and
// subtracts n if so. Returns whether the consumption succeeded.
func (b *Bucket) TryConsume(n int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked(nowMs())

	if b.tokens >= n {
		b.tokens -= n
		return true
	}
	return false
}

// CanConsume refills the bucket and reports whether n tokens are
// available, without subtracting them. The refill side effect is
// applied regardless of the outcome — see the type doc comment.
func (b *Bucket) CanConsume(n int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked(nowMs())

	return b.tokens >= n
}

// Tokens returns the current token count after applying any pending
// refill. Intended for tests and diagnostics.
func (b *Bucket) Tokens() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked(nowMs())
	return b.tokens
}

// Registry lazily materializes one Bucket per client id. Buckets may
// be discarded at any time (e.g. by Delete) without affecting
// correctness — only a client's burst budget is reset.
type Registry struct {
	mu      sync.RWMutex
	buckets map[string]*Bucket
}

// NewRegistry returns an empty bucket registry.
func NewRegistry() *Registry {
	return &Registry{buckets: make(map[string]*Bucket)}
}

// GetOrCreate returns the existing bucket for clientID, or creates one
// with the given parameters (size, refillAmount, refillIntervalMs) on
// first sight.
func (r *Registry) GetOrCreate(clientID string, size, refillAmount, refillIntervalMs int64) *Bucket {
	r.mu.RLock()
	b, ok := r.buckets[clientID]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.buckets[clientID]; ok {
		return b
	}

	b = NewBucket(size, refillAmount, refillIntervalMs)
	r.buckets[clientID] = b
	return b
}

// Delete discards the bucket for clientID, if any. A subsequent
// GetOrCreate rebuilds it from scratch, which only resets that
// client's burst budget.
func (r *Registry) Delete(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buckets, clientID)
}
