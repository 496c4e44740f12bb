package services

import (
	"sync"
	"time"
)

// Fallback limits used when the settings table has no (or unparsable) values.
const (
	DefaultCommentRateLimit  = 5
	DefaultCommentRateWindow = 60 * time.Second
)

// CommentLimiter is a sliding-window rate limiter keyed by client IP. The
// window always looks back a fixed duration from the current instant, so
// enforcement is exact rather than bucket-aligned.
//
// State is process-local and in-memory, and IP keys with no recent activity
// are never evicted. Under multiple instances enforcement is therefore
// approximate; externalizing the state to a shared store is the accepted
// path if that ever matters.
type CommentLimiter struct {
	mu   sync.Mutex
	hits map[string][]time.Time
	now  func() time.Time
}

// NewCommentLimiter creates an empty limiter.
func NewCommentLimiter() *CommentLimiter {
	return &CommentLimiter{hits: make(map[string][]time.Time), now: time.Now}
}

// Allow reports whether clientIP may post another comment given at most limit
// comments per window. An accepted call records its own timestamp; a rejected
// call changes nothing.
func (l *CommentLimiter) Allow(clientIP string, limit int, window time.Duration) bool {
	if limit <= 0 || window <= 0 {
		return true
	}
	now := l.now()
	cutoff := now.Add(-window)

	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.hits[clientIP]
	kept := prev[:0]
	for _, t := range prev {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= limit {
		l.hits[clientIP] = kept
		return false
	}
	l.hits[clientIP] = append(kept, now)
	return true
}
