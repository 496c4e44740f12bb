package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newFakeClockLimiter(start time.Time) (*CommentLimiter, *time.Time) {
	current := start
	l := NewCommentLimiter()
	l.now = func() time.Time { return current }
	return l, &current
}

func TestAllowUpToLimit(t *testing.T) {
	l, _ := newFakeClockLimiter(time.Now())

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("10.0.0.1", 5, time.Minute), "comment %d should pass", i+1)
	}
	assert.False(t, l.Allow("10.0.0.1", 5, time.Minute), "sixth comment inside the window must be rejected")
}

func TestWindowSlides(t *testing.T) {
	base := time.Now()
	l, clock := newFakeClockLimiter(base)

	assert.True(t, l.Allow("10.0.0.1", 2, 10*time.Second))
	*clock = base.Add(1 * time.Second)
	assert.True(t, l.Allow("10.0.0.1", 2, 10*time.Second))
	*clock = base.Add(2 * time.Second)
	assert.False(t, l.Allow("10.0.0.1", 2, 10*time.Second))

	// Once the first hit leaves the window, capacity returns.
	*clock = base.Add(11 * time.Second)
	assert.True(t, l.Allow("10.0.0.1", 2, 10*time.Second))
}

func TestRejectedCallConsumesNothing(t *testing.T) {
	base := time.Now()
	l, clock := newFakeClockLimiter(base)

	assert.True(t, l.Allow("10.0.0.1", 1, 10*time.Second))
	for i := 1; i <= 5; i++ {
		*clock = base.Add(time.Duration(i) * time.Second)
		assert.False(t, l.Allow("10.0.0.1", 1, 10*time.Second))
	}

	// Rejections above recorded nothing, so the window empties as soon as the
	// single accepted hit ages out.
	*clock = base.Add(11 * time.Second)
	assert.True(t, l.Allow("10.0.0.1", 1, 10*time.Second))
}

func TestIPsAreIndependent(t *testing.T) {
	l, _ := newFakeClockLimiter(time.Now())

	assert.True(t, l.Allow("10.0.0.1", 1, time.Minute))
	assert.False(t, l.Allow("10.0.0.1", 1, time.Minute))
	assert.True(t, l.Allow("10.0.0.2", 1, time.Minute))
}

func TestNonPositiveLimitsDisableChecking(t *testing.T) {
	l, _ := newFakeClockLimiter(time.Now())

	for i := 0; i < 20; i++ {
		assert.True(t, l.Allow("10.0.0.1", 0, time.Minute))
		assert.True(t, l.Allow("10.0.0.1", 5, 0))
	}
}
