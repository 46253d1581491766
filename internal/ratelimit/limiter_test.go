package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedLimiter_BurstThenDeny(t *testing.T) {
	kl := NewKeyedLimiter(0.001, 2)

	assert.True(t, kl.Allow("tenant-1"))
	assert.True(t, kl.Allow("tenant-1"))
	assert.False(t, kl.Allow("tenant-1"))
}

func TestKeyedLimiter_KeysAreIndependent(t *testing.T) {
	kl := NewKeyedLimiter(0.001, 1)

	assert.True(t, kl.Allow("tenant-1"))
	assert.False(t, kl.Allow("tenant-1"))

	// Different key should have its own bucket.
	assert.True(t, kl.Allow("tenant-2"))
}

func TestKeyedLimiter_Refill(t *testing.T) {
	kl := NewKeyedLimiter(1, 1)
	now := time.Now()
	kl.now = func() time.Time { return now }

	assert.True(t, kl.Allow("k"))
	assert.False(t, kl.Allow("k"))

	// Advance time past one token interval.
	kl.now = func() time.Time { return now.Add(1100 * time.Millisecond) }
	assert.True(t, kl.Allow("k"))
}

func TestKeyedLimiter_Sweep(t *testing.T) {
	kl := NewKeyedLimiter(10, 10)
	now := time.Now()
	kl.now = func() time.Time { return now }
	kl.Allow("old")

	kl.now = func() time.Time { return now.Add(time.Hour) }
	kl.Allow("fresh")

	assert.Equal(t, 1, kl.Sweep(30*time.Minute))
	assert.Equal(t, 1, kl.Len())
}

func TestKeyedLimiter_ZeroBurstRaised(t *testing.T) {
	kl := NewKeyedLimiter(0.001, 0)
	assert.True(t, kl.Allow("k"))
}
