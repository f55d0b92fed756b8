package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	rl := NewMessageRateLimiter(3, time.Minute)

	assert.True(t, rl.Allow("s1"))
	assert.True(t, rl.Allow("s1"))
	assert.True(t, rl.Allow("s1"))
	assert.False(t, rl.Allow("s1"))

	// Separate connections have separate windows.
	assert.True(t, rl.Allow("s2"))
}

func TestRateLimiterWindowExpires(t *testing.T) {
	rl := NewMessageRateLimiter(1, 10*time.Millisecond)

	assert.True(t, rl.Allow("s1"))
	assert.False(t, rl.Allow("s1"))

	time.Sleep(15 * time.Millisecond)
	assert.True(t, rl.Allow("s1"))
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewMessageRateLimiter(0, time.Minute)
	for i := 0; i < 10; i++ {
		assert.True(t, rl.Allow("s1"))
	}
}

func TestRateLimiterForget(t *testing.T) {
	rl := NewMessageRateLimiter(1, time.Minute)
	assert.True(t, rl.Allow("s1"))
	assert.False(t, rl.Allow("s1"))

	rl.Forget("s1")
	assert.True(t, rl.Allow("s1"))
}
