package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dkeye/WatchParty/internal/domain"
)

func TestRoomRateLimiter_SlidingWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRoomRateLimiter(2, 10*time.Second)
	rl.now = func() time.Time { return now }

	a := domain.ConnID("a")
	assert.True(t, rl.Allow(a))
	assert.True(t, rl.Allow(a))
	assert.False(t, rl.Allow(a))
	assert.True(t, rl.Allow("b"), "limits are per connection")

	now = now.Add(11 * time.Second)
	assert.True(t, rl.Allow(a))
}

func TestRoomRateLimiter_Forget(t *testing.T) {
	rl := NewRoomRateLimiter(1, time.Hour)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	rl.Forget("a")
	assert.True(t, rl.Allow("a"))
}
