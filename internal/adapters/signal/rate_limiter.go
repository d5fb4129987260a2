package signal

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dkeye/classroom/internal/core"
)

// EventRateLimiter caps inbound events per connection: limit events per
// interval, with bursts up to limit.
type EventRateLimiter struct {
	mu       sync.Mutex
	limiters map[core.ConnID]*rate.Limiter
	every    rate.Limit
	burst    int
	now      func() time.Time
}

func NewEventRateLimiter(limit int, interval time.Duration) *EventRateLimiter {
	return &EventRateLimiter{
		limiters: make(map[core.ConnID]*rate.Limiter),
		every:    rate.Every(interval / time.Duration(limit)),
		burst:    limit,
		now:      time.Now,
	}
}

func (rl *EventRateLimiter) Allow(id core.ConnID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[id]
	if !ok {
		l = rate.NewLimiter(rl.every, rl.burst)
		rl.limiters[id] = l
	}
	return l.AllowN(rl.now(), 1)
}

// Forget drops the limiter of a closed connection.
func (rl *EventRateLimiter) Forget(id core.ConnID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.limiters, id)
}
