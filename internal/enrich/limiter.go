package enrich

import (
	"context"
	"sync"
	"time"
)

// limiter keeps the client polite toward the external catalog: at most
// maxInFlight concurrent requests, with a minimum delay between request
// starts. A single slow candidate cannot starve unrelated queries because
// acquire respects context cancellation.
type limiter struct {
	slots chan struct{}

	mu       sync.Mutex
	minDelay time.Duration
	lastReq  time.Time
}

func newLimiter(maxInFlight int, minDelay time.Duration) *limiter {
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	return &limiter{
		slots:    make(chan struct{}, maxInFlight),
		minDelay: minDelay,
	}
}

func (l *limiter) acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	l.mu.Lock()
	wait := l.minDelay - time.Since(l.lastReq)
	l.lastReq = time.Now().Add(wait)
	l.mu.Unlock()

	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			<-l.slots
			return ctx.Err()
		}
	}
	return nil
}

func (l *limiter) release() {
	<-l.slots
}
