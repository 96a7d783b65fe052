package throttle

import (
	"context"
	"fmt"
	"time"
)

// Limiter applies fixed-window rates per scope and identity.
type Limiter struct {
	store Store
	rates map[string]Rate
	now   func() time.Time
}

func NewLimiter(store Store, rates map[string]Rate) *Limiter {
	return &Limiter{store: store, rates: rates, now: time.Now}
}

// Allow counts one request for ident under scope. Scopes without a rate are unlimited.
// When the request is refused, wait is the time until the window resets.
func (l *Limiter) Allow(ctx context.Context, scope, ident string) (allowed bool, wait time.Duration, err error) {
	rate, ok := l.rates[scope]
	if !ok {
		return true, 0, nil
	}

	now := l.now()
	window := now.UnixNano() / int64(rate.Period)
	reset := time.Unix(0, (window+1)*int64(rate.Period))
	key := fmt.Sprintf("%s:%s:%d", scope, ident, window)

	count, err := l.store.Incr(ctx, key, rate.Period)
	if err != nil {
		return false, 0, err
	}
	if count > int64(rate.Limit) {
		return false, reset.Sub(now), nil
	}
	return true, 0, nil
}

// Has reports whether scope is rate limited
func (l *Limiter) Has(scope string) bool {
	_, ok := l.rates[scope]
	return ok
}
