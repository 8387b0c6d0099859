package resilience

import (
	"context"
	"errors"

	"golang.org/x/time/rate"
)

var ErrQuotaExceeded = errors.New("request quota exceeded")

// Limiter is a token bucket guarding an upstream request quota.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter allows r events per second with bursts of up to burst.
// A burst below 1 is raised to 1.
func NewLimiter(r rate.Limit, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{lim: rate.NewLimiter(r, burst)}
}

// PerSecond is shorthand for NewLimiter(rate.Limit(rps), burst). A non-positive
// rps returns nil, which callers treat as unlimited.
func PerSecond(rps float64, burst int) *Limiter {
	if rps <= 0 {
		return nil
	}
	return NewLimiter(rate.Limit(rps), burst)
}

// Wait blocks until a token is available or ctx is done. It fails fast
// with ErrQuotaExceeded when the wait would outlast ctx's deadline.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.lim.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Join(ErrQuotaExceeded, err)
	}
	return nil
}
