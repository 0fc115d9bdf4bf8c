package lambda

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type rateLimited[R IntoResponse] struct {
	svc     Service[R]
	limiter *rate.Limiter

	mu       sync.Mutex
	reserved bool
}

// RateLimit holds back readiness until limiter grants a token. A ready
// result keeps the token for the next Call.
func RateLimit[R IntoResponse](svc Service[R], limiter *rate.Limiter) Service[R] {
	return &rateLimited[R]{svc: svc, limiter: limiter}
}

func (r *rateLimited[R]) PollReady() (<-chan struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.reserved {
		now := time.Now()
		res := r.limiter.ReserveN(now, 1)
		if !res.OK() {
			return nil, errors.New("rate limiter burst is zero")
		}
		if d := res.DelayFrom(now); d > 0 {
			res.CancelAt(now)
			wake := make(chan struct{})
			time.AfterFunc(d, func() { close(wake) })
			return wake, nil
		}
		r.reserved = true
	}

	return r.svc.PollReady()
}

func (r *rateLimited[R]) Call(ctx context.Context, req *http.Request) (R, error) {
	r.mu.Lock()
	r.reserved = false
	r.mu.Unlock()

	return r.svc.Call(ctx, req)
}
