package lambda

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// LazyService builds its inner service on the first readiness poll and
// reports not-ready until the build has finished.
type LazyService[R IntoResponse] struct {
	build func(ctx context.Context) (Service[R], error)

	initOnce sync.Once
	ready    chan struct{}
	svc      Service[R]
	err      error

	mu       sync.RWMutex
	lastUsed time.Time
}

// Lazy returns a LazyService around build
func Lazy[R IntoResponse](build func(ctx context.Context) (Service[R], error)) *LazyService[R] {
	return &LazyService[R]{
		build: build,
		ready: make(chan struct{}),
	}
}

func (l *LazyService[R]) start() {
	l.initOnce.Do(func() {
		go func() {
			defer close(l.ready)
			l.svc, l.err = l.build(context.Background())
		}()
	})
}

// PollReady starts the build if needed. A failed build still reports
// ready; the error surfaces from Call.
func (l *LazyService[R]) PollReady() (<-chan struct{}, error) {
	l.start()

	select {
	case <-l.ready:
	default:
		return l.ready, nil
	}

	if l.err != nil {
		return nil, nil
	}
	return l.svc.PollReady()
}

// Call waits for the build and delegates to the built service
func (l *LazyService[R]) Call(ctx context.Context, req *http.Request) (R, error) {
	l.start()

	var zero R
	select {
	case <-l.ready:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	if l.err != nil {
		return zero, fmt.Errorf("initialize service: %w", l.err)
	}

	l.mu.Lock()
	l.lastUsed = time.Now()
	l.mu.Unlock()

	return l.svc.Call(ctx, req)
}

// Initialized reports whether the build finished successfully
func (l *LazyService[R]) Initialized() bool {
	select {
	case <-l.ready:
		return l.err == nil
	default:
		return false
	}
}

// LastUsed returns the time of the last delegated call
func (l *LazyService[R]) LastUsed() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastUsed
}

// Close closes the built service if it implements io.Closer. It does not
// wait for a build that is still running.
func (l *LazyService[R]) Close() error {
	if !l.Initialized() {
		return nil
	}
	if c, ok := l.svc.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
