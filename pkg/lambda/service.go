package lambda

import (
	"context"
	"net/http"
)

// Service is the capability the adapter wraps: given a request it
// eventually produces a response or fails.
type Service[R IntoResponse] interface {
	// PollReady is a non-blocking readiness probe. A nil channel means the
	// service is ready. A non-nil channel means it is not, and the channel
	// is closed once the caller should poll again. Services in this package
	// never return an error here.
	PollReady() (<-chan struct{}, error)
	Call(ctx context.Context, req *http.Request) (R, error)
}

// InfallibleService is a service whose calls cannot fail
type InfallibleService[R IntoResponse] interface {
	PollReady() <-chan struct{}
	Call(ctx context.Context, req *http.Request) R
}

type infallible[R IntoResponse] struct {
	svc InfallibleService[R]
}

// Infallible lifts s into a Service whose error results are always nil
func Infallible[R IntoResponse](s InfallibleService[R]) Service[R] {
	return infallible[R]{svc: s}
}

func (i infallible[R]) PollReady() (<-chan struct{}, error) {
	return i.svc.PollReady(), nil
}

func (i infallible[R]) Call(ctx context.Context, req *http.Request) (R, error) {
	return i.svc.Call(ctx, req), nil
}

// ServiceFunc is a Service that is always ready
type ServiceFunc[R IntoResponse] func(ctx context.Context, req *http.Request) (R, error)

func (f ServiceFunc[R]) PollReady() (<-chan struct{}, error) {
	return nil, nil
}

func (f ServiceFunc[R]) Call(ctx context.Context, req *http.Request) (R, error) {
	return f(ctx, req)
}
