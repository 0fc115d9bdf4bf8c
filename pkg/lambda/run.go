package lambda

import (
	"context"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"lambda-http-adapter/internal/jsoncodec"
)

// Driver is the runtime event loop. Serve returns only when the loop ends.
type Driver interface {
	Serve(h awslambda.Handler) error
}

// DriverFunc adapts a function to Driver
type DriverFunc func(h awslambda.Handler) error

func (f DriverFunc) Serve(h awslambda.Handler) error {
	return f(h)
}

// LambdaDriver serves through the aws-lambda-go runtime. lambda.Start
// exits the process on a fatal runtime error, so in practice it never
// returns.
var LambdaDriver Driver = DriverFunc(func(h awslambda.Handler) error {
	awslambda.Start(h)
	return nil
})

// Handler implements the aws-lambda-go Handler interface on top of an
// Adapter: wait for readiness, decode, call, encode.
type Handler[R IntoResponse] struct {
	adapter *Adapter[R]
	source  EventSource
}

// NewHandler returns a Handler for a. src may be SourceAuto.
func NewHandler[R IntoResponse](a *Adapter[R], src EventSource) *Handler[R] {
	if src == "" {
		src = SourceAuto
	}
	return &Handler[R]{adapter: a, source: src}
}

// Invoke handles one raw event payload
func (h *Handler[R]) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	if err := h.awaitReady(ctx); err != nil {
		return nil, err
	}

	env, err := DecodeEvent(h.source, payload)
	if err != nil {
		return nil, err
	}

	resp, err := h.adapter.Call(ContextWithEnvelope(ctx, env), env.Request)
	if err != nil {
		return nil, err
	}

	return jsoncodec.Marshal(env.EncodeResponse(resp))
}

func (h *Handler[R]) awaitReady(ctx context.Context) error {
	for {
		wake := h.adapter.PollReady()
		if wake == nil {
			return nil
		}
		select {
		case <-wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOption configures Run
type RunOption func(*runOptions)

type runOptions struct {
	source      EventSource
	driver      Driver
	adapterOpts []AdapterOption
}

// WithEventSource pins the envelope format instead of detecting it
func WithEventSource(src EventSource) RunOption {
	return func(o *runOptions) { o.source = src }
}

// WithDriver replaces the aws-lambda-go runtime loop
func WithDriver(d Driver) RunOption {
	return func(o *runOptions) { o.driver = d }
}

// WithAdapterOptions passes options through to NewAdapter
func WithAdapterOptions(opts ...AdapterOption) RunOption {
	return func(o *runOptions) { o.adapterOpts = append(o.adapterOpts, opts...) }
}

// Run wraps svc in an Adapter and hands it to the driver. It returns the
// driver's terminal error, if any.
func Run[R IntoResponse](svc Service[R], opts ...RunOption) error {
	o := runOptions{source: SourceAuto, driver: LambdaDriver}
	for _, opt := range opts {
		opt(&o)
	}

	adapter := NewAdapter(svc, o.adapterOpts...)
	return o.driver.Serve(NewHandler(adapter, o.source))
}
