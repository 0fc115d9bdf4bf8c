package lambda

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/sirupsen/logrus"
)

// FaultPolicy decides what the adapter does when the wrapped service
// returns an error from Call.
type FaultPolicy int

const (
	// FaultAbort panics with a *HandlerFault. The runtime reports the
	// invocation as failed.
	FaultAbort FaultPolicy = iota
	// FaultRespond logs the error and returns a 500 outbound event
	FaultRespond
)

func (p FaultPolicy) String() string {
	switch p {
	case FaultAbort:
		return "abort"
	case FaultRespond:
		return "respond"
	default:
		return fmt.Sprintf("FaultPolicy(%d)", int(p))
	}
}

// ParseFaultPolicy parses "abort" or "respond"
func ParseFaultPolicy(s string) (FaultPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "abort":
		return FaultAbort, nil
	case "respond":
		return FaultRespond, nil
	default:
		return FaultAbort, fmt.Errorf("unknown fault policy %q", s)
	}
}

// AdapterOption configures an Adapter
type AdapterOption func(*adapterOptions)

type adapterOptions struct {
	policy  FaultPolicy
	logger  logrus.FieldLogger
	metrics *Metrics
}

// WithFaultPolicy sets the policy applied to handler errors
func WithFaultPolicy(p FaultPolicy) AdapterOption {
	return func(o *adapterOptions) { o.policy = p }
}

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(l logrus.FieldLogger) AdapterOption {
	return func(o *adapterOptions) { o.logger = l }
}

// WithMetrics records invocation outcomes into m
func WithMetrics(m *Metrics) AdapterOption {
	return func(o *adapterOptions) { o.metrics = m }
}

// Adapter turns a Service into something the Lambda runtime can invoke.
// It holds no per-invocation state; every Call owns its own buffers.
type Adapter[R IntoResponse] struct {
	svc     Service[R]
	policy  FaultPolicy
	logger  logrus.FieldLogger
	metrics *Metrics
}

// NewAdapter wraps svc
func NewAdapter[R IntoResponse](svc Service[R], opts ...AdapterOption) *Adapter[R] {
	o := adapterOptions{policy: FaultAbort}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logrus.StandardLogger()
	}
	return &Adapter[R]{
		svc:     svc,
		policy:  o.policy,
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// PollReady reports the wrapped service's readiness unchanged: nil when
// ready, otherwise a channel that is closed when it is worth polling again.
// A readiness error from the service panics with *ReadinessFault.
func (a *Adapter[R]) PollReady() <-chan struct{} {
	wake, err := a.svc.PollReady()
	if err != nil {
		panic(&ReadinessFault{Err: err})
	}
	return wake
}

// Call translates event into an *http.Request, invokes the service, drains
// the response body and returns the buffered outbound event. The only
// error returned is a *DrainError.
func (a *Adapter[R]) Call(ctx context.Context, event *Request) (*Response, error) {
	start := time.Now()
	req := newHTTPRequest(ctx, event)

	result, err := a.svc.Call(ctx, req)
	if err != nil {
		return a.fault(ctx, req, start, err), nil
	}

	if any(result) == nil {
		return a.fault(ctx, req, start, errors.New("handler returned a nil response")), nil
	}
	streamed := result.IntoResponse()
	if streamed == nil {
		return a.fault(ctx, req, start, errors.New("handler returned a nil response")), nil
	}

	body, err := drain(ctx, streamed.Body)
	if err != nil {
		a.logFields(ctx, req).WithError(err).Error("Response body drain failed")
		a.metrics.observe(outcomeDrainError, time.Since(start), 0)
		return nil, err
	}

	header := streamed.Header
	if header == nil {
		header = make(http.Header)
	}
	resp := &Response{
		ResponseParts: ResponseParts{StatusCode: streamed.StatusCode, Header: header},
		Body:          body,
	}

	latency := time.Since(start)
	a.metrics.observe(outcomeOK, latency, len(body))
	a.logFields(ctx, req).WithFields(logrus.Fields{
		"status_code":   resp.StatusCode,
		"response_size": len(body),
		"latency_ms":    float64(latency.Nanoseconds()) / 1000000,
	}).Debug("Invocation completed")

	return resp, nil
}

func (a *Adapter[R]) fault(ctx context.Context, req *http.Request, start time.Time, err error) *Response {
	a.metrics.observe(outcomeHandlerFault, time.Since(start), 0)
	a.logFields(ctx, req).WithError(err).WithField("fault_policy", a.policy.String()).Error("Handler fault")
	if a.policy != FaultRespond {
		panic(&HandlerFault{Err: err})
	}

	body := []byte(http.StatusText(http.StatusInternalServerError))
	header := make(http.Header)
	header.Set("Content-Type", "text/plain; charset=utf-8")
	return &Response{
		ResponseParts: ResponseParts{StatusCode: http.StatusInternalServerError, Header: header},
		Body:          body,
	}
}

func (a *Adapter[R]) logFields(ctx context.Context, req *http.Request) logrus.FieldLogger {
	fields := logrus.Fields{
		"method": req.Method,
		"path":   req.URL.Path,
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		fields["aws_request_id"] = lc.AwsRequestID
	}
	return a.logger.WithFields(fields)
}

// newHTTPRequest builds the request handed to the service. The header map
// is shared with the event, not copied.
func newHTTPRequest(ctx context.Context, event *Request) *http.Request {
	payload := BodyBytes(event.Body)

	method := event.Method
	if method == "" {
		method = http.MethodGet
	}
	u := event.URL
	if u == nil {
		u = &url.URL{Path: "/"}
	}
	proto := event.Proto
	major, minor, ok := http.ParseHTTPVersion(proto)
	if !ok {
		proto, major, minor = "HTTP/1.1", 1, 1
	}
	header := event.Header
	if header == nil {
		header = make(http.Header)
	}
	host := event.Host
	if host == "" {
		host = u.Host
	}

	req := &http.Request{
		Method:        method,
		URL:           u,
		Proto:         proto,
		ProtoMajor:    major,
		ProtoMinor:    minor,
		Header:        header,
		ContentLength: int64(len(payload)),
		Host:          host,
		RemoteAddr:    event.RemoteAddr,
		RequestURI:    u.RequestURI(),
	}
	if len(payload) == 0 {
		req.Body = http.NoBody
		req.GetBody = func() (io.ReadCloser, error) { return http.NoBody, nil }
	} else {
		req.Body = io.NopCloser(bytes.NewReader(payload))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(payload)), nil
		}
	}
	return req.WithContext(ctx)
}

// drain pulls every chunk from body in order and concatenates them
func drain(ctx context.Context, body Chunks) ([]byte, error) {
	out := []byte{}
	if body == nil {
		return out, nil
	}
	defer body.Close()

	for i := 0; ; i++ {
		chunk, err := body.Next(ctx)
		out = append(out, chunk...)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, &DrainError{Chunk: i, Err: err}
		}
	}
}
