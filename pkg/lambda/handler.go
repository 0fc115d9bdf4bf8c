package lambda

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// ErrBodyClosed is returned to a handler writing after the response body
// was closed by the consumer.
var ErrBodyClosed = errors.New("response body closed")

// HandlerService runs a plain http.Handler, such as a gin engine, as a
// Service. The handler runs on its own goroutine and every Write becomes
// one body chunk. A Write blocks until the chunk is pulled.
type HandlerService struct {
	handler http.Handler
}

// NewHandlerService wraps h
func NewHandlerService(h http.Handler) *HandlerService {
	return &HandlerService{handler: h}
}

// PollReady always reports ready
func (s *HandlerService) PollReady() (<-chan struct{}, error) {
	return nil, nil
}

// Call starts the handler and returns as soon as the response head is
// known: on the first WriteHeader or Write, or when the handler returns.
func (s *HandlerService) Call(ctx context.Context, req *http.Request) (*StreamResponse, error) {
	w := newStreamWriter()
	go w.serve(s.handler, req)

	select {
	case <-w.headReady:
	case <-ctx.Done():
		w.Close()
		return nil, ctx.Err()
	}

	return &StreamResponse{ResponseParts: w.head, Body: w}, nil
}

type streamWriter struct {
	// touched only by the handler goroutine
	header      http.Header
	wroteHeader bool

	head      ResponseParts
	headReady chan struct{}

	chunks chan []byte
	done   chan struct{}
	err    error

	stop     chan struct{}
	stopOnce sync.Once
}

func newStreamWriter() *streamWriter {
	return &streamWriter{
		header:    make(http.Header),
		headReady: make(chan struct{}),
		chunks:    make(chan []byte),
		done:      make(chan struct{}),
		stop:      make(chan struct{}),
	}
}

func (w *streamWriter) serve(h http.Handler, req *http.Request) {
	defer func() {
		if r := recover(); r != nil && r != http.ErrAbortHandler {
			w.err = fmt.Errorf("handler panic: %v", r)
		}
		w.WriteHeader(http.StatusOK)
		close(w.done)
	}()
	h.ServeHTTP(w, req)
}

func (w *streamWriter) Header() http.Header {
	return w.header
}

func (w *streamWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	// informational responses are not forwarded
	if code >= 100 && code <= 199 && code != http.StatusSwitchingProtocols {
		return
	}
	w.wroteHeader = true
	w.head = ResponseParts{StatusCode: code, Header: w.header.Clone()}
	close(w.headReady)
}

func (w *streamWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		if w.header.Get("Content-Type") == "" && len(p) > 0 {
			w.header.Set("Content-Type", http.DetectContentType(p))
		}
		w.WriteHeader(http.StatusOK)
	}
	if len(p) == 0 {
		return 0, nil
	}

	chunk := make([]byte, len(p))
	copy(chunk, p)
	select {
	case w.chunks <- chunk:
		return len(p), nil
	case <-w.stop:
		return 0, ErrBodyClosed
	}
}

// Flush commits the response head. Chunks are already unbuffered.
func (w *streamWriter) Flush() {
	w.WriteHeader(http.StatusOK)
}

func (w *streamWriter) Next(ctx context.Context) ([]byte, error) {
	select {
	case c := <-w.chunks:
		return c, nil
	case <-w.done:
		if w.err != nil {
			return nil, w.err
		}
		return nil, io.EOF
	case <-w.stop:
		return nil, ErrBodyClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (w *streamWriter) Close() error {
	w.stopOnce.Do(func() { close(w.stop) })
	return nil
}
