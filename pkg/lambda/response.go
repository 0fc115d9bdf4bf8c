package lambda

import (
	"context"
	"errors"
	"io"
	"net/http"
)

// Chunks produces a response body as a finite, single-use sequence of
// byte chunks.
type Chunks interface {
	// Next returns the next chunk, or io.EOF once the body is exhausted.
	Next(ctx context.Context) ([]byte, error)
	// Close releases the producer. Safe to call after exhaustion.
	Close() error
}

// StreamResponse is what a wrapped service produces: response parts plus a
// body that may still be in flight.
type StreamResponse struct {
	ResponseParts
	Body Chunks
}

// IntoResponse is implemented by any handler result the adapter can drain
type IntoResponse interface {
	IntoResponse() *StreamResponse
}

// IntoResponse returns r itself
func (r *StreamResponse) IntoResponse() *StreamResponse {
	return r
}

// NewStreamResponse builds a StreamResponse. A nil header becomes an empty
// one and a nil body becomes an empty body.
func NewStreamResponse(status int, header http.Header, body Chunks) *StreamResponse {
	if header == nil {
		header = make(http.Header)
	}
	if body == nil {
		body = SliceChunks()
	}
	return &StreamResponse{
		ResponseParts: ResponseParts{StatusCode: status, Header: header},
		Body:          body,
	}
}

type sliceChunks struct {
	chunks [][]byte
}

// SliceChunks yields the given chunks in order
func SliceChunks(chunks ...[]byte) Chunks {
	return &sliceChunks{chunks: chunks}
}

// BytesChunks yields b as a single chunk, or nothing when b is empty
func BytesChunks(b []byte) Chunks {
	if len(b) == 0 {
		return SliceChunks()
	}
	return SliceChunks(b)
}

func (s *sliceChunks) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.chunks) == 0 {
		return nil, io.EOF
	}
	c := s.chunks[0]
	s.chunks = s.chunks[1:]
	return c, nil
}

func (s *sliceChunks) Close() error {
	s.chunks = nil
	return nil
}

type readerChunks struct {
	r    io.Reader
	buf  []byte
	done bool
}

// DefaultChunkSize is used by ReaderChunks when size is not positive
const DefaultChunkSize = 32 * 1024

// ReaderChunks yields the content of r in chunks of at most size bytes.
// If r is an io.Closer it is closed by Close.
func ReaderChunks(r io.Reader, size int) Chunks {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &readerChunks{r: r, buf: make([]byte, size)}
}

func (rc *readerChunks) Next(ctx context.Context) ([]byte, error) {
	for {
		if rc.done {
			return nil, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := rc.r.Read(rc.buf)
		if errors.Is(err, io.EOF) {
			rc.done = true
		} else if err != nil {
			return nil, err
		}
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, rc.buf[:n])
			return chunk, nil
		}
	}
}

func (rc *readerChunks) Close() error {
	rc.done = true
	if c, ok := rc.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
