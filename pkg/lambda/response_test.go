package lambda

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func collect(t *testing.T, body Chunks) []string {
	t.Helper()
	var got []string
	for {
		c, err := body.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return got
		}
		require.NoError(t, err)
		got = append(got, string(c))
	}
}

func TestReaderChunks(t *testing.T) {
	r := &closeTracker{Reader: strings.NewReader("abcdefg")}
	body := ReaderChunks(r, 3)

	assert.Equal(t, []string{"abc", "def", "g"}, collect(t, body))
	require.NoError(t, body.Close())
	assert.True(t, r.closed)
}

func TestReaderChunksDefaultSize(t *testing.T) {
	payload := strings.Repeat("x", DefaultChunkSize+1)
	got := collect(t, ReaderChunks(strings.NewReader(payload), 0))
	require.Len(t, got, 2)
	assert.Len(t, got[0], DefaultChunkSize)
	assert.Len(t, got[1], 1)
}

func TestBytesChunks(t *testing.T) {
	assert.Empty(t, collect(t, BytesChunks(nil)))
	assert.Equal(t, []string{"ok"}, collect(t, BytesChunks([]byte("ok"))))
}

func TestSliceChunksHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SliceChunks([]byte("a")).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewStreamResponseDefaults(t *testing.T) {
	r := NewStreamResponse(204, nil, nil)
	require.NotNil(t, r.Header)
	assert.Empty(t, collect(t, r.Body))
	assert.Same(t, r, r.IntoResponse())
}

func TestBodyBytes(t *testing.T) {
	assert.Equal(t, []byte{}, BodyBytes(EmptyBody{}))
	assert.Equal(t, []byte{}, BodyBytes(nil))
	assert.Equal(t, []byte("héllo"), BodyBytes(TextBody("héllo")))
	assert.Equal(t, []byte{0x00, 0xFF}, BodyBytes(BinaryBody{0x00, 0xFF}))
}
