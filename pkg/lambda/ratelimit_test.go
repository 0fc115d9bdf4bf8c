package lambda

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRateLimitReadiness(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(50*time.Millisecond), 1)
	svc := RateLimit[*StreamResponse](echoService(), limiter)

	wake, err := svc.PollReady()
	require.NoError(t, err)
	assert.Nil(t, wake, "first token is available immediately")

	// polling again before Call keeps the same reservation
	wake, err = svc.PollReady()
	require.NoError(t, err)
	assert.Nil(t, wake)

	_, err = svc.Call(context.Background(), newHTTPRequest(context.Background(), newEvent(EmptyBody{})))
	require.NoError(t, err)

	wake, err = svc.PollReady()
	require.NoError(t, err)
	require.NotNil(t, wake, "bucket is empty after one call")

	select {
	case <-wake:
	case <-time.After(time.Second):
		t.Fatal("wake channel never closed")
	}
	time.Sleep(5 * time.Millisecond)

	wake, err = svc.PollReady()
	require.NoError(t, err)
	assert.Nil(t, wake)
}

func TestRateLimitZeroBurstIsReadinessFault(t *testing.T) {
	svc := RateLimit[*StreamResponse](echoService(), rate.NewLimiter(1, 0))
	a := NewAdapter(svc, WithLogger(quietLogger()))
	assert.Panics(t, func() { a.PollReady() })
}

func TestRateLimitDelegatesInnerReadiness(t *testing.T) {
	inner := newGatedService()
	svc := RateLimit[*StreamResponse](inner, rate.NewLimiter(rate.Inf, 1))

	wake, err := svc.PollReady()
	require.NoError(t, err)
	assert.NotNil(t, wake)

	inner.open()
	wake, err = svc.PollReady()
	require.NoError(t, err)
	assert.Nil(t, wake)

	resp, err := svc.Call(context.Background(), newHTTPRequest(context.Background(), newEvent(EmptyBody{})))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
