package notify

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/huangsam/auditor/internal/breaker"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	headers http.Header
	body    []byte
}

type recorder struct {
	mu       sync.Mutex
	requests []recordedRequest
	statuses []int // consumed in order; the last one repeats
	calls    atomic.Int32
}

func (r *recorder) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		n := int(r.calls.Add(1)) - 1

		r.mu.Lock()
		r.requests = append(r.requests, recordedRequest{headers: req.Header.Clone(), body: body})
		status := r.statuses[min(n, len(r.statuses)-1)]
		r.mu.Unlock()

		w.WriteHeader(status)
	}
}

func newSinkServer(t *testing.T, statuses ...int) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{statuses: statuses}
	srv := httptest.NewServer(rec.handler(t))
	t.Cleanup(srv.Close)
	return srv, rec
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestHTTPSinkDelivers(t *testing.T) {
	srv, rec := newSinkServer(t, http.StatusOK)
	sink := NewHTTPSink("webhook-compliance", srv.URL, HTTPOptions{})

	err := sink.Send(context.Background(), Message{Category: "compliance", Body: []byte(`{"a":1}`)})
	require.NoError(t, err)

	require.Len(t, rec.requests, 1)
	got := rec.requests[0]
	assert.Equal(t, `{"a":1}`, string(got.body))
	assert.Equal(t, "application/json", got.headers.Get("Content-Type"))
	assert.Equal(t, "compliance", got.headers.Get("X-Auditor-Category"))
	assert.Len(t, got.headers.Get("Idempotency-Key"), 36)
	assert.Empty(t, got.headers.Get("Content-Encoding"))
	assert.Equal(t, "webhook-compliance", sink.Name())
	assert.NoError(t, sink.Close())
}

func TestHTTPSinkGzip(t *testing.T) {
	srv, rec := newSinkServer(t, http.StatusAccepted)
	sink := NewHTTPSink("report", srv.URL, HTTPOptions{Gzip: true})

	require.NoError(t, sink.Send(context.Background(), Message{Body: []byte(`{"Report_ID":"NS-COMP-1"}`)}))

	got := rec.requests[0]
	assert.Equal(t, "gzip", got.headers.Get("Content-Encoding"))
	zr, err := gzip.NewReader(bytes.NewReader(got.body))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, `{"Report_ID":"NS-COMP-1"}`, string(plain))
}

func TestHTTPSinkRetries(t *testing.T) {
	t.Run("transient then success", func(t *testing.T) {
		srv, rec := newSinkServer(t, http.StatusServiceUnavailable, http.StatusTooManyRequests, http.StatusOK)
		sink := NewHTTPSink("hook", srv.URL, HTTPOptions{Retries: 3})
		var delays []time.Duration
		sink.sleep = func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		}

		require.NoError(t, sink.Send(context.Background(), Message{Body: []byte("{}")}))
		assert.Equal(t, int32(3), rec.calls.Load())
		assert.Equal(t, []time.Duration{DefaultBackoff, 2 * DefaultBackoff}, delays)

		key := rec.requests[0].headers.Get("Idempotency-Key")
		for _, r := range rec.requests {
			assert.Equal(t, key, r.headers.Get("Idempotency-Key"), "retries reuse the idempotency key")
		}
	})

	t.Run("gives up after retries", func(t *testing.T) {
		srv, rec := newSinkServer(t, http.StatusInternalServerError)
		sink := NewHTTPSink("hook", srv.URL, HTTPOptions{Retries: 2})
		sink.sleep = noSleep

		err := sink.Send(context.Background(), Message{Body: []byte("{}")})
		assert.ErrorContains(t, err, "500")
		assert.Equal(t, int32(3), rec.calls.Load())
	})

	t.Run("client errors are permanent", func(t *testing.T) {
		srv, rec := newSinkServer(t, http.StatusBadRequest)
		sink := NewHTTPSink("hook", srv.URL, HTTPOptions{Retries: 5})
		sink.sleep = noSleep

		err := sink.Send(context.Background(), Message{Body: []byte("{}")})
		assert.ErrorIs(t, err, errPermanent)
		assert.Equal(t, int32(1), rec.calls.Load())
	})
}

func TestHTTPSinkBreakerOpens(t *testing.T) {
	srv, rec := newSinkServer(t, http.StatusBadGateway)
	brk := breaker.New("hook", breaker.Config{MaxFailures: 2, ResetTimeout: time.Hour})
	sink := NewHTTPSink("hook", srv.URL, HTTPOptions{Breaker: brk})

	for range 2 {
		assert.Error(t, sink.Send(context.Background(), Message{Body: []byte("{}")}))
	}
	err := sink.Send(context.Background(), Message{Body: []byte("{}")})
	assert.ErrorIs(t, err, breaker.ErrOpen)
	assert.Equal(t, int32(2), rec.calls.Load())
}

func TestHTTPSinkClientErrorsKeepBreakerClosed(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"bad request", http.StatusBadRequest},
		{"unauthorized", http.StatusUnauthorized},
		{"not found", http.StatusNotFound},
		{"unprocessable", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, rec := newSinkServer(t, tt.status)
			brk := breaker.New("hook", breaker.Config{MaxFailures: 2, ResetTimeout: time.Hour})
			sink := NewHTTPSink("hook", srv.URL, HTTPOptions{Breaker: brk, Retries: 3})

			for range 4 {
				err := sink.Send(context.Background(), Message{Body: []byte("{}")})
				assert.ErrorIs(t, err, errPermanent)
				assert.NotErrorIs(t, err, breaker.ErrOpen)
			}
			assert.Equal(t, breaker.Closed, brk.State())
			assert.Equal(t, int32(4), rec.calls.Load(), "client errors are neither retried nor short-circuited")
		})
	}
}

func TestHTTPSinkRateLimitHonorsContext(t *testing.T) {
	srv, _ := newSinkServer(t, http.StatusOK)
	sink := NewHTTPSink("hook", srv.URL, HTTPOptions{RPS: 0.001})

	require.NoError(t, sink.Send(context.Background(), Message{Body: []byte("{}")}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, sink.Send(ctx, Message{Body: []byte("{}")}))
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
