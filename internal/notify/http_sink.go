package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/auditor/internal/breaker"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/time/rate"
)

// Default HTTP sink tunables.
const (
	DefaultHTTPTimeout = 15 * time.Second
	DefaultBackoff     = 500 * time.Millisecond
	maxBackoff         = 10 * time.Second
)

// errPermanent marks a response that retrying cannot fix.
var errPermanent = errors.New("permanent delivery failure")

// HTTPOptions configures an HTTPSink.
type HTTPOptions struct {
	Timeout time.Duration
	RPS     float64 // requests per second; <= 0 disables limiting
	Retries int     // extra attempts after the first
	Backoff time.Duration
	Gzip    bool
	Breaker *breaker.Breaker
	Logger  *slog.Logger
}

// HTTPSink posts JSON payloads to a URL.
type HTTPSink struct {
	name    string
	url     string
	client  *http.Client
	limiter *rate.Limiter
	retries int
	backoff time.Duration
	gzip    bool
	breaker *breaker.Breaker
	logger  *slog.Logger
	newKey  func() string
	sleep   func(ctx context.Context, d time.Duration) error
}

var _ Sink = &HTTPSink{} // Compile-time check

// NewHTTPSink creates an HTTP sink. A breaker named after the sink is created when none is given.
func NewHTTPSink(name, url string, opts HTTPOptions) *HTTPSink {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultHTTPTimeout
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger()
	}
	brk := opts.Breaker
	if brk == nil {
		brk = breaker.New(name, breaker.Config{Logger: logger})
	}
	var limiter *rate.Limiter
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}
	return &HTTPSink{
		name:    name,
		url:     url,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: limiter,
		retries: max(opts.Retries, 0),
		backoff: opts.Backoff,
		gzip:    opts.Gzip,
		breaker: brk,
		logger:  logger,
		newKey:  func() string { return uuid.New().String() },
		sleep:   sleepContext,
	}
}

// Name implements Sink.
func (s *HTTPSink) Name() string { return s.name }

// Close implements Sink.
func (s *HTTPSink) Close() error { return nil }

// Send implements Sink. All attempts of one message share an Idempotency-Key.
func (s *HTTPSink) Send(ctx context.Context, msg Message) error {
	body := msg.Body
	if s.gzip {
		compressed, err := gzipBytes(msg.Body)
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		body = compressed
	}
	key := s.newKey()

	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		var lastErr error
		for attempt := 0; attempt <= s.retries; attempt++ {
			if attempt > 0 {
				delay := min(s.backoff<<(attempt-1), maxBackoff)
				if err := s.sleep(ctx, delay); err != nil {
					return err
				}
			}
			if s.limiter != nil {
				if err := s.limiter.Wait(ctx); err != nil {
					return err
				}
			}
			lastErr = s.post(ctx, msg, body, key)
			if lastErr == nil {
				s.logger.Debug("sink_delivered", "sink", s.name, "category", msg.Category, "attempt", attempt+1)
				return nil
			}
			s.logger.Warn("sink_attempt_failed", "sink", s.name, "attempt", attempt+1, "error", lastErr.Error())
			if errors.Is(lastErr, errPermanent) {
				// The endpoint answered, so a rejected request leaves the breaker alone.
				return breaker.Excluded(fmt.Errorf("%s: %w", s.name, lastErr))
			}
			if ctx.Err() != nil {
				break
			}
		}
		return fmt.Errorf("%s: %w", s.name, lastErr)
	})
}

func (s *HTTPSink) post(ctx context.Context, msg Message, body []byte, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", errPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", key)
	if msg.Category != "" {
		req.Header.Set("X-Auditor-Category", msg.Category)
	}
	if s.gzip {
		req.Header.Set("Content-Encoding", "gzip")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("unexpected status %s", resp.Status)
	default:
		return fmt.Errorf("%w: unexpected status %s", errPermanent, resp.Status)
	}
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("gzip write error: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip close error: %w", err)
	}
	return buf.Bytes(), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
