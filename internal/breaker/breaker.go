// Package breaker implements a small circuit breaker for outbound calls.
//
// A breaker starts Closed. After MaxFailures consecutive failures it opens and fails fast
// with ErrOpen until ResetTimeout has passed; the next call then runs as a HalfOpen trial
// which closes the breaker on success and re-opens it on failure.
package breaker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// State is the breaker state.
type State int

// All breaker states.
const (
	Closed State = iota
	Open
	HalfOpen
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned without calling the operation while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open")

// Default tunables.
const (
	DefaultMaxFailures  = 5
	DefaultResetTimeout = 30 * time.Second
)

// Config holds the breaker tunables. Zero values take the defaults.
type Config struct {
	MaxFailures  int
	ResetTimeout time.Duration
	Logger       *slog.Logger
}

// Breaker guards an operation against repeated failures.
type Breaker struct {
	name   string
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	trial    bool // a half-open trial is in flight
}

// New creates a closed breaker.
func New(name string, cfg Config) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = DefaultResetTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Breaker{name: name, cfg: cfg, logger: logger, now: time.Now}
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.name }

// State returns the current state. An open breaker whose timeout has passed reports HalfOpen.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cfg.ResetTimeout {
		return HalfOpen
	}
	return b.state
}

// excludedError carries an error that does not count as a breaker failure.
type excludedError struct{ err error }

func (e excludedError) Error() string { return e.err.Error() }
func (e excludedError) Unwrap() error { return e.err }

// Excluded marks err as a failure of the request rather than of the remote side.
// Execute returns the inner error and records the call as a success.
func Excluded(err error) error {
	if err == nil {
		return nil
	}
	return excludedError{err: err}
}

// Execute runs op unless the breaker is open.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := op(ctx)
	var excluded excludedError
	if errors.As(err, &excluded) {
		b.record(nil)
		return excluded.err
	}
	b.record(err)
	return err
}

// allow decides whether a call may proceed and moves Open to HalfOpen once the timeout passed.
func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.cfg.ResetTimeout {
			b.logger.Warn("breaker_fast_fail", "name", b.name)
			return ErrOpen
		}
		b.state = HalfOpen
		b.trial = true
		b.logger.Info("breaker_half_open", "name", b.name)
	case HalfOpen:
		if b.trial {
			return ErrOpen // one trial at a time
		}
		b.trial = true
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.state != Closed {
			b.logger.Info("breaker_closed", "name", b.name, "from", b.state.String())
		}
		b.state = Closed
		b.failures = 0
		b.trial = false
		return
	}

	b.failures++
	b.logger.Warn("breaker_failure", "name", b.name, "failures", b.failures, "error", err.Error())
	if b.state == HalfOpen || b.failures >= b.cfg.MaxFailures {
		b.state = Open
		b.openedAt = b.now()
		b.trial = false
		b.logger.Error("breaker_opened", "name", b.name, "failures", b.failures)
	}
}
