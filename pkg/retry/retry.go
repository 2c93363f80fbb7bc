package retry

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"syscall"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

var ErrMaxRetries = errors.New("max retries exceeded")

type Options struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// Jitter is the fraction of each delay that is randomized, 0 disables it.
	Jitter float64
}

func DefaultOptions() Options {
	return Options{
		MaxRetries: 3,
		BaseDelay:  200 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Jitter:     0.2,
	}
}

type Option func(*Retrier)

func WithRetryIf(fn func(error) bool) Option {
	return func(r *Retrier) {
		r.retryable = fn
	}
}

func WithLogger(log *logrus.Logger) Option {
	return func(r *Retrier) {
		r.log = log
	}
}

type Retrier struct {
	opts      Options
	log       *logrus.Logger
	retryable func(error) bool
}

func New(opts Options, options ...Option) *Retrier {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultOptions().BaseDelay
	}
	if opts.MaxDelay < opts.BaseDelay {
		opts.MaxDelay = opts.BaseDelay
	}
	if opts.Jitter < 0 || opts.Jitter > 1 {
		opts.Jitter = 0
	}

	r := &Retrier{
		opts:      opts,
		log:       logrus.StandardLogger(),
		retryable: IsTransient,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// NoRetry runs each operation exactly once.
func NoRetry() *Retrier {
	return New(Options{MaxRetries: 0})
}

func (r *Retrier) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var err error

	for attempt := 0; attempt <= r.opts.MaxRetries; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return err
		}

		if !r.retryable(err) {
			return err
		}

		if attempt == r.opts.MaxRetries {
			break
		}

		delay := r.Backoff(attempt)
		r.log.WithFields(logrus.Fields{
			"operation":   operation,
			"attempt":     attempt + 1,
			"max_retries": r.opts.MaxRetries,
			"delay":       delay.String(),
			"error":       err.Error(),
		}).Warn("Operation failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}

	if r.opts.MaxRetries == 0 {
		return err
	}
	return fmt.Errorf("%w after %d retries: %w", ErrMaxRetries, r.opts.MaxRetries, err)
}

// Backoff returns the delay before retry number attempt+1.
func (r *Retrier) Backoff(attempt int) time.Duration {
	delay := r.opts.BaseDelay
	for i := 0; i < attempt && delay < r.opts.MaxDelay; i++ {
		delay *= 2
	}
	if delay > r.opts.MaxDelay {
		delay = r.opts.MaxDelay
	}

	if r.opts.Jitter > 0 {
		spread := float64(delay) * r.opts.Jitter
		delay = time.Duration(float64(delay) - spread + rand.Float64()*2*spread)
	}

	return delay
}

// IsTransient reports whether err looks like a connection or contention
// failure that may succeed on a later attempt.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57":
			return true
		}
		switch pqErr.Code {
		case "40001", "40P01":
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
