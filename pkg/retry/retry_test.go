package retry

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOptions(maxRetries int) Options {
	return Options{MaxRetries: maxRetries, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func TestRetrier_SucceedsAfterTransientFailures(t *testing.T) {
	r := New(fastOptions(3))

	calls := 0
	err := r.Do(context.Background(), "list", func(context.Context) error {
		calls++
		if calls < 3 {
			return driver.ErrBadConn
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetrier_GivesUpAfterMaxRetries(t *testing.T) {
	r := New(fastOptions(3))

	calls := 0
	err := r.Do(context.Background(), "list", func(context.Context) error {
		calls++
		return io.ErrUnexpectedEOF
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, 4, calls, "one attempt plus three retries")
}

func TestRetrier_DoesNotRetryPermanentErrors(t *testing.T) {
	r := New(fastOptions(3))

	calls := 0
	err := r.Do(context.Background(), "get", func(context.Context) error {
		calls++
		return sql.ErrNoRows
	})

	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NotErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, 1, calls)
}

func TestRetrier_StopsWhenContextCancelled(t *testing.T) {
	r := New(Options{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- r.Do(ctx, "list", func(context.Context) error {
			calls++
			return driver.ErrBadConn
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, driver.ErrBadConn)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("retrier did not observe cancellation")
	}
}

func TestRetrier_CustomClassifier(t *testing.T) {
	boom := errors.New("boom")
	r := New(fastOptions(2), WithRetryIf(func(err error) bool { return errors.Is(err, boom) }))

	calls := 0
	err := r.Do(context.Background(), "create", func(context.Context) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestNoRetry_RunsOnce(t *testing.T) {
	calls := 0
	err := NoRetry().Do(context.Background(), "update", func(context.Context) error {
		calls++
		return driver.ErrBadConn
	})

	assert.ErrorIs(t, err, driver.ErrBadConn)
	assert.NotErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, 1, calls)
}

func TestRetrier_BackoffDoubles(t *testing.T) {
	r := New(Options{MaxRetries: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 350 * time.Millisecond})

	assert.Equal(t, 100*time.Millisecond, r.Backoff(0))
	assert.Equal(t, 200*time.Millisecond, r.Backoff(1))
	assert.Equal(t, 350*time.Millisecond, r.Backoff(2))
	assert.Equal(t, 350*time.Millisecond, r.Backoff(4))
}

func TestRetrier_BackoffJitterStaysInRange(t *testing.T) {
	r := New(Options{MaxRetries: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Jitter: 0.5})

	for i := 0; i < 50; i++ {
		d := r.Backoff(1)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 300*time.Millisecond)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "bad connection", err: driver.ErrBadConn, want: true},
		{name: "connection exception", err: &pq.Error{Code: "08006"}, want: true},
		{name: "serialization failure", err: &pq.Error{Code: "40001"}, want: true},
		{name: "unique violation", err: &pq.Error{Code: "23505"}, want: false},
		{name: "no rows", err: sql.ErrNoRows, want: false},
		{name: "cancelled", err: context.Canceled, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
