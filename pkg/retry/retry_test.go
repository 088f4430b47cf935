package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterRetryableFailures(t *testing.T) {
	attempts := 0
	r := New(WithMaxAttempts(3), WithInitialDelay(time.Millisecond), WithJitter(0))

	err := r.Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return Retryable(errors.New("transient"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	attempts := 0
	cause := errors.New("bad request")
	r := New(WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	err := r.Do(context.Background(), func(context.Context) error {
		attempts++
		return Permanent(cause)
	})

	assert.Equal(t, cause, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_PlainErrorNotRetriedByDefault(t *testing.T) {
	attempts := 0
	r := New(WithMaxAttempts(3), WithInitialDelay(time.Millisecond))

	err := r.Do(context.Background(), func(context.Context) error {
		attempts++
		return errors.New("unclassified")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_ExhaustionReturnsUnwrappedError(t *testing.T) {
	attempts := 0
	cause := errors.New("still down")
	r := New(WithMaxAttempts(2), WithInitialDelay(time.Millisecond), WithJitter(0))

	err := r.Do(context.Background(), func(context.Context) error {
		attempts++
		return Retryable(cause)
	})

	assert.Equal(t, cause, err)
	assert.Equal(t, 2, attempts)
}

func TestDo_RetryIfOverridesClassification(t *testing.T) {
	attempts := 0
	r := New(
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithJitter(0),
		WithRetryIf(func(error) bool { return true }),
	)

	err := r.Do(context.Background(), func(context.Context) error {
		attempts++
		return errors.New("plain")
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(WithMaxAttempts(10), WithInitialDelay(50*time.Millisecond))

	attempts := 0
	err := r.Do(ctx, func(context.Context) error {
		attempts++
		cancel()
		return Retryable(errors.New("transient"))
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoWithData(t *testing.T) {
	attempts := 0
	got, err := DoWithData(context.Background(), func(context.Context) (int, error) {
		attempts++
		if attempts < 2 {
			return 0, Retryable(errors.New("transient"))
		}
		return 42, nil
	}, WithMaxAttempts(3), WithInitialDelay(time.Millisecond), WithJitter(0))

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 2, attempts)
}

func TestErrorClassification(t *testing.T) {
	cause := errors.New("cause")

	assert.True(t, IsRetryable(Retryable(cause)))
	assert.False(t, IsRetryable(Permanent(cause)))
	assert.True(t, IsPermanent(Permanent(cause)))
	assert.False(t, IsPermanent(cause))

	assert.Nil(t, Retryable(nil))
	assert.Nil(t, Permanent(nil))

	assert.ErrorIs(t, Retryable(cause), cause)
	assert.ErrorIs(t, Permanent(cause), cause)
}

func TestOnRetryCallback(t *testing.T) {
	var observed []int
	r := New(
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithJitter(0),
		WithOnRetry(func(attempt int, _ error, _ time.Duration) {
			observed = append(observed, attempt)
		}),
	)

	_ = r.Do(context.Background(), func(context.Context) error {
		return Retryable(errors.New("transient"))
	})

	assert.Equal(t, []int{1, 2}, observed)
}
