package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("connection refused")

func TestDo_SucceedsAfterRetryableErrors(t *testing.T) {
	calls := 0
	p := Policy{Attempts: 5, Base: time.Millisecond}
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errFlaky)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_PlainErrorIsNotRetriedByDefault(t *testing.T) {
	calls := 0
	p := Policy{Attempts: 5, Base: time.Millisecond}
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errFlaky
	})

	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestDo_GivesUpAndUnmarks(t *testing.T) {
	var seen []int
	p := Policy{
		Attempts: 3,
		Base:     time.Millisecond,
		OnRetry:  func(attempt int, err error, _ time.Duration) { seen = append(seen, attempt) },
	}
	err := p.Do(context.Background(), func(context.Context) error { return Retryable(errFlaky) })

	assert.Same(t, errFlaky, err)
	assert.False(t, IsRetryable(err))
	assert.Equal(t, []int{1, 2}, seen)
}

func TestDo_ZeroPolicyTriesOnce(t *testing.T) {
	calls := 0
	err := Policy{}.Do(context.Background(), func(context.Context) error {
		calls++
		return Retryable(errFlaky)
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := StorageRoundTrip().Do(ctx, func(context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestDo_CancelDuringBackoffReturnsLastError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Attempts: 3, Base: time.Hour}
	err := p.Do(ctx, func(context.Context) error {
		cancel()
		return Retryable(errFlaky)
	})
	assert.Same(t, errFlaky, err)
}

func TestBackendConnect(t *testing.T) {
	p := BackendConnect(nil)
	assert.True(t, p.ShouldRetry(errFlaky), "connect errors are retried unmarked")
	assert.False(t, p.ShouldRetry(context.DeadlineExceeded))
}

func TestDelay(t *testing.T) {
	p := Policy{Base: 100 * time.Millisecond, Cap: 300 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, p.delay(1))
	assert.Equal(t, 200*time.Millisecond, p.delay(2))
	assert.Equal(t, 300*time.Millisecond, p.delay(3))
	assert.Equal(t, 300*time.Millisecond, p.delay(10))

	p.Jitter = 0.5
	for range 20 {
		d := p.delay(1)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}
