package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fast(n int) Policy {
	return Policy{MaxAttempts: n, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestDo_SuccessImmediate(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fast(3), func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls)
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fast(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDo_PersistentFailure(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fast(3), func(context.Context) (int, error) {
		calls++
		return 0, errors.New("persistent")
	})
	assert.EqualError(t, err, "persistent")
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	base := errors.New("401 unauthorized")
	calls := 0
	_, err := Do(context.Background(), fast(5), func(context.Context) (int, error) {
		calls++
		return 0, Permanent(base)
	})
	assert.Equal(t, 1, calls)
	assert.Same(t, base, err)
	assert.False(t, IsPermanent(err), "returned error is unwrapped")
}

func TestDo_MaxAttemptsZero(t *testing.T) {
	calls := 0
	_ = DoErr(context.Background(), Policy{}, func(context.Context) error {
		calls++
		return errors.New("fail")
	})
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := DoErr(ctx, fast(3), func(context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestDo_ContextErrorFromFn(t *testing.T) {
	calls := 0
	err := DoErr(context.Background(), fast(3), func(context.Context) error {
		calls++
		return context.DeadlineExceeded
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(Permanent(errors.New("x"))))
	assert.False(t, IsPermanent(errors.New("x")))
	assert.Nil(t, Permanent(nil))
}
