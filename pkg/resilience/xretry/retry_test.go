package xretry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/omeyang/xposix/pkg/posix/xerrno"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func busy() error { return xerrno.Wrap("rwlock_trywrlock", xerrno.ErrBusy) }

func fastOpts(extra ...Option) []Option {
	return append([]Option{Delay(time.Millisecond), DelayType(FixedDelay)}, extra...)
}

func TestDoRetriesBusy(t *testing.T) {
	calls := 0
	var retried []uint
	err := Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return busy()
		}
		return nil
	}, fastOpts(OnRetry(func(n uint, _ error) { retried = append(retried, n) }))...)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, retried, 2)
}

func TestDoStopsOnOtherErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return xerrno.Wrap("rwlock_trywrlock", xerrno.ErrDeadlock)
	}, fastOpts()...)

	assert.True(t, errors.Is(err, xerrno.ErrDeadlock))
	assert.Equal(t, 1, calls)
}

func TestDoAttemptsExhausted(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return busy()
	}, fastOpts(Attempts(4))...)

	assert.True(t, xerrno.IsBusy(err))
	assert.Equal(t, 4, calls)
}

func TestDoUnrecoverable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return Unrecoverable(busy())
	}, fastOpts()...)

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return busy()
	}, fastOpts(Attempts(100))...)

	assert.Error(t, err)
	assert.Less(t, calls, 100)
}

func TestDoPassesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	require.NoError(t, Do(ctx, func(got context.Context) error {
		assert.Equal(t, "v", got.Value(key{}))
		return nil
	}))
}

func TestDoNilFunc(t *testing.T) {
	assert.ErrorIs(t, Do(context.Background(), nil), ErrNilFunc)
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(busy()))
	assert.False(t, Retryable(xerrno.ErrNoMem))
	assert.False(t, Retryable(Unrecoverable(busy())))
	assert.False(t, Retryable(nil))
}
