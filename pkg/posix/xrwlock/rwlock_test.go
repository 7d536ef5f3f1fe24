package xrwlock

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"github.com/omeyang/xposix/pkg/observability/xlog"
	"github.com/omeyang/xposix/pkg/observability/xmetrics"
	"github.com/omeyang/xposix/pkg/posix/xerrno"
	"github.com/omeyang/xposix/pkg/rtos/xsched"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestScheduler(t *testing.T, opts ...xsched.Option) *xsched.Scheduler {
	t.Helper()
	logger, _, err := xlog.New().SetOutput(io.Discard).Build()
	require.NoError(t, err)
	return xsched.New(append([]xsched.Option{xsched.WithLogger(logger)}, opts...)...)
}

func taskCtx(t *testing.T, s *xsched.Scheduler, name string) context.Context {
	t.Helper()
	task, err := s.NewTask(name)
	require.NoError(t, err)
	return xsched.WithTask(context.Background(), task)
}

func newTestLock(t *testing.T, s *xsched.Scheduler, opts ...Option) *RWLock {
	t.Helper()
	var l RWLock
	require.NoError(t, l.Init(s, opts...))
	return &l
}

// blocked 报告 ch 在 d 内是否仍未关闭
func blocked(ch <-chan struct{}, d time.Duration) bool {
	select {
	case <-ch:
		return false
	case <-time.After(d):
		return true
	}
}

func TestInit(t *testing.T) {
	s := newTestScheduler(t)
	var l RWLock
	assert.False(t, l.Initialized())

	require.NoError(t, l.Init(s))
	assert.True(t, l.Initialized())
	assert.True(t, errors.Is(l.Init(s), xerrno.ErrInvalid))

	var nilSched RWLock
	assert.True(t, errors.Is(nilSched.Init(nil), xerrno.ErrInvalid))
}

func TestInitPartialFailure(t *testing.T) {
	s := newTestScheduler(t, xsched.WithHeapSize(xsched.MutexSize))

	var l RWLock
	err := l.Init(s)
	assert.True(t, errors.Is(err, xerrno.ErrNoMem))
	assert.False(t, l.Initialized())
	assert.Zero(t, s.Heap().Used(), "first mutex released")
}

func TestInitPartialFailureDeletesFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := NewMockmutex(ctrl)
	first.EXPECT().Delete().Return(nil)

	calls := 0
	alloc := func() (mutex, error) {
		calls++
		if calls == 1 {
			return first, nil
		}
		return nil, xerrno.ErrNoMem
	}

	var l RWLock
	err := l.Init(nil, withAlloc(alloc))
	assert.Equal(t, "ENOMEM", xerrno.Name(xerrno.Code(err)))
	assert.False(t, l.Initialized())
}

func TestUninitialized(t *testing.T) {
	s := newTestScheduler(t)
	ctx := taskCtx(t, s, "t")
	var l RWLock

	for name, fn := range map[string]func() error{
		"rdlock":    func() error { return l.RdLock(ctx) },
		"wrlock":    func() error { return l.WrLock(ctx) },
		"tryrdlock": func() error { return l.TryRdLock(ctx) },
		"trywrlock": func() error { return l.TryWrLock(ctx) },
		"unlock":    func() error { return l.Unlock(ctx) },
		"destroy":   l.Destroy,
	} {
		assert.True(t, errors.Is(fn(), xerrno.ErrInvalid), name)
	}
	assert.Zero(t, l.Readers())
	assert.Nil(t, l.Owner())
}

func TestMissingTask(t *testing.T) {
	l := newTestLock(t, newTestScheduler(t))
	assert.True(t, errors.Is(l.RdLock(context.Background()), xerrno.ErrInvalid))
	assert.True(t, errors.Is(l.WrLock(context.Background()), xerrno.ErrInvalid))
	assert.True(t, errors.Is(l.Unlock(context.Background()), xerrno.ErrInvalid))
}

func TestConcurrentReaders(t *testing.T) {
	s := newTestScheduler(t)
	l := newTestLock(t, s)

	const n = 5
	var (
		holding sync.WaitGroup
		release = make(chan struct{})
		done    sync.WaitGroup
	)
	holding.Add(n)
	for i := range n {
		ctx := taskCtx(t, s, "reader")
		done.Add(1)
		go func() {
			defer done.Done()
			if !assert.NoError(t, l.RdLock(ctx), "reader %d", i) {
				holding.Done()
				return
			}
			holding.Done()
			<-release
			assert.NoError(t, l.Unlock(ctx))
		}()
	}
	holding.Wait()
	assert.Equal(t, uint32(n), l.Readers())
	assert.Nil(t, l.Owner())

	close(release)
	done.Wait()
	assert.Zero(t, l.Readers())
	assert.NoError(t, l.Destroy())
}

func TestWriterExclusive(t *testing.T) {
	s := newTestScheduler(t)
	l := newTestLock(t, s)

	var (
		readersIn atomic.Int32
		writersIn atomic.Int32
		wg        sync.WaitGroup
	)
	check := func() {
		r, w := readersIn.Load(), writersIn.Load()
		assert.LessOrEqual(t, w, int32(1))
		if w > 0 {
			assert.Zero(t, r)
		}
	}

	for i := range 8 {
		ctx := taskCtx(t, s, "worker")
		writer := i%3 == 0
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				if writer {
					if !assert.NoError(t, l.WrLock(ctx)) {
						return
					}
					writersIn.Add(1)
					check()
					writersIn.Add(-1)
				} else {
					if !assert.NoError(t, l.RdLock(ctx)) {
						return
					}
					readersIn.Add(1)
					check()
					readersIn.Add(-1)
				}
				assert.NoError(t, l.Unlock(ctx))
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, l.Readers())
	assert.Nil(t, l.Owner())
	assert.NoError(t, l.Destroy())
}

func TestWriterSelfDeadlock(t *testing.T) {
	s := newTestScheduler(t)
	l := newTestLock(t, s)
	ctx := taskCtx(t, s, "w")

	require.NoError(t, l.WrLock(ctx))
	self, _ := xsched.TaskFromContext(ctx)
	assert.Same(t, self, l.Owner())

	assert.True(t, errors.Is(l.RdLock(ctx), xerrno.ErrDeadlock))
	assert.True(t, errors.Is(l.WrLock(ctx), xerrno.ErrDeadlock))
	assert.True(t, errors.Is(l.TryRdLock(ctx), xerrno.ErrDeadlock))
	assert.True(t, errors.Is(l.TryWrLock(ctx), xerrno.ErrDeadlock))

	require.NoError(t, l.Unlock(ctx))
	assert.Nil(t, l.Owner())
}

func TestLastReaderReleasesWriter(t *testing.T) {
	s := newTestScheduler(t)
	l := newTestLock(t, s)
	r1, r2, w := taskCtx(t, s, "r1"), taskCtx(t, s, "r2"), taskCtx(t, s, "w")

	require.NoError(t, l.RdLock(r1))
	require.NoError(t, l.RdLock(r2))

	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		assert.NoError(t, l.WrLock(w))
	}()

	assert.True(t, blocked(acquired, 50*time.Millisecond))
	require.NoError(t, l.Unlock(r1))
	assert.True(t, blocked(acquired, 50*time.Millisecond), "one reader remains")
	require.NoError(t, l.Unlock(r2))

	<-acquired
	wt, _ := xsched.TaskFromContext(w)
	assert.Same(t, wt, l.Owner())
	require.NoError(t, l.Unlock(w))
	assert.NoError(t, l.Destroy())
}

func TestReaderObservesWriterState(t *testing.T) {
	s := newTestScheduler(t)
	l := newTestLock(t, s)
	a, b := taskCtx(t, s, "A"), taskCtx(t, s, "B")

	require.NoError(t, l.WrLock(a))
	shared := 0

	var observed int
	done := make(chan struct{})
	go func() {
		defer close(done)
		if assert.NoError(t, l.RdLock(b)) {
			observed = shared
			assert.NoError(t, l.Unlock(b))
		}
	}()

	assert.True(t, blocked(done, 50*time.Millisecond))
	shared = 42
	require.NoError(t, l.Unlock(a))

	<-done
	assert.Equal(t, 42, observed)
	assert.Zero(t, l.Readers())
}

func TestDestroyBusy(t *testing.T) {
	s := newTestScheduler(t)
	l := newTestLock(t, s)
	ctx := taskCtx(t, s, "t")
	used := s.Heap().Used()

	require.NoError(t, l.RdLock(ctx))
	assert.Equal(t, uint32(1), l.Readers())
	assert.True(t, errors.Is(l.Destroy(), xerrno.ErrBusy))
	require.NoError(t, l.Unlock(ctx))

	require.NoError(t, l.WrLock(ctx))
	assert.True(t, errors.Is(l.Destroy(), xerrno.ErrBusy))
	require.NoError(t, l.Unlock(ctx))

	require.NoError(t, l.Destroy())
	assert.Equal(t, used-2*xsched.MutexSize, s.Heap().Used())
	assert.True(t, errors.Is(l.Destroy(), xerrno.ErrInvalid))
	assert.True(t, errors.Is(l.RdLock(ctx), xerrno.ErrInvalid))

	// 销毁后可以重新初始化
	assert.NoError(t, l.Init(s))
}

func TestDestroyDeleteBusyKeepsLock(t *testing.T) {
	ctrl := gomock.NewController(t)
	meta, access := NewMockmutex(ctrl), NewMockmutex(ctrl)
	meta.EXPECT().Holder().Return(nil)
	access.EXPECT().Holder().Return(nil)
	access.EXPECT().Delete().Return(xerrno.Wrap("mutex_delete", xerrno.ErrBusy))

	mutexes := []mutex{meta, access}
	alloc := func() (mutex, error) {
		m := mutexes[0]
		mutexes = mutexes[1:]
		return m, nil
	}

	var l RWLock
	require.NoError(t, l.Init(nil, withAlloc(alloc)))
	assert.True(t, errors.Is(l.Destroy(), xerrno.ErrBusy))
	assert.True(t, l.Initialized())
}

func TestUnlockGiveFailurePanics(t *testing.T) {
	ctrl := gomock.NewController(t)
	meta, access := NewMockmutex(ctrl), NewMockmutex(ctrl)
	mutexes := []mutex{meta, access}
	alloc := func() (mutex, error) {
		m := mutexes[0]
		mutexes = mutexes[1:]
		return m, nil
	}

	s := newTestScheduler(t)
	ctx := taskCtx(t, s, "w")
	self, _ := xsched.TaskFromContext(ctx)

	var l RWLock
	require.NoError(t, l.Init(nil, withAlloc(alloc)))

	access.EXPECT().Take(gomock.Any(), self).Return(nil)
	require.NoError(t, l.WrLock(ctx))

	access.EXPECT().Give(self).Return(errors.New("not holder"))
	assert.PanicsWithValue(t, "xrwlock: give underlying mutex: not holder", func() {
		_ = l.Unlock(ctx)
	})
}

func TestUnlockUnlockedPanics(t *testing.T) {
	s := newTestScheduler(t)
	l := newTestLock(t, s)
	ctx := taskCtx(t, s, "t")

	assert.PanicsWithValue(t, "xrwlock: unlock of unlocked rwlock", func() {
		_ = l.Unlock(ctx)
	})
}

func TestMaxReaders(t *testing.T) {
	s := newTestScheduler(t)
	l := newTestLock(t, s, WithMaxReaders(2), WithMaxReaders(0))
	r1, r2, r3 := taskCtx(t, s, "r1"), taskCtx(t, s, "r2"), taskCtx(t, s, "r3")

	require.NoError(t, l.RdLock(r1))
	require.NoError(t, l.RdLock(r2))
	assert.True(t, xerrno.IsBusy(l.RdLock(r3)))
	assert.True(t, xerrno.IsBusy(l.TryRdLock(r3)))
	assert.Equal(t, uint32(2), l.Readers())

	require.NoError(t, l.Unlock(r1))
	assert.NoError(t, l.RdLock(r3))
}

func TestDefaultMaxReadersBound(t *testing.T) {
	s := newTestScheduler(t)
	l := newTestLock(t, s)
	r1, r2, r3 := taskCtx(t, s, "r1"), taskCtx(t, s, "r2"), taskCtx(t, s, "r3")

	require.NoError(t, l.RdLock(r1))
	st := l.state.Load()
	// 计数为 MaxUint32-2 时 +1 不等于 MaxUint32，仍可再加一个读者
	st.readers.Store(math.MaxUint32 - 2)
	require.NoError(t, l.RdLock(r2))
	assert.Equal(t, uint32(math.MaxUint32-1), l.Readers())
	assert.True(t, xerrno.IsBusy(l.RdLock(r3)))
	assert.True(t, xerrno.IsBusy(l.TryRdLock(r3)))

	st.readers.Store(1)
	require.NoError(t, l.Unlock(r1))
	require.NoError(t, l.Destroy())
}

func TestTryLocks(t *testing.T) {
	s := newTestScheduler(t)
	l := newTestLock(t, s)
	r, w := taskCtx(t, s, "r"), taskCtx(t, s, "w")

	require.NoError(t, l.TryRdLock(r))
	assert.True(t, xerrno.IsBusy(l.TryWrLock(w)))
	require.NoError(t, l.TryRdLock(w))
	assert.Equal(t, uint32(2), l.Readers())
	require.NoError(t, l.Unlock(w))
	require.NoError(t, l.Unlock(r))

	require.NoError(t, l.TryWrLock(w))
	assert.True(t, xerrno.IsBusy(l.TryRdLock(r)))
	assert.True(t, xerrno.IsBusy(l.TryWrLock(r)))
	assert.Zero(t, l.Readers())
	require.NoError(t, l.Unlock(w))

	assert.NoError(t, l.Destroy())
}

type recordingObserver struct {
	mu  sync.Mutex
	ops []string
}

func (o *recordingObserver) Start(ctx context.Context, opts xmetrics.SpanOptions) (context.Context, xmetrics.Span) {
	o.mu.Lock()
	o.ops = append(o.ops, opts.Component+"."+opts.Operation)
	o.mu.Unlock()
	return ctx, xmetrics.NoopSpan{}
}

func TestObserver(t *testing.T) {
	s := newTestScheduler(t)
	obs := &recordingObserver{}
	l := newTestLock(t, s, WithObserver(obs), WithObserver(nil))
	ctx := taskCtx(t, s, "t")

	require.NoError(t, l.RdLock(ctx))
	require.NoError(t, l.Unlock(ctx))
	require.NoError(t, l.WrLock(ctx))
	require.NoError(t, l.Unlock(ctx))

	assert.Equal(t, []string{"xrwlock.rdlock", "xrwlock.wrlock"}, obs.ops)
}
