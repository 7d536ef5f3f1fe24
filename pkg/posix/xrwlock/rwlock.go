package xrwlock

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/omeyang/xposix/pkg/observability/xmetrics"
	"github.com/omeyang/xposix/pkg/posix/xerrno"
	"github.com/omeyang/xposix/pkg/rtos/xsched"
)

// RWLock 读写锁。零值为未初始化状态，使用前必须调用 [RWLock.Init]。
// 不得复制。
type RWLock struct {
	state atomic.Pointer[state]
}

// state 一次 Init 到 Destroy 之间的锁状态
type state struct {
	meta   mutex
	access mutex

	// readers 只在持有 meta 时修改
	readers atomic.Uint32
	// owner 写者身份，只由持有 access 的写者或持有 meta 的解锁方修改
	owner atomic.Pointer[xsched.Task]

	maxReaders uint32
	observer   xmetrics.Observer
}

// Init 初始化读写锁，从调度器堆分配两个递归互斥量。
//
// 已初始化返回 EINVAL；第二个互斥量分配失败时删除第一个并返回 ENOMEM，锁保持未初始化。
func (l *RWLock) Init(s *xsched.Scheduler, opts ...Option) error {
	if l.state.Load() != nil {
		return xerrno.Wrap("rwlock_init", xerrno.ErrInvalid)
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.alloc == nil {
		if s == nil {
			return xerrno.Wrap("rwlock_init", xerrno.ErrInvalid)
		}
		o.alloc = schedulerAlloc(s)
	}

	meta, err := o.alloc()
	if err != nil {
		return xerrno.Wrap("rwlock_init", xerrno.ErrNoMem)
	}
	access, err := o.alloc()
	if err != nil {
		mustDelete(meta)
		return xerrno.Wrap("rwlock_init", xerrno.ErrNoMem)
	}

	st := &state{
		meta:       meta,
		access:     access,
		maxReaders: o.maxReaders,
		observer:   o.observer,
	}
	if !l.state.CompareAndSwap(nil, st) {
		// 并发 Init 竞争失败
		mustDelete(meta)
		mustDelete(access)
		return xerrno.Wrap("rwlock_init", xerrno.ErrInvalid)
	}
	return nil
}

// caller 返回已初始化的状态与调用任务
func (l *RWLock) caller(ctx context.Context, op string) (*state, *xsched.Task, error) {
	st := l.state.Load()
	if st == nil {
		return nil, nil, xerrno.Wrap(op, xerrno.ErrInvalid)
	}
	self, ok := xsched.TaskFromContext(ctx)
	if !ok {
		return nil, nil, xerrno.Wrap(op, xerrno.ErrInvalid)
	}
	return st, self, nil
}

// RdLock 获取读锁，必要时无限期阻塞。
//
// 调用任务持有写锁时返回 EDEADLK；读者数达到上限返回 EBUSY。
// 第一个读者代表全体读者获取访问互斥量，阻塞直到写者释放。
func (l *RWLock) RdLock(ctx context.Context) (err error) {
	st, self, err := l.caller(ctx, "rwlock_rdlock")
	if err != nil {
		return err
	}
	if st.owner.Load() == self {
		return xerrno.Wrap("rwlock_rdlock", xerrno.ErrDeadlock)
	}

	ctx, span := st.start(ctx, "rdlock")
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	wait := context.WithoutCancel(ctx)
	mustTake(wait, st.meta, self)
	defer mustGive(st.meta, self)

	n := st.readers.Load()
	if n >= st.maxReaders {
		return xerrno.Wrap("rwlock_rdlock", xerrno.ErrBusy)
	}
	if n == 0 {
		mustTake(wait, st.access, readers)
	}
	st.readers.Store(n + 1)
	return nil
}

// TryRdLock 非阻塞获取读锁，无法立即获取时返回 EBUSY。
func (l *RWLock) TryRdLock(ctx context.Context) error {
	st, self, err := l.caller(ctx, "rwlock_tryrdlock")
	if err != nil {
		return err
	}
	if st.owner.Load() == self {
		return xerrno.Wrap("rwlock_tryrdlock", xerrno.ErrDeadlock)
	}

	if err := st.meta.TryTake(self); err != nil {
		return busyOrPanic("rwlock_tryrdlock", err)
	}
	defer mustGive(st.meta, self)

	n := st.readers.Load()
	if n >= st.maxReaders {
		return xerrno.Wrap("rwlock_tryrdlock", xerrno.ErrBusy)
	}
	if n == 0 {
		if err := st.access.TryTake(readers); err != nil {
			return busyOrPanic("rwlock_tryrdlock", err)
		}
	}
	st.readers.Store(n + 1)
	return nil
}

// WrLock 获取写锁，无限期阻塞直到没有读者和其他写者。
// 调用任务已是写者时返回 EDEADLK。
func (l *RWLock) WrLock(ctx context.Context) (err error) {
	st, self, err := l.caller(ctx, "rwlock_wrlock")
	if err != nil {
		return err
	}
	if st.owner.Load() == self {
		return xerrno.Wrap("rwlock_wrlock", xerrno.ErrDeadlock)
	}

	ctx, span := st.start(ctx, "wrlock")
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	mustTake(context.WithoutCancel(ctx), st.access, self)
	st.owner.Store(self)
	return nil
}

// TryWrLock 非阻塞获取写锁，无法立即获取时返回 EBUSY。
func (l *RWLock) TryWrLock(ctx context.Context) error {
	st, self, err := l.caller(ctx, "rwlock_trywrlock")
	if err != nil {
		return err
	}
	if st.owner.Load() == self {
		return xerrno.Wrap("rwlock_trywrlock", xerrno.ErrDeadlock)
	}
	if err := st.access.TryTake(self); err != nil {
		return busyOrPanic("rwlock_trywrlock", err)
	}
	st.owner.Store(self)
	return nil
}

// Unlock 释放读锁或写锁。
//
// 写者释放自己的锁时直接归还访问互斥量，不经过元数据互斥量：
// 第一个读者可能正持有元数据互斥量等待访问互斥量。
// 其余情况在元数据互斥量内递减读者计数，计数为零时清除写者并释放访问互斥量。
// 锁完全空闲时调用属于不变量破坏，直接 panic。
func (l *RWLock) Unlock(ctx context.Context) error {
	st, self, err := l.caller(ctx, "rwlock_unlock")
	if err != nil {
		return err
	}

	if st.owner.Load() == self {
		st.owner.Store(nil)
		mustGive(st.access, self)
		return nil
	}

	mustTake(context.WithoutCancel(ctx), st.meta, self)
	defer mustGive(st.meta, self)

	if n := st.readers.Load(); n > 0 {
		st.readers.Store(n - 1)
		if n == 1 {
			st.owner.Store(nil)
			mustGive(st.access, readers)
		}
		return nil
	}

	// 读者计数为零：代替当前写者释放
	w := st.owner.Swap(nil)
	if w == nil {
		panic("xrwlock: unlock of unlocked rwlock")
	}
	mustGive(st.access, w)
	return nil
}

// Destroy 销毁读写锁并归还两个互斥量的资源。
// 未初始化返回 EINVAL；仍有读者或任一互斥量有持有者时返回 EBUSY。
func (l *RWLock) Destroy() error {
	st := l.state.Load()
	if st == nil {
		return xerrno.Wrap("rwlock_destroy", xerrno.ErrInvalid)
	}
	if st.readers.Load() > 0 || st.meta.Holder() != nil || st.access.Holder() != nil {
		return xerrno.Wrap("rwlock_destroy", xerrno.ErrBusy)
	}
	if !l.state.CompareAndSwap(st, nil) {
		return xerrno.Wrap("rwlock_destroy", xerrno.ErrInvalid)
	}
	if err := st.access.Delete(); err != nil {
		l.state.Store(st)
		return busyOrPanic("rwlock_destroy", err)
	}
	// 与加锁并发的销毁属于未定义行为，此处失败视为不变量破坏
	mustDelete(st.meta)
	return nil
}

// Readers 返回当前读者数快照，未初始化时为 0。
func (l *RWLock) Readers() uint32 {
	if st := l.state.Load(); st != nil {
		return st.readers.Load()
	}
	return 0
}

// Owner 返回当前写者快照，没有写者或未初始化时为 nil。
func (l *RWLock) Owner() *xsched.Task {
	if st := l.state.Load(); st != nil {
		return st.owner.Load()
	}
	return nil
}

// Initialized 报告锁是否已初始化
func (l *RWLock) Initialized() bool {
	return l.state.Load() != nil
}

func (st *state) start(ctx context.Context, op string) (context.Context, xmetrics.Span) {
	return xmetrics.Start(ctx, st.observer, xmetrics.SpanOptions{
		Component: "xrwlock",
		Operation: op,
	})
}

// 底层互斥量在锁的生命周期内不应失败，失败说明不变量已被破坏。

func mustTake(ctx context.Context, m mutex, owner any) {
	if err := m.Take(ctx, owner); err != nil {
		panic("xrwlock: take underlying mutex: " + err.Error())
	}
}

func mustGive(m mutex, owner any) {
	if err := m.Give(owner); err != nil {
		panic("xrwlock: give underlying mutex: " + err.Error())
	}
}

func mustDelete(m mutex) {
	if err := m.Delete(); err != nil {
		panic("xrwlock: delete underlying mutex: " + err.Error())
	}
}

// busyOrPanic 将 EBUSY 转换为带操作名的错误，其他错误视为不变量破坏。
func busyOrPanic(op string, err error) error {
	if errors.Is(err, xerrno.ErrBusy) {
		return xerrno.Wrap(op, xerrno.ErrBusy)
	}
	panic("xrwlock: " + op + ": " + err.Error())
}
