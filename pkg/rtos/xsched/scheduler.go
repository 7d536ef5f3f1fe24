package xsched

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/btree"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xposix/pkg/observability/xlog"
	"github.com/omeyang/xposix/pkg/rtos/xmutex"
)

// ExitHook 任务退出钩子，ctx 已绑定退出中的任务。
type ExitHook func(ctx context.Context, t *Task)

// TaskFunc 任务函数
type TaskFunc func(ctx context.Context) error

// Scheduler 宿主调度器模型，所有方法并发安全。
type Scheduler struct {
	opts   options
	logger xlog.Logger
	heap   *Heap
	nextID atomic.Uint64

	tableMu sync.Mutex
	table   *btree.BTreeG[*Task]

	// critical 全局临界区，按挂起方身份递归持有
	critical *xmutex.Mutex

	hooksMu sync.RWMutex
	hooks   []ExitHook

	group errgroup.Group
}

// New 创建调度器
func New(opts ...Option) *Scheduler {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	logger := o.logger
	if logger == nil {
		logger = xlog.Default()
	}
	return &Scheduler{
		opts:     o,
		logger:   logger.With(xlog.Component("xsched")),
		heap:     NewHeap(o.heapSize),
		critical: xmutex.New(xmutex.Recursive),
		table: btree.NewG[*Task](8, func(a, b *Task) bool {
			return a.id < b.id
		}),
	}
}

// Heap 返回调度器的堆配额
func (s *Scheduler) Heap() *Heap { return s.heap }

// NumSlots 返回每个任务的存储槽数量
func (s *Scheduler) NumSlots() int { return s.opts.numSlots }

// NewMutex 分配互斥量，按 [MutexSize] 计入堆配额，Delete 时归还。
func (s *Scheduler) NewMutex(kind xmutex.Kind) (*xmutex.Mutex, error) {
	if err := s.heap.Alloc(MutexSize); err != nil {
		return nil, err
	}
	return xmutex.New(kind, xmutex.WithReleaseFunc(func() {
		s.heap.Free(MutexSize)
	})), nil
}

// OnTaskExit 注册任务退出钩子，按注册顺序执行。nil 被忽略。
func (s *Scheduler) OnTaskExit(hook ExitHook) {
	if hook == nil {
		return
	}
	s.hooksMu.Lock()
	s.hooks = append(s.hooks, hook)
	s.hooksMu.Unlock()
}

// NewTask 创建任务句柄但不启动 goroutine，适用于调用方自行驱动任务的场景。
// 任务结束时必须调用 [Scheduler.Exit]。
func (s *Scheduler) NewTask(name string) (*Task, error) {
	if err := s.heap.Alloc(TaskSize); err != nil {
		return nil, err
	}
	t := newTask(TaskID(s.nextID.Add(1)), name, s.opts.numSlots)

	s.tableMu.Lock()
	s.table.ReplaceOrInsert(t)
	s.tableMu.Unlock()
	return t, nil
}

// Spawn 创建任务并在新 goroutine 中运行 fn。
//
// fn 收到的 ctx 已绑定该任务；fn 返回（或 panic）后执行退出钩子并移除任务。
// fn 的错误通过 [Scheduler.Wait] 返回。
func (s *Scheduler) Spawn(ctx context.Context, name string, fn TaskFunc) (*Task, error) {
	if fn == nil {
		return nil, ErrNilFunc
	}
	if ctx == nil {
		ctx = context.Background()
	}
	t, err := s.NewTask(name)
	if err != nil {
		return nil, err
	}
	tctx := WithTask(ctx, t)
	s.group.Go(func() error {
		runErr := runTask(tctx, fn)
		if exitErr := s.Exit(tctx, t); exitErr != nil && runErr == nil {
			runErr = exitErr
		}
		return runErr
	})
	return t, nil
}

func runTask(ctx context.Context, fn TaskFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
		}
	}()
	return fn(ctx)
}

// Wait 等待所有 Spawn 的任务结束，返回第一个非 nil 错误。
func (s *Scheduler) Wait() error {
	return s.group.Wait()
}

// Exit 执行任务退出流程：在任务 context 中依次运行退出钩子，然后从任务表移除并归还配额。
// 重复调用返回 [ErrTaskExited]。
func (s *Scheduler) Exit(ctx context.Context, t *Task) error {
	if t == nil || !t.exited.CompareAndSwap(false, true) {
		return ErrTaskExited
	}
	ctx = WithTask(ctx, t)

	s.hooksMu.RLock()
	hooks := append([]ExitHook(nil), s.hooks...)
	s.hooksMu.RUnlock()

	for _, hook := range hooks {
		hook(ctx, t)
	}

	s.tableMu.Lock()
	s.table.Delete(t)
	s.tableMu.Unlock()
	s.heap.Free(TaskSize)

	s.logger.Debug(ctx, "task exited", slog.Int("hooks", len(hooks)))
	return nil
}

// Lookup 按 ID 查找存活任务
func (s *Scheduler) Lookup(id TaskID) (*Task, bool) {
	s.tableMu.Lock()
	defer s.tableMu.Unlock()
	return s.table.Get(&Task{id: id})
}

// Tasks 返回存活任务快照，按 ID 升序。
func (s *Scheduler) Tasks() []*Task {
	s.tableMu.Lock()
	defer s.tableMu.Unlock()

	tasks := make([]*Task, 0, s.table.Len())
	s.table.Ascend(func(t *Task) bool {
		tasks = append(tasks, t)
		return true
	})
	return tasks
}
