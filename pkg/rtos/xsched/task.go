package xsched

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/omeyang/xposix/pkg/context/xctx"
)

// TaskID 任务 ID，从 1 开始单调递增，进程生命周期内不复用。
type TaskID uint64

// Task 任务句柄。
//
// 存储槽可被任务自身或检查它的代码读写（任务退出清理时由清理方访问）。
type Task struct {
	id     TaskID
	name   string
	exited atomic.Bool

	mu    sync.Mutex
	slots []any
}

var _ xctx.Identity = (*Task)(nil)

func newTask(id TaskID, name string, numSlots int) *Task {
	return &Task{
		id:    id,
		name:  name,
		slots: make([]any, numSlots),
	}
}

// ID 返回任务 ID
func (t *Task) ID() TaskID { return t.id }

// Name 返回任务名称
func (t *Task) Name() string { return t.name }

// TaskID 实现 xctx.Identity
func (t *Task) TaskID() uint64 { return uint64(t.id) }

// TaskName 实现 xctx.Identity
func (t *Task) TaskName() string { return t.name }

// Exited 报告任务是否已退出
func (t *Task) Exited() bool { return t.exited.Load() }

// NumSlots 返回存储槽数量
func (t *Task) NumSlots() int { return len(t.slots) }

// Slot 读取存储槽，下标越界返回 nil。
func (t *Task) Slot(index int) any {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(t.slots) {
		return nil
	}
	return t.slots[index]
}

// SetSlot 写入存储槽，下标越界返回 [ErrSlotIndex]。
func (t *Task) SetSlot(index int, v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(t.slots) {
		return ErrSlotIndex
	}
	t.slots[index] = v
	return nil
}

// String 返回 "name#id"
func (t *Task) String() string {
	return t.name + "#" + strconv.FormatUint(uint64(t.id), 10)
}

// WithTask 返回绑定了任务身份的 context，ctx 为 nil 时以 Background 为父。
func WithTask(ctx context.Context, t *Task) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	// ctx 已归一化，WithTask 不会失败
	c, _ := xctx.WithTask(ctx, t) //nolint:errcheck // ctx 非 nil
	return c
}

// TaskFromContext 返回 ctx 中的调用任务。
func TaskFromContext(ctx context.Context) (*Task, bool) {
	id, ok := xctx.Task(ctx)
	if !ok {
		return nil, false
	}
	t, ok := id.(*Task)
	if !ok || t == nil {
		return nil, false
	}
	return t, true
}
