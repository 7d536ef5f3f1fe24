package xctx

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
)

// contextKey 包私有 key 类型，避免与其他包冲突。
type contextKey string

const keyTask = contextKey("xctx:task")

// 日志属性 Key。
const (
	KeyTaskID   = "task_id"
	KeyTaskName = "task_name"
)

var (
	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xctx: nil context")

	// ErrMissingTask 表示 context 中没有任务身份。
	ErrMissingTask = errors.New("xctx: missing task")
)

// Identity 是可放入 context 的任务身份。
// 实现必须可比较（通常是指针），持有者判断依赖 == 比较。
type Identity interface {
	TaskID() uint64
	TaskName() string
}

// WithTask 将任务身份注入 context。
func WithTask(ctx context.Context, t Identity) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyTask, t), nil
}

// Task 从 context 提取任务身份。
func Task(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	t, ok := ctx.Value(keyTask).(Identity)
	if !ok || t == nil {
		return nil, false
	}
	return t, true
}

// RequireTask 与 Task 相同，缺失时返回 ErrMissingTask。
func RequireTask(ctx context.Context) (Identity, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	t, ok := Task(ctx)
	if !ok {
		return nil, ErrMissingTask
	}
	return t, nil
}

// AppendTaskAttrs 将任务身份追加到 attrs，ctx 中没有任务时原样返回。
func AppendTaskAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	t, ok := Task(ctx)
	if !ok {
		return attrs
	}
	attrs = append(attrs, slog.String(KeyTaskID, strconv.FormatUint(t.TaskID(), 10)))
	if name := t.TaskName(); name != "" {
		attrs = append(attrs, slog.String(KeyTaskName, name))
	}
	return attrs
}
