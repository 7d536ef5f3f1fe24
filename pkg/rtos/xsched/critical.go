package xsched

import (
	"context"

	"github.com/omeyang/xposix/pkg/rtos/xmutex"
)

// suspender 无任务身份的挂起方。非零大小，保证每个指针互不相等。
type suspender struct{ _ byte }

type suspendKey struct{}

// suspendOwner 解析临界区持有者：优先取 SuspendAll 写入 ctx 的身份，其次取调用任务。
func suspendOwner(ctx context.Context) (xmutex.Owner, bool) {
	if o := ctx.Value(suspendKey{}); o != nil {
		return o, true
	}
	if t, ok := TaskFromContext(ctx); ok {
		return t, true
	}
	return nil, false
}

// SuspendAll 挂起调度，进入全局临界区，阻塞直到其他挂起方全部恢复。
//
// 可嵌套：同一任务（或携带返回 ctx 的调用方）再次挂起只增加深度，
// 与 ResumeAll 次数相同时才离开临界区。返回的 ctx 记录了挂起方身份，
// 应传给配对的 ResumeAll；ctx 未携带任务时尤其如此。
// 等待不受 ctx 取消影响。
func (s *Scheduler) SuspendAll(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	owner, ok := suspendOwner(ctx)
	if !ok {
		owner = &suspender{}
	}
	if err := s.critical.Take(context.WithoutCancel(ctx), owner); err != nil {
		panic("xsched: suspend scheduler: " + err.Error())
	}
	if ctx.Value(suspendKey{}) == owner {
		return ctx
	}
	return context.WithValue(ctx, suspendKey{}, owner)
}

// ResumeAll 恢复调度，最外层调用离开全局临界区。
// ctx 对应的挂起方未持有临界区时属于不变量破坏，直接 panic。
func (s *Scheduler) ResumeAll(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	owner, ok := suspendOwner(ctx)
	if !ok || s.critical.Give(owner) != nil {
		panic("xsched: ResumeAll without SuspendAll")
	}
}

// Suspended 报告全局临界区当前是否被持有
func (s *Scheduler) Suspended() bool {
	return s.critical.Holder() != nil
}

// Critical 在全局临界区内执行 fn，fn 收到的 ctx 可用于嵌套挂起。
func (s *Scheduler) Critical(ctx context.Context, fn func(ctx context.Context)) {
	ctx = s.SuspendAll(ctx)
	defer s.ResumeAll(ctx)
	fn(ctx)
}
