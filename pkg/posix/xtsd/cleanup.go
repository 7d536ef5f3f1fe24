package xtsd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/omeyang/xposix/pkg/observability/xlog"
	"github.com/omeyang/xposix/pkg/observability/xmetrics"
	"github.com/omeyang/xposix/pkg/rtos/xsched"
)

// Attach 将 Cleanup 注册为调度器的任务退出钩子。只需调用一次。
func (r *Registry) Attach() {
	r.sched.OnTaskExit(func(ctx context.Context, t *xsched.Task) {
		_ = r.Cleanup(ctx, t) //nolint:errcheck // 退出钩子无法返回错误，Cleanup 内已记录
	})
}

// Cleanup 运行任务 t 的析构清理，由任务退出机制调用。
//
// 每轮扫描整条绑定链：值非 nil 的绑定先清空，key 已删除或无析构函数时直接丢弃，
// 否则以旧值调用析构函数。某轮调用过析构函数则继续下一轮，直到收敛或达到轮数上限。
// 超过上限返回 [ErrDestructorLoop]。结束后释放全部绑定并清空存储槽。
func (r *Registry) Cleanup(ctx context.Context, t *xsched.Task) (err error) {
	if t == nil {
		return nil
	}
	c := r.chainOf(t)
	if c == nil {
		return nil
	}
	ctx = xsched.WithTask(ctx, t)

	ctx, span := xmetrics.Start(ctx, r.observer, xmetrics.SpanOptions{
		Component: "xtsd",
		Operation: "cleanup",
		Attrs:     []xmetrics.Attr{{Key: "task", Value: t.String()}},
	})
	passes := 0
	defer func() {
		span.End(xmetrics.Result{Err: err, Attrs: []xmetrics.Attr{
			{Key: "passes", Value: passes},
			{Key: "bindings", Value: len(c.bindings)},
		}})
		r.sched.Heap().Free(int64(len(c.bindings)) * bindingSize)
		_ = t.SetSlot(r.opts.keysSlot, nil) //nolint:errcheck // 下标已校验
	}()

	for {
		passes++
		if !r.runPass(ctx, c) {
			return nil
		}
		if passes < r.opts.maxPasses {
			continue
		}
		pending := c.pending()
		if pending == 0 {
			return nil
		}
		r.logger.Warn(ctx, "destructor passes exceeded",
			slog.Int("passes", passes),
			xlog.Count(pending),
		)
		return fmt.Errorf("%w: %d bindings still set after %d passes", ErrDestructorLoop, pending, passes)
	}
}

// runPass 扫描一轮，返回是否调用过析构函数。
// 按下标遍历，析构函数追加的新绑定在同一轮内也会被处理。
func (r *Registry) runPass(ctx context.Context, c *chain) bool {
	progressed := false
	for i := 0; i < len(c.bindings); i++ {
		b := c.bindings[i]
		if b.value == nil {
			continue
		}
		value := b.value
		b.value = nil

		e, ok := r.lookup(b.key)
		if !ok || e.dtor == nil {
			continue
		}
		r.invoke(ctx, e, value)
		progressed = true
	}
	return progressed
}

func (r *Registry) invoke(ctx context.Context, e entry, value any) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error(ctx, "destructor panicked",
				slog.Uint64("key", uint64(e.key)),
				slog.Any("panic", p),
			)
		}
	}()
	e.dtor(ctx, value)
}

// pending 返回值仍非 nil 的绑定数
func (c *chain) pending() int {
	n := 0
	for _, b := range c.bindings {
		if b.value != nil {
			n++
		}
	}
	return n
}
