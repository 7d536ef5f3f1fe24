// Package xctx 提供任务身份在 context 中的存取能力。
//
// Go 的 goroutine 没有可寻址的身份，POSIX 兼容层需要"调用任务"的概念
// （用于线程私有数据和读写锁的持有者判断），因此任务身份显式地随 context 传递。
//
// # 命名约定
//
//	WithTask(ctx, t)    - 注入：将任务写入 context
//	Task(ctx)           - 读取：缺失时返回 (nil, false)
//	RequireTask(ctx)    - 读取：缺失时返回 ErrMissingTask
//
// 日志系统通过 [AppendTaskAttrs] 把 task_id/task_name 注入每条日志。
package xctx
