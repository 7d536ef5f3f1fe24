// Package xrwlock 提供由两个递归互斥量构造的读写锁。
//
// 元数据互斥量保护读者计数的“检查并可能获取访问互斥量”序列；
// 访问互斥量的持有者决定实际访问权：第一个读者代表全体读者持有它，
// 写者以自身身份持有它。最后一个读者离开时释放访问互斥量，唤醒等待的写者。
//
// 调用任务身份来自 ctx（见 [xsched.WithTask]），ctx 未携带任务时返回 EINVAL。
// 所有等待都是无限期的：ctx 的取消不会中断加锁。
//
//	var l xrwlock.RWLock
//	if err := l.Init(sched); err != nil { ... }
//	if err := l.RdLock(ctx); err != nil { ... }
//	defer l.Unlock(ctx)
//
// 错误码：
//   - EINVAL：未初始化、重复初始化、ctx 未携带任务
//   - EDEADLK：写者持有锁时再次 RdLock/WrLock
//   - EBUSY：读者数达到上限、Try 系列无法立即获取、Destroy 时锁仍在使用
//   - ENOMEM：Init 分配互斥量失败
//
// 锁不追踪调用方是以读者还是写者身份解锁；读者计数归零后总是释放访问互斥量。
// 持锁任务被外部终止时锁不会被强制释放。
package xrwlock
