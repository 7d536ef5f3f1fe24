// Package xtsd 实现线程私有数据（thread-specific data）：
// 进程级 key 注册表、每个任务的绑定链，以及任务退出时的析构清理。
//
// 注册表是显式对象，由 [New] 基于 [xsched.Scheduler] 创建：
//
//	reg, err := xtsd.New(sched)
//	reg.Attach() // 任务退出时自动清理绑定
//
//	key, err := reg.CreateKey(func(ctx context.Context, v any) {
//	    v.(*conn).Close()
//	})
//	err = reg.SetSpecific(ctx, key, c) // ctx 必须携带调用任务
//	v := reg.GetSpecific(ctx, key)
//
// # 并发模型
//
// CreateKey/DeleteKey 在调度器全局临界区（SuspendAll/ResumeAll）内修改注册表；
// 查找无锁（读取不可变快照）。每个任务的绑定链只由该任务自身读写，
// 因此 Get/SetSpecific 不加锁；任务退出时的 Cleanup 在退出任务的 context 中执行。
//
// # 删除与孤儿绑定
//
// DeleteKey 不会清除各任务已有的绑定。这些绑定变为孤儿：
// 之后的 Get 返回 nil，Set 返回 EINVAL，清理时静默丢弃且不调用析构函数。
//
// # 析构清理
//
// Cleanup 反复扫描绑定链：值非 nil 的绑定先被清空，再以旧值调用析构函数。
// 析构函数可以为其他 key 设置新值，新值会在后续轮次被析构。
// 轮数上限由 [WithMaxDestructorPasses] 控制（默认 4），超过上限时记录告警并返回
// [ErrDestructorLoop]。无论结果如何，所有绑定都会被释放，存储槽被清空。
package xtsd
