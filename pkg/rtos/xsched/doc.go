// Package xsched 是 POSIX 兼容层所依赖的宿主调度器模型。
//
// 它只提供兼容层需要消费的能力，不实现调度策略：
//
//   - 任务句柄 [Task]：单调递增 ID、名称、固定数量的任务本地存储槽
//   - 调用任务身份：随 context 传递（[WithTask] / [TaskFromContext]）
//   - 全局临界区：[Scheduler.SuspendAll] / [Scheduler.ResumeAll]，同一挂起方可嵌套
//   - 堆配额 [Heap]：模拟 pvPortMalloc，分配失败返回 ENOMEM
//   - 互斥量分配：[Scheduler.NewMutex] 按堆配额计费
//   - 任务退出钩子：[Scheduler.OnTaskExit]，任务退出时在其 context 中执行
//
// # 使用方式
//
//	s := xsched.New(xsched.WithHeapSize(64 << 10))
//	_, err := s.Spawn(ctx, "worker", func(ctx context.Context) error {
//	    t, _ := xsched.TaskFromContext(ctx)
//	    return t.SetSlot(1, "value")
//	})
//	if err != nil {
//	    return err
//	}
//	return s.Wait()
package xsched
