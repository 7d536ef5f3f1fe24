// Package xmutex 提供宿主调度器的互斥量原语：普通互斥量与递归互斥量。
//
// 与 sync.Mutex 的区别在于持有者是显式的 [Owner]（通常是任务句柄），因此可以：
//   - 查询当前持有者（[Mutex.Holder]），用于读写锁销毁前的忙检测
//   - 递归互斥量允许同一持有者重复获取（[Recursive]）
//   - 普通互斥量在同一持有者重复获取时返回 EDEADLK，而不是永久阻塞
//
// Take 的等待没有超时概念，只响应 ctx 取消；需要"永久等待"语义的调用方
// 传入 context.WithoutCancel(ctx)。
//
// 内部以容量为 1 的 channel 作为令牌：发送成功即获取，接收即释放。
package xmutex
