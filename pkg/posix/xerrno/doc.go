// Package xerrno 定义 POSIX 兼容层的错误类型，并映射到标准 errno 值。
//
// 四类错误与 pthread 返回码一一对应：
//
//	错误            errno     含义
//	─────────────────────────────────────────────────
//	ErrInvalid      EINVAL    对象未初始化、key 不存在、缺少必需参数
//	ErrNoMem        ENOMEM    key/绑定/锁创建时内存（堆配额）不足
//	ErrBusy         EBUSY     计数器已达上限，或销毁仍在使用中的锁
//	ErrDeadlock     EDEADLK   阻塞前检测到自身死锁
//
// 所有错误都可以用 errors.Is 与哨兵比较，[Wrap] 附加操作名后仍保持可比较性。
// 内部不变量被破坏（如读者计数下溢）属于不可恢复状态，调用方会 panic，不经过本包。
package xerrno
