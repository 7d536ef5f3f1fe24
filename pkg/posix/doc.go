// Package posix 提供构建在宿主调度器之上的 POSIX 线程兼容层。
//
// 子包列表：
//   - xerrno: POSIX 错误码（EINVAL/ENOMEM/EBUSY/EDEADLK）
//   - xtsd: 线程私有数据（pthread_key_*、pthread_[gs]etspecific）
//   - xrwlock: 读写锁（pthread_rwlock_*）
package posix
