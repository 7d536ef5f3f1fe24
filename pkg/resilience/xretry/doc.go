// Package xretry 为非阻塞获取操作提供调用方重试，基于 [avast/retry-go/v5]。
//
// xposix 的操作从不在内部重试：TryRdLock/TryWrLock 等返回 EBUSY 后，
// 是否重试由调用方决定。xretry 默认只重试 EBUSY，其他错误立即返回：
//
//	err := xretry.Do(ctx, func(ctx context.Context) error {
//	    return lock.TryWrLock(ctx)
//	}, xretry.Attempts(20))
//
// 默认 10 次尝试、1ms 起步的指数退避（上限 50ms），只返回最后一个错误。
//
// [avast/retry-go/v5]: https://github.com/avast/retry-go
package xretry
