package xretry

import (
	"context"
	"errors"
	"time"

	retry "github.com/avast/retry-go/v5"

	"github.com/omeyang/xposix/pkg/posix/xerrno"
)

// 默认参数
const (
	DefaultAttempts = 10
	DefaultDelay    = time.Millisecond
	DefaultMaxDelay = 50 * time.Millisecond
)

// ErrNilFunc 重试函数为 nil。
var ErrNilFunc = errors.New("xretry: nil func")

// Option 是 retry-go 的配置选项，追加在默认选项之后，同类选项覆盖默认值。
type Option = retry.Option

// 常用的 retry-go 选项
var (
	// Attempts 总尝试次数（含首次），0 表示直到成功。
	Attempts = retry.Attempts
	// Delay 退避起始间隔
	Delay = retry.Delay
	// MaxDelay 退避间隔上限
	MaxDelay = retry.MaxDelay
	// DelayType 延迟策略
	DelayType = retry.DelayType
	// FixedDelay 固定间隔
	FixedDelay = retry.FixedDelay
	// BackOffDelay 指数退避
	BackOffDelay = retry.BackOffDelay
	// OnRetry 每次失败后的回调，n 从 0 开始。
	OnRetry = retry.OnRetry
	// RetryIf 覆盖默认的重试条件
	RetryIf = retry.RetryIf
	// Unrecoverable 标记错误不再重试
	Unrecoverable = retry.Unrecoverable
)

// Retryable 默认重试条件：EBUSY 且未被标记为不可恢复。
func Retryable(err error) bool {
	return retry.IsRecoverable(err) && xerrno.IsBusy(err)
}

// Do 执行 fn，失败且满足重试条件时按退避策略重试。
// ctx 取消时停止重试；ctx 为 nil 时使用 Background。
func Do(ctx context.Context, fn func(ctx context.Context) error, opts ...Option) error {
	if fn == nil {
		return ErrNilFunc
	}
	if ctx == nil {
		ctx = context.Background()
	}
	all := make([]Option, 0, len(opts)+7)
	all = append(all,
		retry.Context(ctx),
		retry.Attempts(DefaultAttempts),
		retry.Delay(DefaultDelay),
		retry.MaxDelay(DefaultMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(Retryable),
		retry.LastErrorOnly(true),
	)
	all = append(all, opts...)

	return retry.New(all...).Do(func() error {
		return fn(ctx)
	})
}
