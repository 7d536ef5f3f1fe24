package xtsd

import (
	"github.com/omeyang/xposix/pkg/observability/xlog"
	"github.com/omeyang/xposix/pkg/observability/xmetrics"
)

const (
	// DefaultKeysSlot 绑定链所在的任务存储槽，对应 PTHREAD_KEYS_INDEX。
	DefaultKeysSlot = 1

	// DefaultMaxDestructorPasses 默认析构轮数上限，对应 PTHREAD_DESTRUCTOR_ITERATIONS。
	DefaultMaxDestructorPasses = 4
)

// Option 注册表配置选项
type Option func(*options)

type options struct {
	keysSlot  int
	maxKeys   int
	maxPasses int
	logger    xlog.Logger
	observer  xmetrics.Observer
}

func defaultOptions() options {
	return options{
		keysSlot:  DefaultKeysSlot,
		maxPasses: DefaultMaxDestructorPasses,
		observer:  xmetrics.NoopObserver{},
	}
}

// WithKeysSlot 设置绑定链所在的存储槽下标，负数忽略。
func WithKeysSlot(index int) Option {
	return func(o *options) {
		if index >= 0 {
			o.keysSlot = index
		}
	}
}

// WithMaxKeys 限制同时存活的 key 数量（PTHREAD_KEYS_MAX），0 表示不限制。
// 达到上限时 CreateKey 返回 ENOMEM。
func WithMaxKeys(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxKeys = n
		}
	}
}

// WithMaxDestructorPasses 设置析构轮数上限，n <= 0 时忽略。
func WithMaxDestructorPasses(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPasses = n
		}
	}
}

// WithLogger 设置日志记录器，nil 时使用 xlog.Default()。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver 设置观测器，nil 忽略。
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}
