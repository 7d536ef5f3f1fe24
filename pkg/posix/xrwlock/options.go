package xrwlock

import (
	"math"

	"github.com/omeyang/xposix/pkg/observability/xmetrics"
)

// DefaultMaxReaders 默认读者数上限
const DefaultMaxReaders uint32 = math.MaxUint32 - 1

// Option 读写锁配置选项
type Option func(*options)

type options struct {
	maxReaders uint32
	observer   xmetrics.Observer
	alloc      allocFunc
}

func defaultOptions() options {
	return options{
		maxReaders: DefaultMaxReaders,
		observer:   xmetrics.NoopObserver{},
	}
}

// WithMaxReaders 设置同时持有读锁的读者数上限，达到上限时 RdLock 返回 EBUSY。0 忽略。
func WithMaxReaders(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.maxReaders = n
		}
	}
}

// WithObserver 设置观测器，记录 rdlock/wrlock 的等待耗时。nil 忽略。
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// withAlloc 替换互斥量分配函数（测试用）
func withAlloc(fn allocFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.alloc = fn
		}
	}
}
