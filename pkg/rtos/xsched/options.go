package xsched

import "github.com/omeyang/xposix/pkg/observability/xlog"

// DefaultNumSlots 默认每个任务的存储槽数量，对应 configNUM_THREAD_LOCAL_STORAGE_POINTERS。
const DefaultNumSlots = 5

// Option 调度器配置选项
type Option func(*options)

type options struct {
	numSlots int
	heapSize int64
	logger   xlog.Logger
}

func defaultOptions() options {
	return options{
		numSlots: DefaultNumSlots,
	}
}

// WithNumSlots 设置每个任务的存储槽数量，n <= 0 时忽略。
func WithNumSlots(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.numSlots = n
		}
	}
}

// WithHeapSize 设置堆配额（字节），0 表示不限制。
func WithHeapSize(bytes int64) Option {
	return func(o *options) {
		o.heapSize = bytes
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
