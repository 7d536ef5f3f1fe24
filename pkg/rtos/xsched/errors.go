package xsched

import "errors"

var (
	// ErrNilFunc 任务函数为 nil。
	ErrNilFunc = errors.New("xsched: nil task func")

	// ErrTaskExited 任务已退出。
	ErrTaskExited = errors.New("xsched: task already exited")

	// ErrSlotIndex 存储槽下标越界。
	ErrSlotIndex = errors.New("xsched: slot index out of range")

	// ErrTaskPanic 任务函数 panic。
	ErrTaskPanic = errors.New("xsched: task panicked")
)
