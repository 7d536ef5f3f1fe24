package xtsd

import "errors"

var (
	// ErrNilScheduler 调度器为 nil。
	ErrNilScheduler = errors.New("xtsd: nil scheduler")

	// ErrKeysSlot key 存储槽下标超出调度器的槽数量。
	ErrKeysSlot = errors.New("xtsd: keys slot out of range")

	// ErrDestructorLoop 析构轮数超过上限，仍有绑定值未被消费。
	ErrDestructorLoop = errors.New("xtsd: destructor passes exceeded")
)
