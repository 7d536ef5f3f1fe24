package xrwlock

import (
	"context"

	"github.com/omeyang/xposix/pkg/rtos/xmutex"
	"github.com/omeyang/xposix/pkg/rtos/xsched"
)

//go:generate mockgen -source=mutex.go -destination=mock_mutex_test.go -package=xrwlock

// mutex 读写锁依赖的互斥量能力，与 xmutex.Mutex 方法一致。
type mutex interface {
	Take(ctx context.Context, owner xmutex.Owner) error
	TryTake(owner xmutex.Owner) error
	Give(owner xmutex.Owner) error
	Holder() xmutex.Owner
	Delete() error
}

var _ mutex = (*xmutex.Mutex)(nil)

// allocFunc 分配一个递归互斥量
type allocFunc func() (mutex, error)

func schedulerAlloc(s *xsched.Scheduler) allocFunc {
	return func() (mutex, error) {
		m, err := s.NewMutex(xmutex.Recursive)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// readerOwner 代表全体读者持有访问互斥量的身份
type readerOwner struct{}

var readers = &readerOwner{}
