package xmutex

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/omeyang/xposix/pkg/posix/xerrno"
)

// Kind 互斥量类型
type Kind int

const (
	// Plain 普通互斥量，持有者重复获取返回 EDEADLK。
	Plain Kind = iota
	// Recursive 递归互斥量，持有者可重复获取，释放次数需与获取次数相同。
	Recursive
)

// String 返回 Kind 的可读名称
func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Recursive:
		return "recursive"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Owner 互斥量持有者身份。必须是可比较类型（通常是指针），否则比较时 panic。
type Owner = any

var (
	// ErrNotHolder 释放者不是当前持有者。
	ErrNotHolder = errors.New("xmutex: not the holder")

	// ErrDeleted 互斥量已删除。
	ErrDeleted = errors.New("xmutex: deleted")

	// ErrNilOwner 持有者为 nil。
	ErrNilOwner = errors.New("xmutex: nil owner")
)

// Mutex 带持有者身份的互斥量，所有方法并发安全。
// 必须通过 [New] 创建。
type Mutex struct {
	kind Kind
	// ch 容量为 1：发送成功 = 获取，接收 = 释放
	ch   chan struct{}
	done chan struct{}

	mu      sync.Mutex
	holder  Owner
	depth   int
	deleted bool

	release     func()
	releaseOnce sync.Once
}

// Option 互斥量配置选项
type Option func(*Mutex)

// WithReleaseFunc 设置 Delete 成功后调用一次的回调，用于归还分配配额。
func WithReleaseFunc(fn func()) Option {
	return func(m *Mutex) {
		m.release = fn
	}
}

// New 创建互斥量
func New(kind Kind, opts ...Option) *Mutex {
	m := &Mutex{
		kind: kind,
		ch:   make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Kind 返回互斥量类型
func (m *Mutex) Kind() Kind { return m.kind }

// Take 阻塞获取互斥量。
//
// 递归互斥量的持有者重复获取时深度加一并立即返回；普通互斥量返回 EDEADLK。
// ctx 取消时返回 ctx.Err()；等待期间互斥量被删除返回 [ErrDeleted]。
// ctx 不得为 nil，否则 panic。
func (m *Mutex) Take(ctx context.Context, owner Owner) error {
	if ctx == nil {
		panic("xmutex: nil Context")
	}
	if err := m.TryTake(owner); !errors.Is(err, xerrno.ErrBusy) {
		return err
	}
	// 慢路径：令牌先于持有者登记，其间 Delete 依据令牌判定为占用
	select {
	case m.ch <- struct{}{}:
		return m.grant(owner)
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrDeleted
	}
}

// TryTake 非阻塞获取，被其他持有者占用时返回 EBUSY。
// 令牌与持有者在同一把锁内登记，成功返回前 Holder 已可见。
func (m *Mutex) TryTake(owner Owner) error {
	if owner == nil {
		return ErrNilOwner
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if done, err := m.reenterLocked(owner); done {
		return err
	}
	select {
	case m.ch <- struct{}{}:
		m.holder = owner
		m.depth = 1
		return nil
	default:
		return xerrno.Wrap("mutex_trytake", xerrno.ErrBusy)
	}
}

// reenterLocked 处理已删除和持有者重入两种无需等待的情况，调用方持有 m.mu。
func (m *Mutex) reenterLocked(owner Owner) (bool, error) {
	if m.deleted {
		return true, ErrDeleted
	}
	if m.holder == nil || m.holder != owner {
		return false, nil
	}
	if m.kind != Recursive {
		return true, xerrno.Wrap("mutex_take", xerrno.ErrDeadlock)
	}
	m.depth++
	return true, nil
}

func (m *Mutex) grant(owner Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleted {
		<-m.ch
		return ErrDeleted
	}
	m.holder = owner
	m.depth = 1
	return nil
}

// Give 释放互斥量。递归互斥量在深度归零时才真正释放。
// owner 不是当前持有者时返回 [ErrNotHolder]。
func (m *Mutex) Give(owner Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleted {
		return ErrDeleted
	}
	if m.holder == nil || m.holder != owner {
		return ErrNotHolder
	}
	m.depth--
	if m.depth == 0 {
		m.holder = nil
		<-m.ch
	}
	return nil
}

// Holder 返回当前持有者，空闲时返回 nil。
func (m *Mutex) Holder() Owner {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holder
}

// Depth 返回当前持有深度，空闲时为 0。
func (m *Mutex) Depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.depth
}

// Delete 删除互斥量并唤醒所有等待者（返回 [ErrDeleted]）。
// 仍被持有时返回 EBUSY，包括令牌已被取走、持有者尚未登记的获取途中；
// 重复删除返回 [ErrDeleted]。
func (m *Mutex) Delete() error {
	m.mu.Lock()
	if m.deleted {
		m.mu.Unlock()
		return ErrDeleted
	}
	if m.holder != nil || len(m.ch) > 0 {
		m.mu.Unlock()
		return xerrno.Wrap("mutex_delete", xerrno.ErrBusy)
	}
	m.deleted = true
	close(m.done)
	m.mu.Unlock()

	if m.release != nil {
		m.releaseOnce.Do(m.release)
	}
	return nil
}
