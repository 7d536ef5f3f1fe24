package xtsd

import (
	"context"
	"math"

	"github.com/launix-de/NonLockingReadMap"

	"github.com/omeyang/xposix/pkg/observability/xlog"
	"github.com/omeyang/xposix/pkg/observability/xmetrics"
	"github.com/omeyang/xposix/pkg/posix/xerrno"
	"github.com/omeyang/xposix/pkg/rtos/xsched"
)

// Key 线程私有数据 key 标识，进程生命周期内单调分配、不复用。
type Key uint32

// InvalidKey 无效 key，分配从 1 开始。
const InvalidKey Key = 0

// Destructor 析构函数。ctx 绑定退出中的任务，可在其中调用 SetSpecific。
type Destructor func(ctx context.Context, value any)

// 计费大小（字节）
const (
	entrySize   = 16
	bindingSize = 16
)

// entry 注册表条目，链入后不可变。
type entry struct {
	key  Key
	dtor Destructor
}

func (e entry) GetKey() Key       { return e.key }
func (e entry) ComputeSize() uint { return entrySize }

// Registry 进程级 key 注册表。所有方法并发安全。
type Registry struct {
	sched    *xsched.Scheduler
	opts     options
	logger   xlog.Logger
	observer xmetrics.Observer

	entries NonLockingReadMap.NonLockingReadMap[entry, Key]

	// 以下字段只在调度器临界区内访问
	nextID Key
	live   int
}

// New 创建注册表。keys 存储槽必须小于调度器的槽数量。
func New(s *xsched.Scheduler, opts ...Option) (*Registry, error) {
	if s == nil {
		return nil, ErrNilScheduler
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.keysSlot >= s.NumSlots() {
		return nil, ErrKeysSlot
	}
	logger := o.logger
	if logger == nil {
		logger = xlog.Default()
	}
	return &Registry{
		sched:    s,
		opts:     o,
		logger:   logger.With(xlog.Component("xtsd")),
		observer: o.observer,
		entries:  NonLockingReadMap.New[entry, Key](),
	}, nil
}

// CreateKey 创建 key。dtor 可为 nil。
//
// 堆配额不足、达到 [WithMaxKeys] 上限或标识空间耗尽时返回 ENOMEM。
// 标识分配与条目链入在同一个全局临界区内完成。
func (r *Registry) CreateKey(dtor Destructor) (Key, error) {
	heap := r.sched.Heap()
	if err := heap.Alloc(entrySize); err != nil {
		return InvalidKey, err
	}

	var key Key
	r.sched.Critical(context.Background(), func(context.Context) {
		if r.opts.maxKeys > 0 && r.live >= r.opts.maxKeys {
			return
		}
		if r.nextID == math.MaxUint32 {
			return
		}
		r.nextID++
		key = r.nextID
		r.entries.Set(&entry{key: key, dtor: dtor})
		r.live++
	})
	if key == InvalidKey {
		heap.Free(entrySize)
		return InvalidKey, xerrno.Wrap("key_create", xerrno.ErrNoMem)
	}
	return key, nil
}

// DeleteKey 删除 key，不存在时返回 EINVAL。已有绑定不受影响，成为孤儿绑定。
func (r *Registry) DeleteKey(key Key) error {
	var removed bool
	r.sched.Critical(context.Background(), func(context.Context) {
		if r.entries.Remove(key) != nil {
			removed = true
			r.live--
		}
	})
	if !removed {
		return xerrno.Wrap("key_delete", xerrno.ErrInvalid)
	}
	r.sched.Heap().Free(entrySize)
	return nil
}

// lookup 无锁查找。可能观察到刚删除的条目，调用方需容忍。
func (r *Registry) lookup(key Key) (entry, bool) {
	e := r.entries.Get(key)
	if e == nil {
		return entry{}, false
	}
	return *e, true
}

// Len 返回存活 key 数量
func (r *Registry) Len() int {
	return len(r.entries.GetAll())
}

// Keys 返回存活 key 快照，升序。
func (r *Registry) Keys() []Key {
	all := r.entries.GetAll()
	keys := make([]Key, 0, len(all))
	for _, e := range all {
		keys = append(keys, e.key)
	}
	return keys
}
