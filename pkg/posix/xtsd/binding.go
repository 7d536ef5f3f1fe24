package xtsd

import (
	"context"

	"github.com/omeyang/xposix/pkg/posix/xerrno"
	"github.com/omeyang/xposix/pkg/rtos/xsched"
)

type binding struct {
	key   Key
	value any
}

// chain 任务的绑定链，保存在任务存储槽中，只由所属任务访问。
// 每个 (task, key) 至多一个绑定。
type chain struct {
	bindings []*binding
}

func (c *chain) find(key Key) *binding {
	for _, b := range c.bindings {
		if b.key == key {
			return b
		}
	}
	return nil
}

func (r *Registry) chainOf(t *xsched.Task) *chain {
	c, _ := t.Slot(r.opts.keysSlot).(*chain)
	return c
}

// GetSpecific 返回调用任务在 key 上绑定的值。
// key 不存在、未绑定或 ctx 未携带任务时返回 nil。
func (r *Registry) GetSpecific(ctx context.Context, key Key) any {
	if _, ok := r.lookup(key); !ok {
		return nil
	}
	t, ok := xsched.TaskFromContext(ctx)
	if !ok {
		return nil
	}
	c := r.chainOf(t)
	if c == nil {
		return nil
	}
	if b := c.find(key); b != nil {
		return b.value
	}
	return nil
}

// SetSpecific 为调用任务在 key 上绑定 value。
//
// key 不存在或 ctx 未携带任务时返回 EINVAL；新建绑定时堆配额不足返回 ENOMEM。
// 已有绑定原地更新。
func (r *Registry) SetSpecific(ctx context.Context, key Key, value any) error {
	if _, ok := r.lookup(key); !ok {
		return xerrno.Wrap("setspecific", xerrno.ErrInvalid)
	}
	t, ok := xsched.TaskFromContext(ctx)
	if !ok {
		return xerrno.Wrap("setspecific", xerrno.ErrInvalid)
	}

	c := r.chainOf(t)
	if c != nil {
		if b := c.find(key); b != nil {
			b.value = value
			return nil
		}
	}

	if err := r.sched.Heap().Alloc(bindingSize); err != nil {
		return err
	}
	b := &binding{key: key, value: value}
	if c == nil {
		c = &chain{bindings: []*binding{b}}
		// keysSlot 已在 New 中校验
		_ = t.SetSlot(r.opts.keysSlot, c) //nolint:errcheck // 下标有效
		return nil
	}
	c.bindings = append(c.bindings, b)
	return nil
}
