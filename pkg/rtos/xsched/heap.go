package xsched

import (
	"sync/atomic"

	"github.com/omeyang/xposix/pkg/posix/xerrno"
)

// 各类内核对象的计费大小（字节），与 32 位目标上的结构体大小同量级。
const (
	TaskSize  = 96
	MutexSize = 80
)

// Heap 堆配额。capacity 为 0 表示不限制。
// 只做计数，不实际分配内存。
type Heap struct {
	capacity int64
	used     atomic.Int64
	peak     atomic.Int64
}

// NewHeap 创建堆配额，capacity <= 0 表示不限制。
func NewHeap(capacity int64) *Heap {
	return &Heap{capacity: max(capacity, 0)}
}

// Alloc 申请 n 字节，超出容量返回 ENOMEM。
func (h *Heap) Alloc(n int64) error {
	if n <= 0 {
		return nil
	}
	for {
		cur := h.used.Load()
		next := cur + n
		if h.capacity > 0 && next > h.capacity {
			return xerrno.Wrap("heap_alloc", xerrno.ErrNoMem)
		}
		if h.used.CompareAndSwap(cur, next) {
			h.updatePeak(next)
			return nil
		}
	}
}

func (h *Heap) updatePeak(v int64) {
	for {
		p := h.peak.Load()
		if v <= p || h.peak.CompareAndSwap(p, v) {
			return
		}
	}
}

// Free 归还 n 字节。归还量超过已用量说明调用方重复释放，属于不变量破坏。
func (h *Heap) Free(n int64) {
	if n <= 0 {
		return
	}
	if h.used.Add(-n) < 0 {
		panic("xsched: heap free underflow")
	}
}

// Used 当前已用字节数
func (h *Heap) Used() int64 { return h.used.Load() }

// Peak 历史峰值
func (h *Heap) Peak() int64 { return h.peak.Load() }

// Capacity 容量，0 表示不限制
func (h *Heap) Capacity() int64 { return h.capacity }
