package xconf

import (
	"errors"
	"fmt"

	"github.com/docker/go-units"

	"github.com/omeyang/xposix/pkg/observability/xlog"
)

// Settings 运行参数
type Settings struct {
	Scheduler SchedulerSettings `koanf:"scheduler" json:"scheduler"`
	Keys      KeySettings       `koanf:"keys" json:"keys"`
	RWLock    RWLockSettings    `koanf:"rwlock" json:"rwlock"`
	Log       LogSettings       `koanf:"log" json:"log"`
}

// SchedulerSettings 调度器参数
type SchedulerSettings struct {
	Slots     int   `koanf:"slots" json:"slots"`
	HeapBytes int64 `koanf:"heap_bytes" json:"heap_bytes"`
	// Heap 可读的堆容量，如 "64KiB"、"1MB"；非空时优先于 HeapBytes。
	Heap string `koanf:"heap" json:"heap"`
}

// HeapLimit 返回生效的堆容量（字节），0 表示不限制。
func (s SchedulerSettings) HeapLimit() (int64, error) {
	if s.Heap == "" {
		return s.HeapBytes, nil
	}
	n, err := units.RAMInBytes(s.Heap)
	if err != nil {
		return 0, fmt.Errorf("scheduler.heap: %w", err)
	}
	return n, nil
}

// KeySettings 线程私有数据参数
type KeySettings struct {
	Slot             int `koanf:"slot" json:"slot"`
	Max              int `koanf:"max" json:"max"`
	DestructorPasses int `koanf:"destructor_passes" json:"destructor_passes"`
}

// RWLockSettings 读写锁参数
type RWLockSettings struct {
	MaxReaders uint32 `koanf:"max_readers" json:"max_readers"`
}

// LogSettings 日志参数
type LogSettings struct {
	Level      string `koanf:"level" json:"level"`
	Format     string `koanf:"format" json:"format"`
	File       string `koanf:"file" json:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups" json:"max_backups"`
}

// Defaults 返回默认参数
func Defaults() Settings {
	return Settings{
		Scheduler: SchedulerSettings{Slots: 5},
		Keys:      KeySettings{Slot: 1, DestructorPasses: 4},
		Log:       LogSettings{Level: "info", Format: "text", MaxSizeMB: 100},
	}
}

// Validate 校验参数，返回的错误包含全部不合法项并匹配 [ErrInvalidSettings]。
func (s Settings) Validate() error {
	var errs []error
	if s.Scheduler.Slots <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.slots must be positive, got %d", s.Scheduler.Slots))
	}
	if s.Scheduler.HeapBytes < 0 {
		errs = append(errs, fmt.Errorf("scheduler.heap_bytes must not be negative, got %d", s.Scheduler.HeapBytes))
	}
	if n, err := s.Scheduler.HeapLimit(); err != nil {
		errs = append(errs, err)
	} else if n < 0 {
		errs = append(errs, fmt.Errorf("scheduler.heap must not be negative, got %q", s.Scheduler.Heap))
	}
	if s.Keys.Slot < 0 || s.Keys.Slot >= s.Scheduler.Slots {
		errs = append(errs, fmt.Errorf("keys.slot %d out of range [0, %d)", s.Keys.Slot, s.Scheduler.Slots))
	}
	if s.Keys.Max < 0 {
		errs = append(errs, fmt.Errorf("keys.max must not be negative, got %d", s.Keys.Max))
	}
	if s.Keys.DestructorPasses <= 0 {
		errs = append(errs, fmt.Errorf("keys.destructor_passes must be positive, got %d", s.Keys.DestructorPasses))
	}
	if _, err := xlog.ParseLevel(s.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch s.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", s.Log.Format))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
}
