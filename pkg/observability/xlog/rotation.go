package xlog

import (
	"errors"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 轮转默认值
const (
	DefaultRotateMaxSizeMB  = 100
	DefaultRotateMaxBackups = 7
	DefaultRotateMaxAgeDays = 30
)

// ErrEmptyFilename 轮转文件名为空
var ErrEmptyFilename = errors.New("xlog: empty rotation filename")

// RotateOption 文件轮转配置选项
type RotateOption func(*lumberjack.Logger)

// RotateMaxSizeMB 设置单个日志文件最大大小（MB），<= 0 时忽略。
func RotateMaxSizeMB(mb int) RotateOption {
	return func(l *lumberjack.Logger) {
		if mb > 0 {
			l.MaxSize = mb
		}
	}
}

// RotateMaxBackups 设置保留的备份文件数量，0 表示不限制。
func RotateMaxBackups(n int) RotateOption {
	return func(l *lumberjack.Logger) {
		if n >= 0 {
			l.MaxBackups = n
		}
	}
}

// RotateCompress 设置是否 gzip 压缩备份文件
func RotateCompress(compress bool) RotateOption {
	return func(l *lumberjack.Logger) {
		l.Compress = compress
	}
}

func newRotator(filename string, opts ...RotateOption) (*lumberjack.Logger, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	l := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    DefaultRotateMaxSizeMB,
		MaxBackups: DefaultRotateMaxBackups,
		MaxAge:     DefaultRotateMaxAgeDays,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}
