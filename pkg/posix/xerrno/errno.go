package xerrno

import (
	"errors"
	"strconv"
)

// Error 表示带 errno 的 POSIX 错误。
type Error struct {
	// Op 出错的操作名，可为空。
	Op string
	// Code 对应的 errno 值。
	Code Errno
	msg  string
}

// 哨兵错误。
var (
	// ErrInvalid 对应 EINVAL。
	ErrInvalid = &Error{Code: codeInvalid, msg: "invalid argument"}

	// ErrNoMem 对应 ENOMEM。
	ErrNoMem = &Error{Code: codeNoMem, msg: "out of memory"}

	// ErrBusy 对应 EBUSY。
	ErrBusy = &Error{Code: codeBusy, msg: "resource busy"}

	// ErrDeadlock 对应 EDEADLK。
	ErrDeadlock = &Error{Code: codeDeadlock, msg: "resource deadlock would occur"}
)

func (e *Error) Error() string {
	if e.Op == "" {
		return "xerrno: " + e.msg
	}
	return "xerrno: " + e.Op + ": " + e.msg
}

// Is 按 errno 比较，使 Wrap 出来的错误与哨兵相等。
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Wrap 返回附加了操作名的错误副本。
// sentinel 为 nil 时返回 nil。
func Wrap(op string, sentinel *Error) error {
	if sentinel == nil {
		return nil
	}
	return &Error{Op: op, Code: sentinel.Code, msg: sentinel.msg}
}

// Code 返回 err 链上第一个 *Error 的 errno。
// err 为 nil 或不含 *Error 时返回 0。
func Code(err error) Errno {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// IsBusy 报告 err 是否为 EBUSY。
func IsBusy(err error) bool { return errors.Is(err, ErrBusy) }

// Name 返回 errno 的符号名，未知值返回 "Errno(n)"。
func Name(n Errno) string {
	switch n {
	case 0:
		return "OK"
	case codeInvalid:
		return "EINVAL"
	case codeNoMem:
		return "ENOMEM"
	case codeBusy:
		return "EBUSY"
	case codeDeadlock:
		return "EDEADLK"
	default:
		return "Errno(" + strconv.Itoa(int(n)) + ")"
	}
}
