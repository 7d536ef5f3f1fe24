//go:build !unix

package xerrno

import "syscall"

// Errno 是平台 errno 值。
type Errno = syscall.Errno

// 非 unix 平台没有 x/sys/unix，退回 syscall 中同名常量。
const (
	codeInvalid  = syscall.EINVAL
	codeNoMem    = syscall.ENOMEM
	codeBusy     = syscall.EBUSY
	codeDeadlock = syscall.EDEADLK
)
