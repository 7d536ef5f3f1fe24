//go:build unix

package xerrno

import "golang.org/x/sys/unix"

// Errno 是平台 errno 值。
type Errno = unix.Errno

const (
	codeInvalid  = unix.EINVAL
	codeNoMem    = unix.ENOMEM
	codeBusy     = unix.EBUSY
	codeDeadlock = unix.EDEADLK
)
