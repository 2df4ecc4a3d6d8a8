package forkexec

import (
	"fmt"
	"syscall"
)

// ErrorLocation 标记子进程在哪一步失败
type ErrorLocation int

// ChildError 由子进程通过同步 socket 写回父进程
type ChildError struct {
	Err      syscall.Errno
	Location ErrorLocation
	Index    int // rlimit 序号
}

// 按子进程执行顺序排列
const (
	LocClone ErrorLocation = iota + 1
	LocCloseWrite
	LocDup3
	LocFcntl
	LocSetSid
	LocChdir
	LocSetRlimit
	LocSetNoNewPrivs
	LocSeccomp
	LocSyncWrite
	LocSyncRead
	LocPtraceMe
	LocExecve
)

var locToString = []string{
	"unknown",
	"clone",
	"close_write",
	"dup3",
	"fcntl",
	"setsid",
	"chdir",
	"setrlimit",
	"set_no_new_privs",
	"seccomp",
	"sync_write",
	"sync_read",
	"ptrace_me",
	"execve",
}

func (e ErrorLocation) String() string {
	if e >= LocClone && e <= LocExecve {
		return locToString[e]
	}
	return "unknown"
}

// Error 形如 "seccomp: invalid argument" 或 "setrlimit(1): operation not permitted"
func (e ChildError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("%s(%d): %s", e.Location.String(), e.Index, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Location.String(), e.Err.Error())
}

// Unwrap 使 errors.Is(err, syscall.EPERM) 之类的判断可以穿透 ChildError
func (e ChildError) Unwrap() error {
	return e.Err
}
