package forkexec

import (
	"syscall"

	"github.com/zqzqsb/seccompbench/pkg/rlimit"
)

// Runner 描述一次 fork + execve 的全部参数
// 子进程要么在 execve 之前装载 seccomp 过滤器，要么请求被父进程 ptrace 跟踪
type Runner struct {
	// Args 和 Env 直接传给 execve
	// Args[0] 是可执行文件路径
	Args []string
	Env  []string

	// RLimits 在子进程中通过 prlimit64 设置
	RLimits []rlimit.RLimit

	// Files 定义子进程的文件描述符表，下标即目标 fd
	// -1 表示在子进程中关闭该 fd
	Files []uintptr

	// WorkDir 为空时继承父进程的工作目录
	WorkDir string

	// Seccomp 是已经编译好的过滤器程序
	// 必须在父进程 fork 之前准备好，子进程里只做一次 seccomp(2) 调用
	Seccomp *syscall.SockFprog

	// Ptrace 表示子进程在 execve 之前调用 ptrace(PTRACE_TRACEME)
	// 调用 Start 的 goroutine 必须先 runtime.LockOSThread
	Ptrace bool

	// NoNewPrivs 设置 PR_SET_NO_NEW_PRIVS，提供 Seccomp 时总是开启
	NoNewPrivs bool

	execDone <-chan struct{}
	execErr  error
}
