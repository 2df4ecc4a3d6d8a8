// Package seccomp 在 seccomp 过滤器下运行子进程，
// 禁止的系统调用由内核直接杀死整个进程（SIGSYS）
package seccomp

import (
	"cdr.dev/slog"

	"github.com/zqzqsb/seccompbench/pkg/rlimit"
	"github.com/zqzqsb/seccompbench/pkg/seccomp"
)

// Runner 定义了在 seccomp 过滤器下运行程序的参数
type Runner struct {
	Args []string
	Env  []string

	// WorkDir 为空时继承当前工作目录
	WorkDir string

	Files   []uintptr
	RLimits []rlimit.RLimit

	// Seccomp 在 fork 之前编译好，子进程在 execve 之前装载
	Seccomp seccomp.Filter

	Logger slog.Logger
}
