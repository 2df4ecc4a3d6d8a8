// Package ptrace 在 ptrace 跟踪循环下运行子进程，
// 子进程调用禁止的系统调用时由跟踪器杀死
package ptrace

import (
	"cdr.dev/slog"

	"github.com/zqzqsb/seccompbench/disallow"
	"github.com/zqzqsb/seccompbench/pkg/rlimit"
)

// Runner 定义了在 ptrace 下运行程序的参数
type Runner struct {
	// Args 和 Env 传给 execve，Args[0] 是可执行文件
	Args []string
	Env  []string

	// WorkDir 为空时继承当前工作目录
	WorkDir string

	// Files 是子进程的 fd 表，通常是 stdin/stdout/stderr
	Files []uintptr

	RLimits []rlimit.RLimit

	// Disallowed 中的系统调用在入口处被判定为 TraceKill
	Disallowed disallow.Set

	Logger slog.Logger

	// ShowDetails 打开每次停止的调试输出，会显著拖慢跟踪
	ShowDetails bool
}
