package bench

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/zqzqsb/seccompbench/runner"
)

// Report 是一次基准运行的结果
type Report struct {
	Mode   Mode
	RunID  string
	Result runner.Result
	// SyscallName 是跟踪器杀死子进程时的系统调用名
	SyscallName string
}

// String 返回固定格式的输出，每行一条：
//
//	child exited with exit code 0
//	child aborted by signal SIGSYS
//	child called disallowed syscall: 41 (socket)
//	benchmark finished within 12.345 ms.
func (r *Report) String() string {
	var b strings.Builder
	res := r.Result
	switch res.Status {
	case runner.StatusNormal, runner.StatusNonzeroExitStatus:
		fmt.Fprintf(&b, "child exited with exit code %d\n", res.ExitStatus)
	case runner.StatusDisallowedSyscall:
		if res.Syscall >= 0 {
			fmt.Fprintf(&b, "child called disallowed syscall: %d", res.Syscall)
			if r.SyscallName != "" {
				fmt.Fprintf(&b, " (%s)", r.SyscallName)
			}
			b.WriteByte('\n')
			break
		}
		fmt.Fprintf(&b, "child aborted by signal %s\n", signalName(res.ExitStatus))
	case runner.StatusSignalled:
		fmt.Fprintf(&b, "child aborted by signal %s\n", signalName(res.ExitStatus))
	}
	// 精确到微秒，不足 1ms 的运行不会显示为 0
	fmt.Fprintf(&b, "benchmark finished within %.3f ms.\n", float64(res.Elapsed)/float64(time.Millisecond))
	return b.String()
}

// Killed 报告子进程是否因为禁止的系统调用而结束
func (r *Report) Killed() bool {
	return r.Result.Status == runner.StatusDisallowedSyscall
}

func signalName(sig int) string {
	if n := unix.SignalName(unix.Signal(sig)); n != "" {
		return n
	}
	return fmt.Sprintf("signal %d", sig)
}
