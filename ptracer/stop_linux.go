package ptracer

import (
	"golang.org/x/sys/unix"

	"github.com/zqzqsb/seccompbench/runner"
)

// stopKind 是一次 ptrace 停止的原因
type stopKind int

const (
	// stopSyscall 系统调用入口或出口（需要 PTRACE_O_TRACESYSGOOD）
	stopSyscall stopKind = iota + 1
	// stopEvent 是 PTRACE_EVENT_* 停止，例如 clone
	stopEvent
	// stopTrap 是没有事件的 SIGTRAP，execve 之后的第一次停止就是这种
	stopTrap
	// stopSignal 是信号投递停止，需要把信号转发回去
	stopSignal
)

// syscallStopSignal 是 TRACESYSGOOD 下系统调用停止报告的信号
const syscallStopSignal = unix.SIGTRAP | 0x80

func (k stopKind) String() string {
	switch k {
	case stopSyscall:
		return "syscall"
	case stopEvent:
		return "event"
	case stopTrap:
		return "trap"
	case stopSignal:
		return "signal"
	default:
		return "unknown"
	}
}

// classifyStop 区分停止原因
// 只有 stopSyscall 会翻转入口/出口状态，交错到来的信号不会打乱它
func classifyStop(ws unix.WaitStatus) (stopKind, unix.Signal) {
	sig := ws.StopSignal()
	switch {
	case sig == syscallStopSignal:
		return stopSyscall, sig
	case sig == unix.SIGTRAP && ws.TrapCause() > 0:
		return stopEvent, sig
	case sig == unix.SIGTRAP:
		return stopTrap, sig
	default:
		return stopSignal, sig
	}
}

// syscallTracker 按线程记录当前处于系统调用入口还是出口
type syscallTracker struct {
	inSyscall map[int]bool
	stats     runner.TraceStats
}

func newSyscallTracker() syscallTracker {
	return syscallTracker{inSyscall: make(map[int]bool)}
}

// onSyscallStop 返回 true 表示这是一次入口停止
func (s *syscallTracker) onSyscallStop(pid int) bool {
	s.stats.Stops++
	if s.inSyscall[pid] {
		s.inSyscall[pid] = false
		s.stats.Exits++
		return false
	}
	s.inSyscall[pid] = true
	s.stats.Entries++
	return true
}

// forget 在线程退出后丢弃它的状态
func (s *syscallTracker) forget(pid int) {
	delete(s.inSyscall, pid)
}
