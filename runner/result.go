package runner

import (
	"fmt"
	"time"
)

// TraceStats 是 ptrace 跟踪循环的计数
// 每个系统调用产生一次入口停止和一次出口停止；
// 进程最后一个系统调用（exit_group 或被判定为禁止的调用）没有出口停止
type TraceStats struct {
	Stops     int // 系统调用停止总数，等于 Entries + Exits
	Entries   int
	Exits     int
	Decisions int // 只在入口停止上做判定
	Signals   int // 转发给子进程的信号
}

// Result 是一次运行的结果
type Result struct {
	Status
	// ExitStatus 是退出码；被信号终止时是信号编号
	ExitStatus int
	// Syscall 是跟踪器判定为禁止的系统调用号，其他情况下为 -1
	Syscall int
	// Error 只在 StatusRunnerError 时设置
	Error error

	// Elapsed 从 fork 到观察到子进程结束
	Elapsed time.Duration
	// SetUpTime 从 fork 到 execve 完成，RunningTime 从 execve 到结束
	SetUpTime   time.Duration
	RunningTime time.Duration

	Trace TraceStats
}

func (r Result) String() string {
	switch r.Status {
	case StatusNormal:
		return fmt.Sprintf("Result[%v][%v %v]", r.Elapsed, r.SetUpTime, r.RunningTime)

	case StatusSignalled:
		return fmt.Sprintf("Result[Signalled(%d)][%v][%v %v]", r.ExitStatus, r.Elapsed, r.SetUpTime, r.RunningTime)

	case StatusDisallowedSyscall:
		return fmt.Sprintf("Result[DisallowedSyscall(%d %d)][%v][%v %v]", r.Syscall, r.ExitStatus, r.Elapsed, r.SetUpTime, r.RunningTime)

	case StatusRunnerError:
		return fmt.Sprintf("Result[RunnerFailed(%v)][%v][%v %v]", r.Error, r.Elapsed, r.SetUpTime, r.RunningTime)

	default:
		return fmt.Sprintf("Result[%v(%d)][%v][%v %v]", r.Status, r.ExitStatus, r.Elapsed, r.SetUpTime, r.RunningTime)
	}
}
