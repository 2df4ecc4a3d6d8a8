//go:build linux

// Package ptracer 用 PTRACE_SYSCALL 在每个系统调用的入口和出口停下被跟踪进程，
// 在入口处读取系统调用号并交给 Handler 判定
package ptracer

// TraceAction 是 Handler 对一次系统调用入口的判定
type TraceAction int

const (
	// TraceAllow 放行
	TraceAllow TraceAction = iota
	// TraceKill 杀死整个被跟踪进程
	TraceKill
)

// Tracer 定义了一个 ptracer 实例
type Tracer struct {
	Handler
	Runner
}

// Runner 启动子进程并返回 pid
// 子进程必须已经调用 PTRACE_TRACEME，并在 execve 之后因 SIGTRAP 停下
type Runner interface {
	Start() (int, error)

	// ExecError 返回子进程在 execve 之前报告的错误，没有时返回 nil
	// 只在子进程未能 execve 就退出之后调用
	ExecError() error
}

// Handler 定义了跟踪系统调用的自定义处理器
type Handler interface {
	// Handle 在系统调用入口被调用，出口不会调用
	Handle(*Context) TraceAction

	// Debug 输出调试信息
	Debug(v ...interface{})
}
