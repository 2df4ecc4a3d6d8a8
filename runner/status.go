package runner

// Status 是子进程结束的方式
type Status int

const (
	StatusInvalid Status = iota // 0 未初始化

	StatusNormal            // 1 正常退出，退出码为 0
	StatusNonzeroExitStatus // 2 退出码非 0

	StatusSignalled         // 3 被信号终止
	StatusDisallowedSyscall // 4 调用了被禁止的系统调用（seccomp 的 SIGSYS 或跟踪器 SIGKILL）

	StatusRunnerError // 5 启动或跟踪子进程失败
)

var statusString = []string{
	"invalid",
	"normal",
	"nonzero exit status",
	"signalled",
	"disallowed syscall",
	"runner error",
}

func (t Status) String() string {
	i := int(t)
	if i >= 0 && i < len(statusString) {
		return statusString[i]
	}
	return statusString[0]
}

func (t Status) Error() string {
	return t.String()
}
