package libseccomp

import (
	"errors"
	"fmt"
)

// 过滤器上下文的操作名，出现在 SeccompError.Op
const (
	OpInit    = "init"
	OpAddRule = "add rule"
	OpBuild   = "build"
	OpLoad    = "load"
)

var (
	errInvalidAction = errors.New("invalid action")
	errReleased      = errors.New("filter context already released")
)

// NoSuchSyscallError 表示当前架构上不存在该系统调用
type NoSuchSyscallError struct {
	Name   string
	Number int
}

func (e *NoSuchSyscallError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("no such syscall %q", e.Name)
	}
	return fmt.Sprintf("no such syscall number %d", e.Number)
}

// SeccompError 是过滤器上下文在创建、加规则、编译、装载时的错误
type SeccompError struct {
	Op string
	// Syscall 小于 0 表示与具体的系统调用无关
	Syscall int
	Err     error
}

func (e *SeccompError) Error() string {
	if e.Syscall >= 0 {
		return fmt.Sprintf("seccomp %s for syscall %d: %v", e.Op, e.Syscall, e.Err)
	}
	return fmt.Sprintf("seccomp %s: %v", e.Op, e.Err)
}

func (e *SeccompError) Unwrap() error {
	return e.Err
}
