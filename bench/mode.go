// Package bench 在同一个工作负载上分别运行 seccomp 和 ptrace 两种拦截方式并计时
package bench

import (
	"strings"

	"golang.org/x/xerrors"
)

// Mode 是运行方式
type Mode string

const (
	// ModeSeccomp 在 seccomp 过滤器下运行工作负载
	ModeSeccomp Mode = "seccomp"
	// ModePtrace 在 ptrace 跟踪循环下运行工作负载
	ModePtrace Mode = "ptrace"
	// ModePayload 直接运行工作负载，由前两种方式的子进程使用
	ModePayload Mode = "payload"
)

// Modes 是所有合法的模式名
var Modes = []Mode{ModeSeccomp, ModePtrace, ModePayload}

// ParseMode 解析模式名，大小写敏感
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return "", xerrors.Errorf("invalid mode %q, must be one of: %s", s, strings.Join(names, ", "))
}

func (m Mode) String() string {
	return string(m)
}
