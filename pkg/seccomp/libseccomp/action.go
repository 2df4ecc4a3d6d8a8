package libseccomp

import "github.com/zqzqsb/seccompbench/pkg/seccomp"

// Action 与 seccomp.Action 的编码相同
type Action uint32

const (
	ActionAllow Action = iota + 1
	ActionKill
)

func (a Action) valid() bool {
	return a == ActionAllow || a == ActionKill
}

func (a Action) String() string {
	return seccomp.Action(a).String()
}
