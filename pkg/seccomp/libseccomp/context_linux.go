//go:build !(libseccomp && cgo)

package libseccomp

import (
	"syscall"

	libseccomp "github.com/elastic/go-seccomp-bpf"
	"golang.org/x/net/bpf"

	"github.com/zqzqsb/seccompbench/pkg/seccomp"
)

// Context 是一个尚未装载的过滤器：默认动作加上按系统调用号精确匹配的规则，
// 不做参数过滤。由 go-seccomp-bpf 编译为 BPF。
type Context struct {
	defaultAction Action
	// 按动作分组的系统调用名，顺序与 AddRule 的调用顺序一致
	groups   []ruleGroup
	released bool
}

type ruleGroup struct {
	action Action
	names  []string
}

// NewContext 创建过滤器上下文
func NewContext(defaultAction Action) (*Context, error) {
	if errInfo != nil {
		return nil, &SeccompError{Op: OpInit, Syscall: -1, Err: errInfo}
	}
	if !defaultAction.valid() {
		return nil, &SeccompError{Op: OpInit, Syscall: -1, Err: errInvalidAction}
	}
	return &Context{defaultAction: defaultAction}, nil
}

// AddRule 让系统调用号 nr 命中 action
func (c *Context) AddRule(nr int, action Action) error {
	if c.released {
		return &SeccompError{Op: OpAddRule, Syscall: nr, Err: errReleased}
	}
	if !action.valid() {
		return &SeccompError{Op: OpAddRule, Syscall: nr, Err: errInvalidAction}
	}
	name, ok := info.SyscallNumbers[nr]
	if !ok {
		return &SeccompError{Op: OpAddRule, Syscall: nr, Err: &NoSuchSyscallError{Number: nr}}
	}
	for i := range c.groups {
		if c.groups[i].action == action {
			c.groups[i].names = append(c.groups[i].names, name)
			return nil
		}
	}
	c.groups = append(c.groups, ruleGroup{action: action, names: []string{name}})
	return nil
}

// Build 编译为内核可读的过滤器
func (c *Context) Build() (seccomp.Filter, error) {
	if c.released {
		return nil, &SeccompError{Op: OpBuild, Syscall: -1, Err: errReleased}
	}
	policy := libseccomp.Policy{
		DefaultAction: ToSeccompAction(c.defaultAction),
	}
	for _, g := range c.groups {
		policy.Syscalls = append(policy.Syscalls, libseccomp.SyscallGroup{
			Action: ToSeccompAction(g.action),
			Names:  g.names,
		})
	}
	program, err := policy.Assemble()
	if err != nil {
		return nil, &SeccompError{Op: OpBuild, Syscall: -1, Err: err}
	}
	filter, err := ExportBPF(program)
	if err != nil {
		return nil, &SeccompError{Op: OpBuild, Syscall: -1, Err: err}
	}
	return filter, nil
}

// Release 释放上下文，之后不能再添加规则或编译
// 已经 Build 出来的 seccomp.Filter 不受影响
func (c *Context) Release() {
	c.released = true
	c.groups = nil
}

// ExportBPF 把 BPF 指令汇编为 seccomp.Filter
func ExportBPF(filter []bpf.Instruction) (seccomp.Filter, error) {
	raw, err := bpf.Assemble(filter)
	if err != nil {
		return nil, err
	}
	return sockFilter(raw), nil
}

func sockFilter(raw []bpf.RawInstruction) []syscall.SockFilter {
	filter := make([]syscall.SockFilter, 0, len(raw))
	for _, instruction := range raw {
		filter = append(filter, syscall.SockFilter{
			Code: instruction.Op,
			Jt:   instruction.Jt,
			Jf:   instruction.Jf,
			K:    instruction.K,
		})
	}
	return filter
}
