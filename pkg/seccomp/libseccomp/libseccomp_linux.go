//go:build libseccomp && cgo

package libseccomp

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"syscall"

	sg "github.com/seccomp/libseccomp-golang"

	"github.com/zqzqsb/seccompbench/pkg/seccomp"
)

// 使用 -tags libseccomp 编译时，名称解析和过滤器编译都交给系统的 libseccomp

// ToSyscallName 系统调用号转名称
func ToSyscallName(sysno uint) (string, error) {
	n, err := sg.ScmpSyscall(sysno).GetName()
	if err != nil {
		return "", &NoSuchSyscallError{Number: int(sysno)}
	}
	return n, nil
}

// ToSyscallNo 名称转系统调用号
func ToSyscallNo(name string) (int, error) {
	n, err := sg.GetSyscallFromName(name)
	if err != nil {
		return 0, &NoSuchSyscallError{Name: name, Number: -1}
	}
	return int(n), nil
}

// Context 包装 libseccomp 的 scmp_filter_ctx
type Context struct {
	filter *sg.ScmpFilter
}

// NewContext 创建过滤器上下文
func NewContext(defaultAction Action) (*Context, error) {
	if !defaultAction.valid() {
		return nil, &SeccompError{Op: OpInit, Syscall: -1, Err: errInvalidAction}
	}
	filter, err := sg.NewFilter(toScmpAction(defaultAction))
	if err != nil {
		return nil, &SeccompError{Op: OpInit, Syscall: -1, Err: err}
	}
	return &Context{filter: filter}, nil
}

// AddRule 让系统调用号 nr 命中 action
func (c *Context) AddRule(nr int, action Action) error {
	if c.filter == nil {
		return &SeccompError{Op: OpAddRule, Syscall: nr, Err: errReleased}
	}
	if !action.valid() {
		return &SeccompError{Op: OpAddRule, Syscall: nr, Err: errInvalidAction}
	}
	if err := c.filter.AddRule(sg.ScmpSyscall(nr), toScmpAction(action)); err != nil {
		return &SeccompError{Op: OpAddRule, Syscall: nr, Err: err}
	}
	return nil
}

// Build 通过 seccomp_export_bpf 导出过滤器
func (c *Context) Build() (seccomp.Filter, error) {
	if c.filter == nil {
		return nil, &SeccompError{Op: OpBuild, Syscall: -1, Err: errReleased}
	}
	filter, err := exportBPF(c.filter)
	if err != nil {
		return nil, &SeccompError{Op: OpBuild, Syscall: -1, Err: err}
	}
	return filter, nil
}

// Release 释放 libseccomp 上下文
func (c *Context) Release() {
	if c.filter != nil {
		c.filter.Release()
		c.filter = nil
	}
}

func toScmpAction(a Action) sg.ScmpAction {
	if a == ActionAllow {
		return sg.ActAllow
	}
	return sg.ActKillProcess
}

func exportBPF(f *sg.ScmpFilter) (seccomp.Filter, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	type result struct {
		b   []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		b, err := io.ReadAll(r)
		done <- result{b, err}
	}()

	err = f.ExportBPF(w)
	w.Close()
	res := <-done
	if err != nil {
		return nil, err
	}
	if res.err != nil {
		return nil, res.err
	}

	filter := make([]syscall.SockFilter, len(res.b)/8)
	if err := binary.Read(bytes.NewReader(res.b), binary.NativeEndian, &filter); err != nil {
		return nil, err
	}
	return filter, nil
}
