package ptracer

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// NT_PRSTATUS 是 PTRACE_GETREGSET 读取通用寄存器的 regset
const NT_PRSTATUS = 1

// Context 是一次系统调用入口停止时的寄存器快照
type Context struct {
	// Pid 是停下的线程 id
	Pid  int
	regs syscall.PtraceRegs
}

func getTrapContext(pid int) (*Context, error) {
	var regs syscall.PtraceRegs
	if err := ptraceGetRegSet(pid, &regs); err != nil {
		return nil, err
	}
	return &Context{
		Pid:  pid,
		regs: regs,
	}, nil
}

// Args 返回系统调用的 6 个参数寄存器
func (c *Context) Args() [6]uint {
	return [6]uint{c.Arg0(), c.Arg1(), c.Arg2(), c.Arg3(), c.Arg4(), c.Arg5()}
}

// ptraceGetRegSet 通过 PTRACE_GETREGSET 读取寄存器
// arm64 不支持 PTRACE_GETREGS，两个架构统一使用 regset
func ptraceGetRegSet(pid int, regs *syscall.PtraceRegs) error {
	var iov unix.Iovec
	iov.Base = (*byte)(unsafe.Pointer(regs))
	iov.SetLen(int(unsafe.Sizeof(*regs)))
	_, _, e1 := unix.Syscall6(unix.SYS_PTRACE, uintptr(unix.PTRACE_GETREGSET), uintptr(pid),
		NT_PRSTATUS, uintptr(unsafe.Pointer(&iov)), 0, 0)
	if e1 != 0 {
		return e1
	}
	return nil
}
