package ptracer

/*
	x86_64 系统调用约定
	syscall_number -> rax（入口停止时内核已经把它保存到 orig_rax）
	arg0 -> rdi
	arg1 -> rsi
	arg2 -> rdx
	arg3 -> r10
	arg4 -> r8
	arg5 -> r9
*/

// SyscallNo 获取当前系统调用号
// rax 在出口处会被返回值覆盖，所以读 orig_rax
func (c *Context) SyscallNo() uint {
	return uint(c.regs.Orig_rax)
}

func (c *Context) Arg0() uint {
	return uint(c.regs.Rdi)
}

func (c *Context) Arg1() uint {
	return uint(c.regs.Rsi)
}

func (c *Context) Arg2() uint {
	return uint(c.regs.Rdx)
}

func (c *Context) Arg3() uint {
	return uint(c.regs.R10)
}

func (c *Context) Arg4() uint {
	return uint(c.regs.R8)
}

func (c *Context) Arg5() uint {
	return uint(c.regs.R9)
}
