package ptracer

// aarch64：系统调用号在 x8，参数在 x0-x5

// SyscallNo 获取当前系统调用号
func (c *Context) SyscallNo() uint {
	return uint(c.regs.Regs[8])
}

func (c *Context) Arg0() uint {
	return uint(c.regs.Regs[0])
}

func (c *Context) Arg1() uint {
	return uint(c.regs.Regs[1])
}

func (c *Context) Arg2() uint {
	return uint(c.regs.Regs[2])
}

func (c *Context) Arg3() uint {
	return uint(c.regs.Regs[3])
}

func (c *Context) Arg4() uint {
	return uint(c.regs.Regs[4])
}

func (c *Context) Arg5() uint {
	return uint(c.regs.Regs[5])
}
