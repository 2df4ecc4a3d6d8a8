package forkexec

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Start 创建子进程并执行 Args
//
// 子进程依次完成：
//  1. 整理文件描述符、setsid、chdir、设置 rlimit
//  2. 装载 seccomp 过滤器（如果提供）
//  3. 与父进程同步
//  4. ptrace(PTRACE_TRACEME)（如果开启）
//  5. execve
//
// 开启 Ptrace 时，Start 在同步完成后立即返回，execve 的结果由跟踪器在
// 第一次 SIGTRAP 停止时确认；否则 Start 会一直等到 execve 成功
// （同步 socket 带 CLOEXEC，execve 成功后被关闭）或者子进程报告错误。
func (r *Runner) Start() (int, error) {
	argv0, argv, env, err := prepareExec(r.Args, r.Env)
	if err != nil {
		return 0, err
	}

	workdir, err := syscallStringFromString(r.WorkDir)
	if err != nil {
		return 0, err
	}

	// p[0] 归父进程，p[1] 归子进程
	p, err := syscall.Socketpair(syscall.AF_LOCAL, syscall.SOCK_STREAM|syscall.SOCK_CLOEXEC, 0)
	if err != nil {
		return 0, err
	}

	pid, err1 := forkAndExecInChild(r, argv0, argv, env, workdir, p)

	afterFork()
	syscall.ForkLock.Unlock()

	return syncWithChild(r, p, int(pid), err1)
}

func syncWithChild(r *Runner, p [2]int, pid int, err1 syscall.Errno) (int, error) {
	var (
		err2     syscall.Errno
		err      error
		childErr ChildError
	)

	unix.Close(p[1])

	if err1 != 0 {
		unix.Close(p[0])
		childErr.Location = LocClone
		childErr.Err = err1
		return 0, childErr
	}

	// 第一次读到的要么是同步信号（一个 Errno 大小），要么是 ChildError
	n, err := readChildErr(p[0], &childErr)
	if (n != int(unsafe.Sizeof(err2)) && n != int(unsafe.Sizeof(childErr))) || childErr.Err != 0 || err != nil {
		childErr.Err = handlePipeError(n, childErr.Err)
		goto fail
	}

	// 通知子进程继续
	syscall.RawSyscall(syscall.SYS_WRITE, uintptr(p[0]), uintptr(unsafe.Pointer(&err1)), uintptr(unsafe.Sizeof(err1)))

	if r.Ptrace {
		// 子进程会在 execve 处停下等待跟踪器，这里不能阻塞
		// execve 之前的失败由 ExecError 交给跟踪器
		done := make(chan struct{})
		r.execDone = done
		go func() {
			defer close(done)
			var ce ChildError
			n, err := readChildErr(p[0], &ce)
			unix.Close(p[0])
			if err == nil && n == int(unsafe.Sizeof(ce)) && ce.Err != 0 {
				r.execErr = ce
			}
		}()
		return pid, nil
	}

	// execve 成功时 socket 被关闭，读到 0 字节
	n, err = readChildErr(p[0], &childErr)
	unix.Close(p[0])
	if n != 0 || err != nil {
		childErr.Err = handlePipeError(n, childErr.Err)
		goto failAfterClose
	}
	return pid, nil

fail:
	unix.Close(p[0])

failAfterClose:
	handleChildFailed(pid)
	if childErr.Err == 0 {
		return 0, err
	}
	return 0, childErr
}

// readChildErr 读取子进程写入的 ChildError，遇到 EINTR 重试
func readChildErr(fd int, childErr *ChildError) (n int, err error) {
	for {
		n, err = readlen(fd, (*byte)(unsafe.Pointer(childErr)), int(unsafe.Sizeof(*childErr)))
		if err != syscall.EINTR {
			break
		}
	}
	return
}

func readlen(fd int, p *byte, np int) (n int, err error) {
	r0, _, e1 := syscall.Syscall(syscall.SYS_READ, uintptr(fd), uintptr(unsafe.Pointer(p)), uintptr(np))
	n = int(r0)
	if e1 != 0 {
		err = syscall.Errno(e1)
	}
	return
}

// ExecError 返回开启 Ptrace 时子进程在 execve 之前报告的 ChildError
// execve 成功或者子进程被杀死时返回 nil
// 会阻塞到同步 socket 被关闭，只应在子进程未能 execve 就退出之后调用
func (r *Runner) ExecError() error {
	if r.execDone == nil {
		return nil
	}
	<-r.execDone
	return r.execErr
}

// handlePipeError 读到的数据不完整时返回 EPIPE
func handlePipeError(r1 int, errno syscall.Errno) syscall.Errno {
	if uintptr(r1) >= unsafe.Sizeof(errno) {
		return errno
	}
	return syscall.EPIPE
}

// handleChildFailed 杀死并回收失败的子进程
func handleChildFailed(pid int) {
	var wstatus syscall.WaitStatus
	syscall.Kill(pid, syscall.SIGKILL)
	_, err := syscall.Wait4(pid, &wstatus, 0, nil)
	for err == syscall.EINTR {
		_, err = syscall.Wait4(pid, &wstatus, 0, nil)
	}
}
