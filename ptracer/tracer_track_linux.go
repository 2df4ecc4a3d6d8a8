package ptracer

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"

	"github.com/zqzqsb/seccompbench/pkg/forkexec"
	"github.com/zqzqsb/seccompbench/runner"
)

/*
Trace 启动子进程并跟踪到它结束

	Goroutine ---> OS Thread（LockOSThread） ---> 被跟踪进程

ptrace 请求只能由跟踪者线程发出，所以从 fork 开始到跟踪结束都锁定在同一个线程上。

子进程 execve 之后会因 SIGTRAP 停下，此时设置
PTRACE_O_EXITKILL | PTRACE_O_TRACESYSGOOD | PTRACE_O_TRACECLONE，
然后用 PTRACE_SYSCALL 让每个线程在每个系统调用的入口和出口各停一次。
入口处读取系统调用号交给 Handler：TraceKill 会向整个进程发送 SIGKILL，
等待其结束，并以 StatusDisallowedSyscall 返回。

任何 ptrace / wait4 调用失败都以 StatusRunnerError 返回，不重试。
*/
func (t *Tracer) Trace(c context.Context) (result runner.Result) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	sTime := time.Now()
	pgid, err := t.Runner.Start()
	t.Handler.Debug("tracer started:", pgid, err)
	if err != nil {
		result.Status = runner.StatusRunnerError
		result.Syscall = -1
		result.Error = xerrors.Errorf("start traced process: %w", err)
		return
	}
	return t.trace(c, pgid, sTime)
}

func (t *Tracer) trace(c context.Context, pgid int, sTime time.Time) (result runner.Result) {
	ph := newPtraceHandle(t, pgid)
	stop := ph.group.Watch(c)
	result.Syscall = -1

	defer func() {
		if err := recover(); err != nil {
			t.Handler.Debug("panic occurred:", err)
			result.Status = runner.StatusRunnerError
			result.Error = xerrors.Errorf("tracer panic: %v", err)
		}
		stop()
		ph.group.Kill()
		ph.group.Collect()
		if result.Elapsed == 0 {
			result.Elapsed = time.Since(sTime)
		}
		if !ph.fTime.IsZero() {
			result.SetUpTime = ph.fTime.Sub(sTime)
			result.RunningTime = sTime.Add(result.Elapsed).Sub(ph.fTime)
		}
		result.Trace = ph.tracker.stats
	}()

	for {
		var (
			wstatus unix.WaitStatus
			pid     int
			err     error
		)
		// execve 之前只等主进程，之后等整个进程组（包括被跟踪的线程）
		if ph.execved {
			pid, err = unix.Wait4(-pgid, &wstatus, unix.WALL, nil)
		} else {
			pid, err = unix.Wait4(pgid, &wstatus, unix.WALL, nil)
		}
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			result.Status = runner.StatusRunnerError
			result.Error = xerrors.Errorf("waitpid for syscall failed: %w", err)
			return
		}

		finished, err := ph.handle(pid, wstatus, &result)
		if err != nil {
			t.Handler.Debug("trace failed:", err)
			result.Status = runner.StatusRunnerError
			result.Error = err
			return
		}
		if finished {
			result.Elapsed = time.Since(sTime)
			return
		}
	}
}

// handle 处理一次 wait4 返回的状态，主进程结束时 finished 为 true
func (ph *ptraceHandle) handle(pid int, wstatus unix.WaitStatus, result *runner.Result) (finished bool, err error) {
	switch {
	case wstatus.Exited():
		delete(ph.traced, pid)
		ph.tracker.forget(pid)
		ph.Handler.Debug("process exited:", pid, "status:", wstatus.ExitStatus())
		if pid != ph.pgid {
			return false, nil
		}
		ph.group.SetReaped()
		if !ph.execved {
			return true, ph.execFailed()
		}
		result.ExitStatus = wstatus.ExitStatus()
		result.Status = runner.StatusNormal
		if result.ExitStatus != 0 {
			result.Status = runner.StatusNonzeroExitStatus
		}
		return true, nil

	case wstatus.Signaled():
		sig := wstatus.Signal()
		delete(ph.traced, pid)
		ph.tracker.forget(pid)
		ph.Handler.Debug("process terminated by signal:", pid, "signal:", sig)
		if pid != ph.pgid {
			return false, nil
		}
		ph.group.SetReaped()
		result.Status = runner.StatusSignalled
		result.ExitStatus = int(sig)
		return true, nil

	case wstatus.Stopped():
		return ph.handleStop(pid, wstatus, result)
	}
	return false, nil
}

func (ph *ptraceHandle) handleStop(pid int, wstatus unix.WaitStatus, result *runner.Result) (bool, error) {
	kind, sig := classifyStop(wstatus)

	newThread := !ph.traced[pid]
	if newThread {
		ph.traced[pid] = true
		ph.Handler.Debug("start tracing process:", pid)
		// clone 出来的线程会继承选项
		if pid == ph.pgid {
			if err := setPtraceOption(pid); err != nil {
				return true, err
			}
		}
	}

	inject := 0
	switch kind {
	case stopSyscall:
		if !ph.tracker.onSyscallStop(pid) {
			break
		}
		act, nr, err := ph.decide(pid)
		if err != nil {
			return true, err
		}
		if act == TraceKill {
			return true, ph.killDisallowed(pid, nr, result)
		}

	case stopTrap:
		if pid == ph.pgid && !ph.execved {
			ph.Handler.Debug("process execved:", pid)
			ph.execved = true
			ph.fTime = time.Now()
			break
		}
		// execve 之后的 SIGTRAP 是真实的信号
		ph.tracker.stats.Signals++
		inject = int(sig)

	case stopEvent:
		ph.Handler.Debug("process event:", pid, "event:", wstatus.TrapCause())

	case stopSignal:
		// 新线程的第一次停止是 SIGSTOP，吞掉
		if newThread && sig == unix.SIGSTOP {
			break
		}
		ph.tracker.stats.Signals++
		inject = int(sig)
	}

	if err := unix.PtraceSyscall(pid, inject); err != nil {
		// 线程可能已经被同组其他线程的 exit_group 杀死，稍后会收到它的退出状态
		if err == unix.ESRCH {
			ph.Handler.Debug("process vanished before resume:", pid)
			return false, nil
		}
		return true, xerrors.Errorf("ptrace syscall failed for %d: %w", pid, err)
	}
	return false, nil
}

// execFailed 取回子进程报告的失败位置和 errno
func (ph *ptraceHandle) execFailed() error {
	if err := ph.Runner.ExecError(); err != nil {
		return xerrors.Errorf("child process exited before execve: %w", err)
	}
	return xerrors.New("child process exited before execve")
}

// decide 读取系统调用号并交给 Handler
func (ph *ptraceHandle) decide(pid int) (TraceAction, uint, error) {
	ctx, err := getTrapContext(pid)
	if err == unix.ESRCH {
		ph.Handler.Debug("process vanished before getregs:", pid)
		return TraceAllow, 0, nil
	}
	if err != nil {
		return TraceKill, 0, xerrors.Errorf("ptrace getregs failed for %d: %w", pid, err)
	}
	ph.tracker.stats.Decisions++
	return ph.Handler.Handle(ctx), ctx.SyscallNo(), nil
}

// killDisallowed 杀死整个被跟踪进程并等待主线程结束
func (ph *ptraceHandle) killDisallowed(pid int, nr uint, result *runner.Result) error {
	ph.Handler.Debug("disallowed syscall:", nr, "from", pid)
	if err := unix.Kill(ph.pgid, unix.SIGKILL); err != nil {
		return xerrors.Errorf("failed to kill child process: %w", err)
	}
	for {
		var wstatus unix.WaitStatus
		// 其他被跟踪线程必须先被回收，主线程的结束状态才会报告
		wpid, err := unix.Wait4(-ph.pgid, &wstatus, unix.WALL, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return xerrors.Errorf("waitpid for exit failed: %w", err)
		}
		if wpid == ph.pgid && (wstatus.Exited() || wstatus.Signaled()) {
			ph.group.SetReaped()
			result.Status = runner.StatusDisallowedSyscall
			result.Syscall = int(nr)
			if wstatus.Signaled() {
				result.ExitStatus = int(wstatus.Signal())
			} else {
				result.ExitStatus = wstatus.ExitStatus()
			}
			return nil
		}
	}
}

// setPtraceOption 设置跟踪选项
// EXITKILL 保证跟踪者退出时子进程一起退出
func setPtraceOption(pid int) error {
	if err := unix.PtraceSetOptions(pid, unix.PTRACE_O_EXITKILL|
		unix.PTRACE_O_TRACESYSGOOD|unix.PTRACE_O_TRACECLONE); err != nil {
		return xerrors.Errorf("failed to set PTRACE_O_EXITKILL flag: %w", err)
	}
	return nil
}

type ptraceHandle struct {
	*Tracer
	pgid    int
	traced  map[int]bool
	execved bool
	fTime   time.Time
	tracker syscallTracker
	group   *forkexec.Group
}

func newPtraceHandle(t *Tracer, pgid int) *ptraceHandle {
	return &ptraceHandle{
		Tracer:  t,
		pgid:    pgid,
		traced:  make(map[int]bool),
		tracker: newSyscallTracker(),
		group:   forkexec.NewGroup(pgid),
	}
}
