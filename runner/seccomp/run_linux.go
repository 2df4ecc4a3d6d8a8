package seccomp

import (
	"context"
	"errors"
	"time"

	"cdr.dev/slog"
	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"

	"github.com/zqzqsb/seccompbench/pkg/forkexec"
	"github.com/zqzqsb/seccompbench/pkg/seccomp/libseccomp"
	"github.com/zqzqsb/seccompbench/runner"
)

// Run 启动子进程并阻塞等待它结束
// Start 返回时 execve 已经成功，过滤器已经生效
func (r *Runner) Run(c context.Context) (result runner.Result) {
	ch := &forkexec.Runner{
		Args:       r.Args,
		Env:        r.Env,
		RLimits:    r.RLimits,
		Files:      r.Files,
		WorkDir:    r.WorkDir,
		Seccomp:    r.Seccomp.SockFprog(),
		NoNewPrivs: true,
	}

	var (
		wstatus unix.WaitStatus
		sTime   = time.Now()
		fTime   time.Time
	)
	result.Syscall = -1

	pgid, err := ch.Start()
	r.Logger.Debug(c, "child started", slog.F("pid", pgid), slog.Error(err))
	if err != nil {
		result.Status = runner.StatusRunnerError
		result.Error = startError(err)
		return
	}
	fTime = time.Now()

	group := forkexec.NewGroup(pgid)
	stop := group.Watch(c)

	defer func() {
		stop()
		group.Kill()
		group.Collect()
		result.SetUpTime = fTime.Sub(sTime)
		result.RunningTime = result.Elapsed - result.SetUpTime
	}()

	for {
		_, err := unix.Wait4(pgid, &wstatus, 0, nil)
		if err == unix.EINTR {
			continue
		}
		result.Elapsed = time.Since(sTime)
		r.Logger.Debug(c, "wait4", slog.F("status", uint32(wstatus)))
		if err != nil {
			result.Status = runner.StatusRunnerError
			result.Error = xerrors.Errorf("wait for exit failed: %w", err)
			return
		}

		if wstatus.Exited() || wstatus.Signaled() {
			group.SetReaped()
		}

		switch {
		case wstatus.Exited():
			result.Status = runner.StatusNormal
			result.ExitStatus = wstatus.ExitStatus()
			if result.ExitStatus != 0 {
				result.Status = runner.StatusNonzeroExitStatus
			}
			return

		case wstatus.Signaled():
			sig := wstatus.Signal()
			result.Status = runner.StatusSignalled
			if sig == unix.SIGSYS {
				result.Status = runner.StatusDisallowedSyscall
			}
			result.ExitStatus = int(sig)
			return
		}
	}
}

// startError 把子进程中 seccomp(2) 的失败转换为 SeccompError
func startError(err error) error {
	var ce forkexec.ChildError
	if errors.As(err, &ce) && ce.Location == forkexec.LocSeccomp {
		return xerrors.Errorf("seccomp_load failed: %w", &libseccomp.SeccompError{Op: libseccomp.OpLoad, Syscall: -1, Err: ce})
	}
	return xerrors.Errorf("start child process: %w", err)
}
