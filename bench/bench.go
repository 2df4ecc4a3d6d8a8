package bench

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"cdr.dev/slog"
	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"github.com/zqzqsb/seccompbench/disallow"
	"github.com/zqzqsb/seccompbench/pkg/rlimit"
	"github.com/zqzqsb/seccompbench/pkg/seccomp"
	"github.com/zqzqsb/seccompbench/pkg/seccomp/libseccomp"
	"github.com/zqzqsb/seccompbench/runner"
	ptracerunner "github.com/zqzqsb/seccompbench/runner/ptrace"
	seccomprunner "github.com/zqzqsb/seccompbench/runner/seccomp"
)

// Options 是一次基准运行的配置，构造后只读
type Options struct {
	Mode       Mode
	Iterations int
	Disallowed disallow.Set

	// Executable 是以 payload 模式重新执行的程序，为空时使用当前可执行文件
	Executable string
	// Env 是子进程的环境变量，为 nil 时继承当前环境
	Env []string
	// WorkDir 是子进程的工作目录，临时文件创建在这里
	WorkDir string
	// Probe 透传给子进程的 --probe
	Probe string
	// Verbose 透传给子进程，并打开 ptrace 的逐次停止日志
	Verbose bool

	Logger slog.Logger
}

// ChildArgs 返回以 payload 模式重新执行自身的参数
func ChildArgs(exe string, opts Options) []string {
	args := []string{exe, "--mode", string(ModePayload), "--iter", strconv.Itoa(opts.Iterations)}
	if opts.Probe != "" {
		args = append(args, "--probe", opts.Probe)
	}
	if opts.Verbose {
		args = append(args, "--verbose")
	}
	return args
}

// Run 以 opts.Mode 运行一次基准
// 拦截器杀死子进程属于正常结果，只有启动、编译过滤器或跟踪失败才返回错误
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Iterations <= 0 {
		return nil, xerrors.Errorf("iterations must be positive, got %d", opts.Iterations)
	}
	if opts.Mode != ModeSeccomp && opts.Mode != ModePtrace {
		return nil, xerrors.Errorf("mode %q cannot be benchmarked", opts.Mode)
	}

	exe, err := executable(opts.Executable)
	if err != nil {
		return nil, err
	}
	env := opts.Env
	if env == nil {
		env = os.Environ()
	}

	runID := uuid.NewString()
	log := opts.Logger.With(
		slog.F("run_id", runID),
		slog.F("mode", opts.Mode),
	)

	args := ChildArgs(exe, opts)
	files := []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd()}
	rlimits := (&rlimit.RLimits{DisableCore: true}).PrepareRLimit()
	log.Debug(ctx, "starting benchmark",
		slog.F("args", args),
		slog.F("disallowed", opts.Disallowed.Names()),
		slog.F("rlimits", rlimits),
	)

	var r runner.Runner
	switch opts.Mode {
	case ModeSeccomp:
		filter, err := BuildFilter(opts.Disallowed)
		if err != nil {
			return nil, err
		}
		r = &seccomprunner.Runner{
			Args:    args,
			Env:     env,
			WorkDir: opts.WorkDir,
			Files:   files,
			RLimits: rlimits,
			Seccomp: filter,
			Logger:  log,
		}

	case ModePtrace:
		r = &ptracerunner.Runner{
			Args:        args,
			Env:         env,
			WorkDir:     opts.WorkDir,
			Files:       files,
			RLimits:     rlimits,
			Disallowed:  opts.Disallowed,
			Logger:      log,
			ShowDetails: opts.Verbose,
		}
	}

	result := r.Run(ctx)
	log.Info(ctx, "benchmark finished",
		slog.F("status", result.Status.String()),
		slog.F("elapsed", result.Elapsed),
	)
	if result.Status == runner.StatusRunnerError {
		return nil, xerrors.Errorf("run %s benchmark: %w", opts.Mode, result.Error)
	}

	report := &Report{
		Mode:   opts.Mode,
		RunID:  runID,
		Result: result,
	}
	if result.Syscall >= 0 {
		report.SyscallName, _ = opts.Disallowed.Name(result.Syscall)
	}
	return report, nil
}

// BuildFilter 编译默认放行、禁止列表中的系统调用杀死进程的过滤器
func BuildFilter(set disallow.Set) (seccomp.Filter, error) {
	ctx, err := libseccomp.NewContext(libseccomp.ActionAllow)
	if err != nil {
		return nil, xerrors.Errorf("seccomp_init failed: %w", err)
	}
	defer ctx.Release()

	for _, nr := range set.Numbers() {
		if err := ctx.AddRule(nr, libseccomp.ActionKill); err != nil {
			return nil, xerrors.Errorf("failed to install seccomp filter for syscall %d: %w", nr, err)
		}
	}
	filter, err := ctx.Build()
	if err != nil {
		return nil, xerrors.Errorf("seccomp export failed: %w", err)
	}
	return filter, nil
}

func executable(exe string) (string, error) {
	if exe == "" {
		p, err := os.Executable()
		if err != nil {
			return "", xerrors.Errorf("locate current executable: %w", err)
		}
		return p, nil
	}
	// 子进程可能 chdir 到别的目录，必须是绝对路径
	p, err := filepath.Abs(exe)
	if err != nil {
		return "", xerrors.Errorf("resolve executable %q: %w", exe, err)
	}
	return p, nil
}

// Print 输出 Report 的文本形式
func Print(w io.Writer, r *Report) error {
	_, err := io.WriteString(w, r.String())
	return err
}
