// Package payload 是被计时的工作负载：对同一个 fd 反复调用 fcntl(F_GETFD)
//
// 两种拦截方式下运行的是同一段代码，只有拦截机制不同。
package payload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"cdr.dev/slog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"

	"github.com/zqzqsb/seccompbench/pkg/seccomp/libseccomp"
)

// FileName 是工作负载使用的临时文件，位于工作目录下
// 子进程被拦截器杀死时该文件会残留，下一次运行会截断并复用它
const FileName = "seccompbench.tmp"

// Options 是一次工作负载的参数
type Options struct {
	// Iterations 是 fcntl 的调用次数，必须为正
	Iterations int
	// Dir 为空时使用当前工作目录
	Dir string
	// Probe 不为空时，在循环结束后以全 0 参数调用一次该系统调用
	Probe string

	Stdout io.Writer
	Logger slog.Logger
}

// Path 返回临时文件路径
func (o Options) Path() string {
	return filepath.Join(o.Dir, FileName)
}

// Run 执行工作负载，无论成功与否都会删除临时文件
func Run(ctx context.Context, opts Options) (err error) {
	if opts.Iterations <= 0 {
		return xerrors.Errorf("iterations must be positive, got %d", opts.Iterations)
	}
	probe := -1
	if opts.Probe != "" {
		if probe, err = libseccomp.ToSyscallNo(opts.Probe); err != nil {
			return xerrors.Errorf("resolve probe syscall: %w", err)
		}
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	fmt.Fprintln(stdout, "payload started")

	path := opts.Path()
	f, err := os.Create(path)
	if err != nil {
		return xerrors.Errorf("failed to create temporary benchmark file: %w", err)
	}
	defer func() {
		var merr *multierror.Error
		if err != nil {
			merr = multierror.Append(merr, err)
		}
		if cerr := f.Close(); cerr != nil {
			merr = multierror.Append(merr, xerrors.Errorf("close temporary benchmark file: %w", cerr))
		}
		if rerr := os.Remove(path); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
			merr = multierror.Append(merr, xerrors.Errorf("remove temporary benchmark file: %w", rerr))
		}
		err = merr.ErrorOrNil()
	}()

	opts.Logger.Debug(ctx, "payload loop",
		slog.F("path", path),
		slog.F("iterations", opts.Iterations),
	)
	if err := loop(f.Fd(), opts.Iterations); err != nil {
		return err
	}

	if probe >= 0 {
		_, _, errno := unix.Syscall(uintptr(probe), 0, 0, 0)
		opts.Logger.Debug(ctx, "probe returned",
			slog.F("syscall", opts.Probe),
			slog.F("errno", errno.Error()),
		)
	}

	fmt.Fprintln(stdout, "payload finished")
	return nil
}

func loop(fd uintptr, n int) error {
	for i := 0; i < n; i++ {
		if _, err := unix.FcntlInt(fd, unix.F_GETFD, 0); err != nil {
			return xerrors.Errorf("fcntl failed at iteration %d: %w", i, err)
		}
	}
	return nil
}
