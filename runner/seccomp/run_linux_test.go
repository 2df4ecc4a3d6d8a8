package seccomp

import (
	"context"
	"os"
	"testing"
	"time"

	"cdr.dev/slog/sloggers/slogtest"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/zqzqsb/seccompbench/pkg/rlimit"
	"github.com/zqzqsb/seccompbench/pkg/seccomp"
	"github.com/zqzqsb/seccompbench/pkg/seccomp/libseccomp"
	"github.com/zqzqsb/seccompbench/runner"
)

// 子进程根据该环境变量决定行为
const helperEnv = "SECCOMP_RUNNER_HELPER"

func TestMain(m *testing.M) {
	switch os.Getenv(helperEnv) {
	case "":
		os.Exit(m.Run())
	case "exit3":
		os.Exit(3)
	case "socket":
		unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
		os.Exit(0)
	case "sleep":
		time.Sleep(time.Minute)
		os.Exit(0)
	default:
		os.Exit(0)
	}
}

func socketFilter(t *testing.T) seccomp.Filter {
	t.Helper()
	nr, err := libseccomp.ToSyscallNo("socket")
	require.NoError(t, err)

	ctx, err := libseccomp.NewContext(libseccomp.ActionAllow)
	require.NoError(t, err)
	defer ctx.Release()
	require.NoError(t, ctx.AddRule(nr, libseccomp.ActionKill))

	filter, err := ctx.Build()
	require.NoError(t, err)
	return filter
}

func newRunner(t *testing.T, helper string) *Runner {
	t.Helper()
	exe, err := os.Executable()
	require.NoError(t, err)
	return &Runner{
		Args:    []string{exe},
		Env:     append(os.Environ(), helperEnv+"="+helper),
		WorkDir: t.TempDir(),
		Files:   []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd()},
		RLimits: (&rlimit.RLimits{DisableCore: true}).PrepareRLimit(),
		Seccomp: socketFilter(t),
		Logger:  slogtest.Make(t, nil),
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		helper     string
		status     runner.Status
		exitStatus int
	}{
		{"ok", runner.StatusNormal, 0},
		{"exit3", runner.StatusNonzeroExitStatus, 3},
		{"socket", runner.StatusDisallowedSyscall, int(unix.SIGSYS)},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.helper, func(t *testing.T) {
			result := newRunner(t, tc.helper).Run(context.Background())
			require.Equal(t, tc.status, result.Status, result.String())
			require.Equal(t, tc.exitStatus, result.ExitStatus)
			require.Equal(t, -1, result.Syscall)
			require.NoError(t, result.Error)
			require.Positive(t, result.Elapsed)
			require.Equal(t, result.Elapsed, result.SetUpTime+result.RunningTime)
		})
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	result := newRunner(t, "sleep").Run(ctx)
	require.Equal(t, runner.StatusSignalled, result.Status, result.String())
	require.Equal(t, int(unix.SIGKILL), result.ExitStatus)
	require.Less(t, result.Elapsed, 30*time.Second)
}

func TestRunStartError(t *testing.T) {
	r := newRunner(t, "ok")
	r.Args = []string{"/nonexistent/helper"}

	result := r.Run(context.Background())
	require.Equal(t, runner.StatusRunnerError, result.Status)
	require.ErrorIs(t, result.Error, unix.ENOENT)
}
