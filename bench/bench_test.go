package bench

import (
	"context"
	"testing"
	"time"

	"cdr.dev/slog/sloggers/slogtest"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/zqzqsb/seccompbench/disallow"
	"github.com/zqzqsb/seccompbench/runner"
)

func TestParseMode(t *testing.T) {
	for _, m := range Modes {
		got, err := ParseMode(string(m))
		require.NoError(t, err)
		require.Equal(t, m, got)
	}

	for _, s := range []string{"", "Seccomp", "strace", "ptrace "} {
		_, err := ParseMode(s)
		require.Error(t, err, s)
		require.Contains(t, err.Error(), "seccomp, ptrace, payload")
	}
}

func TestChildArgs(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "plain",
			opts: Options{Iterations: 10000},
			want: []string{"/bin/bench", "--mode", "payload", "--iter", "10000"},
		},
		{
			name: "probe and verbose",
			opts: Options{Iterations: 5, Probe: "socket", Verbose: true},
			want: []string{"/bin/bench", "--mode", "payload", "--iter", "5", "--probe", "socket", "--verbose"},
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ChildArgs("/bin/bench", tc.opts))
		})
	}
}

func TestReportString(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   string
	}{
		{
			name: "exit zero",
			report: Report{Result: runner.Result{
				Status:  runner.StatusNormal,
				Syscall: -1,
				Elapsed: 12 * time.Millisecond,
			}},
			want: "child exited with exit code 0\nbenchmark finished within 12.000 ms.\n",
		},
		{
			name: "exit nonzero",
			report: Report{Result: runner.Result{
				Status:     runner.StatusNonzeroExitStatus,
				ExitStatus: 3,
				Syscall:    -1,
				Elapsed:    1500 * time.Microsecond,
			}},
			want: "child exited with exit code 3\nbenchmark finished within 1.500 ms.\n",
		},
		{
			name: "seccomp kill",
			report: Report{Result: runner.Result{
				Status:     runner.StatusDisallowedSyscall,
				ExitStatus: int(unix.SIGSYS),
				Syscall:    -1,
				Elapsed:    40 * time.Millisecond,
			}},
			want: "child aborted by signal SIGSYS\nbenchmark finished within 40.000 ms.\n",
		},
		{
			name: "trace kill",
			report: Report{
				Result: runner.Result{
					Status:     runner.StatusDisallowedSyscall,
					ExitStatus: int(unix.SIGKILL),
					Syscall:    41,
					Elapsed:    700 * time.Millisecond,
				},
				SyscallName: "socket",
			},
			want: "child called disallowed syscall: 41 (socket)\nbenchmark finished within 700.000 ms.\n",
		},
		{
			name: "other signal",
			report: Report{Result: runner.Result{
				Status:     runner.StatusSignalled,
				ExitStatus: int(unix.SIGSEGV),
				Syscall:    -1,
				Elapsed:    250 * time.Microsecond,
			}},
			want: "child aborted by signal SIGSEGV\nbenchmark finished within 0.250 ms.\n",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.report.String())
		})
	}
}

func TestReportKilled(t *testing.T) {
	r := Report{Result: runner.Result{Status: runner.StatusDisallowedSyscall}}
	require.True(t, r.Killed())
	r.Result.Status = runner.StatusNormal
	require.False(t, r.Killed())
}

func TestBuildFilter(t *testing.T) {
	set, err := disallow.Default()
	require.NoError(t, err)

	filter, err := BuildFilter(set)
	require.NoError(t, err)
	require.NotEmpty(t, filter)
	require.NotNil(t, filter.SockFprog())

	// 编译结果是确定的
	again, err := BuildFilter(set)
	require.NoError(t, err)
	require.Equal(t, filter, again)
}

func TestRunRejectsInvalidOptions(t *testing.T) {
	set, err := disallow.Default()
	require.NoError(t, err)
	log := slogtest.Make(t, nil)

	_, err = Run(context.Background(), Options{Mode: ModeSeccomp, Iterations: 0, Disallowed: set, Logger: log})
	require.Error(t, err)
	require.Contains(t, err.Error(), "iterations must be positive")

	_, err = Run(context.Background(), Options{Mode: ModePayload, Iterations: 10, Disallowed: set, Logger: log})
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot be benchmarked")
}

func TestRunMissingExecutable(t *testing.T) {
	set, err := disallow.Default()
	require.NoError(t, err)

	_, err = Run(context.Background(), Options{
		Mode:       ModeSeccomp,
		Iterations: 10,
		Disallowed: set,
		Executable: "/nonexistent/seccompbench",
		WorkDir:    t.TempDir(),
		Logger:     slogtest.Make(t, &slogtest.Options{IgnoreErrors: true}),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "execve")
}
