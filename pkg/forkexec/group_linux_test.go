package forkexec

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func startSleep(t *testing.T, seconds string) int {
	t.Helper()
	for _, p := range []string{"/bin/sleep", "/usr/bin/sleep"} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		pid, err := (&Runner{Args: []string{p, seconds}}).Start()
		require.NoError(t, err)
		return pid
	}
	t.Skip("sleep not available")
	return 0
}

func TestGroupWatchKills(t *testing.T) {
	pid := startSleep(t, "10")
	g := NewGroup(pid)

	ctx, cancel := context.WithCancel(context.Background())
	stop := g.Watch(ctx)
	cancel()

	ws := wait(t, pid)
	g.SetReaped()
	stop()
	require.True(t, ws.Signaled(), "%v", ws)
	require.Equal(t, unix.SIGKILL, ws.Signal())
}

func TestGroupStopBeforeCancel(t *testing.T) {
	pid := startSleep(t, "0.2")
	g := NewGroup(pid)

	ctx, cancel := context.WithCancel(context.Background())
	stop := g.Watch(ctx)
	stop()
	cancel()

	ws := wait(t, pid)
	require.True(t, ws.Exited(), "%v", ws)
	require.Equal(t, 0, ws.ExitStatus())
}

func TestGroupKillAfterReaped(t *testing.T) {
	pid := startSleep(t, "10")
	g := NewGroup(pid)

	g.SetReaped()
	g.Kill()
	time.Sleep(50 * time.Millisecond)

	var ws unix.WaitStatus
	wpid, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil)
	require.NoError(t, err)
	require.Zero(t, wpid, "process group was signalled after being marked reaped")

	require.NoError(t, unix.Kill(pid, unix.SIGKILL))
	ws = wait(t, pid)
	require.True(t, ws.Signaled())

	// 没有剩余的子进程时 Collect 直接返回
	g.Collect()
}
