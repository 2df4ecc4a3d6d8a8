package ptracer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// stopStatus 构造 wait4 对停止状态的编码：event<<16 | sig<<8 | 0x7f
func stopStatus(sig unix.Signal, event int) unix.WaitStatus {
	return unix.WaitStatus(uint32(event)<<16 | uint32(sig)<<8 | 0x7f)
}

func TestClassifyStop(t *testing.T) {
	tests := []struct {
		name    string
		ws      unix.WaitStatus
		want    stopKind
		wantSig unix.Signal
	}{
		{"syscall", stopStatus(unix.SIGTRAP|0x80, 0), stopSyscall, unix.SIGTRAP | 0x80},
		{"exec trap", stopStatus(unix.SIGTRAP, 0), stopTrap, unix.SIGTRAP},
		{"clone event", stopStatus(unix.SIGTRAP, unix.PTRACE_EVENT_CLONE), stopEvent, unix.SIGTRAP},
		{"new thread", stopStatus(unix.SIGSTOP, 0), stopSignal, unix.SIGSTOP},
		{"preempt", stopStatus(unix.SIGURG, 0), stopSignal, unix.SIGURG},
		{"child", stopStatus(unix.SIGCHLD, 0), stopSignal, unix.SIGCHLD},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, tt.ws.Stopped())
			kind, sig := classifyStop(tt.ws)
			assert.Equal(t, tt.want, kind, kind.String())
			assert.Equal(t, tt.wantSig, sig)
		})
	}
}

// 模拟一个线程执行 n 个系统调用，每个系统调用之间穿插信号停止
func TestTrackerAlternatesWithSignals(t *testing.T) {
	const (
		pid = 100
		n   = 1000
	)
	stops := make([]unix.WaitStatus, 0, 3*n)
	for i := 0; i < n; i++ {
		stops = append(stops, stopStatus(unix.SIGTRAP|0x80, 0))
		if i%3 == 0 {
			stops = append(stops, stopStatus(unix.SIGURG, 0))
		}
		stops = append(stops, stopStatus(unix.SIGTRAP|0x80, 0))
		if i%7 == 0 {
			stops = append(stops, stopStatus(unix.SIGCHLD, 0))
		}
	}

	tr := newSyscallTracker()
	decisions := 0
	want := true
	for _, ws := range stops {
		kind, _ := classifyStop(ws)
		if kind != stopSyscall {
			continue
		}
		entry := tr.onSyscallStop(pid)
		require.Equal(t, want, entry)
		want = !want
		if entry {
			decisions++
		}
	}

	assert.Equal(t, 2*n, tr.stats.Stops)
	assert.Equal(t, n, tr.stats.Entries)
	assert.Equal(t, n, tr.stats.Exits)
	assert.Equal(t, n, decisions)
}

func TestTrackerPerThread(t *testing.T) {
	tr := newSyscallTracker()

	// 两个线程交错进入系统调用
	assert.True(t, tr.onSyscallStop(1))
	assert.True(t, tr.onSyscallStop(2))
	assert.False(t, tr.onSyscallStop(2))
	assert.False(t, tr.onSyscallStop(1))
	assert.True(t, tr.onSyscallStop(2))

	// 线程 2 在系统调用中被杀死，它的 id 被复用时重新从入口开始
	tr.forget(2)
	assert.True(t, tr.onSyscallStop(2))

	assert.Equal(t, 6, tr.stats.Stops)
	assert.Equal(t, 4, tr.stats.Entries)
	assert.Equal(t, 2, tr.stats.Exits)
}
