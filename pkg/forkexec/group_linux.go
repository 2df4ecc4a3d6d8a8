package forkexec

import (
	"context"
	"sync"

	"golang.org/x/sys/unix"
)

// Group 是 Start 创建的进程组，子进程调用了 setsid，pgid 等于它的 pid
// 主进程被 wait4 回收之后 Kill 不再发送信号，pgid 此时可能已被复用
type Group struct {
	pgid int

	mu     sync.Mutex
	reaped bool
}

// NewGroup 返回 pgid 对应的进程组
func NewGroup(pgid int) *Group {
	return &Group{pgid: pgid}
}

// Kill 向整个进程组发送 SIGKILL
func (g *Group) Kill() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.reaped {
		unix.Kill(-g.pgid, unix.SIGKILL)
	}
}

// SetReaped 记录主进程已经被回收
func (g *Group) SetReaped() {
	g.mu.Lock()
	g.reaped = true
	g.mu.Unlock()
}

// Watch 在 ctx 结束时杀死进程组
// 返回的 stop 在监视 goroutine 退出之后才返回，之后不会再有 Kill
func (g *Group) Watch(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			g.Kill()
		case <-done:
		}
	}()
	return func() {
		close(done)
		<-exited
	}
}

// Collect 非阻塞地回收进程组中剩余的子进程
func (g *Group) Collect() {
	var wstatus unix.WaitStatus
	for {
		pid, err := unix.Wait4(-g.pgid, &wstatus, unix.WALL|unix.WNOHANG, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil || pid <= 0 {
			return
		}
	}
}
