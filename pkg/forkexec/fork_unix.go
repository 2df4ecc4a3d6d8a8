package forkexec

import _ "unsafe" // go:linkname

// beforeFork 阻塞信号并停止其他线程的调度，调用后不能分配内存
//
//go:linkname beforeFork syscall.runtime_BeforeFork
func beforeFork()

// afterFork 在父进程中恢复信号
//
//go:linkname afterFork syscall.runtime_AfterFork
func afterFork()

// afterForkInChild 在子进程中清理运行时状态，此时只剩当前线程
//
//go:linkname afterForkInChild syscall.runtime_AfterForkInChild
func afterForkInChild()
