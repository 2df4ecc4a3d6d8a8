// Package seccomp 定义传给内核的 seccomp-bpf 过滤器程序
package seccomp

import "syscall"

// Filter 是已经汇编好的 BPF 指令序列，可以直接交给 seccomp(2)
type Filter []syscall.SockFilter

// SockFprog 返回 seccomp(SECCOMP_SET_MODE_FILTER) 需要的结构
// Filter 指向切片底层数组，调用方需要保证 f 在装载完成前不被回收
// 空过滤器返回 nil
func (f Filter) SockFprog() *syscall.SockFprog {
	if len(f) == 0 {
		return nil
	}
	b := []syscall.SockFilter(f)
	return &syscall.SockFprog{
		Len:    uint16(len(b)),
		Filter: &b[0],
	}
}
