package forkexec

import (
	"golang.org/x/sys/unix"
)

// syscall 包里没有的 seccomp(2) 常量
const (
	SECCOMP_SET_MODE_FILTER   = 1
	SECCOMP_FILTER_FLAG_TSYNC = 1
)

// ETXTBSY 重试间隔 1ms
var etxtbsyRetryInterval = unix.Timespec{
	Nsec: 1 * 1000 * 1000,
}
