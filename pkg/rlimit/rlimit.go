// Package rlimit 描述通过 prlimit64 应用到子进程的资源限制
package rlimit

import (
	"fmt"
	"strings"
	"syscall"
)

// RLimits 是面向配置的资源限制
type RLimits struct {
	DisableCore bool // 被 SIGSYS 等信号杀死时不产生 core 文件
}

// RLimit 是一条 setrlimit 记录
type RLimit struct {
	// Res 是资源类型，例如 syscall.RLIMIT_CORE
	Res  int
	Rlim syscall.Rlimit
}

func getRlimit(cur, max uint64) syscall.Rlimit {
	return syscall.Rlimit{Cur: cur, Max: max}
}

// PrepareRLimit 展开为 forkexec 使用的 RLimit 列表
func (r *RLimits) PrepareRLimit() []RLimit {
	var ret []RLimit
	if r.DisableCore {
		ret = append(ret, RLimit{
			Res:  syscall.RLIMIT_CORE,
			Rlim: getRlimit(0, 0),
		})
	}
	return ret
}

func (r RLimit) String() string {
	var t string
	switch r.Res {
	case syscall.RLIMIT_CORE:
		t = "Core"
	default:
		t = fmt.Sprintf("Resource(%d)", r.Res)
	}
	return fmt.Sprintf("%s[%d]", t, r.Rlim.Cur)
}

func (r *RLimits) String() string {
	var s []string
	if r.DisableCore {
		s = append(s, "DisableCore=true")
	}
	return fmt.Sprintf("RLimits{%s}", strings.Join(s, ", "))
}
