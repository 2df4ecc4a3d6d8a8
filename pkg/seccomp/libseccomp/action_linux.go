package libseccomp

import (
	libseccomp "github.com/elastic/go-seccomp-bpf"
)

// ToSeccompAction 转换为 go-seccomp-bpf 的动作
// ActionKill 与未知动作都映射为杀死整个进程（SECCOMP_RET_KILL_PROCESS），
// 否则多线程程序只会死掉触发的那个线程
func ToSeccompAction(a Action) libseccomp.Action {
	if a == ActionAllow {
		return libseccomp.ActionAllow
	}
	return libseccomp.ActionKillProcess
}
