//go:build !(libseccomp && cgo)

package libseccomp

import (
	"github.com/elastic/go-seccomp-bpf/arch"
)

// 当前架构（x86_64 / aarch64）的系统调用表
var info, errInfo = arch.GetInfo("")

// ToSyscallName 系统调用号转名称
func ToSyscallName(sysno uint) (string, error) {
	if errInfo != nil {
		return "", errInfo
	}
	n, ok := info.SyscallNumbers[int(sysno)]
	if !ok {
		return "", &NoSuchSyscallError{Number: int(sysno)}
	}
	return n, nil
}

// ToSyscallNo 名称转系统调用号，同一架构上结果固定
func ToSyscallNo(name string) (int, error) {
	if errInfo != nil {
		return 0, errInfo
	}
	n, ok := info.SyscallNames[name]
	if !ok {
		return 0, &NoSuchSyscallError{Name: name, Number: -1}
	}
	return n, nil
}
