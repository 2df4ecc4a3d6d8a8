// Package disallow 把系统调用名解析为当前架构的系统调用号
//
// 两种拦截方式共用同一个 Set：seccomp 模式把它编译进过滤器，
// ptrace 模式在每次系统调用入口查询它。
package disallow

import (
	"golang.org/x/xerrors"

	"github.com/zqzqsb/seccompbench/pkg/seccomp/libseccomp"
)

// DefaultNames 是默认禁止的网络相关系统调用
var DefaultNames = []string{
	"socket",
	"connect",
	"accept",
	"sendto",
	"recvfrom",
	"bind",
	"listen",
}

// Set 是有序的系统调用号列表，构造之后只读
type Set struct {
	names   []string
	numbers []int
	index   map[int]string
}

// Build 依次解析 names，任意一个失败都返回错误，不会返回部分结果
func Build(names []string) (Set, error) {
	s := Set{
		names:   make([]string, 0, len(names)),
		numbers: make([]int, 0, len(names)),
		index:   make(map[int]string, len(names)),
	}
	for _, name := range names {
		nr, err := libseccomp.ToSyscallNo(name)
		if err != nil {
			return Set{}, xerrors.Errorf("failed to add system call %q: %w", name, err)
		}
		if _, ok := s.index[nr]; ok {
			continue
		}
		s.names = append(s.names, name)
		s.numbers = append(s.numbers, nr)
		s.index[nr] = name
	}
	return s, nil
}

// Default 解析 DefaultNames
func Default() (Set, error) {
	return Build(DefaultNames)
}

// Contains 报告 nr 是否被禁止
func (s Set) Contains(nr int) bool {
	_, ok := s.index[nr]
	return ok
}

// Name 返回 nr 对应的名称
func (s Set) Name(nr int) (string, bool) {
	n, ok := s.index[nr]
	return n, ok
}

// Numbers 按构造顺序返回系统调用号
func (s Set) Numbers() []int {
	return append([]int(nil), s.numbers...)
}

// Names 按构造顺序返回名称
func (s Set) Names() []string {
	return append([]string(nil), s.names...)
}

func (s Set) Len() int {
	return len(s.numbers)
}
