package ptrace

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cdr.dev/slog"

	"github.com/zqzqsb/seccompbench/disallow"
	"github.com/zqzqsb/seccompbench/pkg/seccomp/libseccomp"
	"github.com/zqzqsb/seccompbench/ptracer"
)

// tracerHandler 在每个系统调用入口查询禁止列表
type tracerHandler struct {
	ctx         context.Context
	logger      slog.Logger
	disallowed  disallow.Set
	counter     syscallCounter
	ShowDetails bool
}

func (h *tracerHandler) Debug(v ...interface{}) {
	if h.ShowDetails {
		h.logger.Debug(h.ctx, strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
	}
}

func (h *tracerHandler) Handle(ctx *ptracer.Context) ptracer.TraceAction {
	syscallNo := ctx.SyscallNo()
	h.counter.add(syscallNo)
	if !h.disallowed.Contains(int(syscallNo)) {
		return ptracer.TraceAllow
	}
	name, _ := h.disallowed.Name(int(syscallNo))
	h.logger.Debug(h.ctx, "disallowed syscall",
		slog.F("pid", ctx.Pid),
		slog.F("syscall", syscallNo),
		slog.F("name", name),
		slog.F("args", ctx.Args()),
	)
	return ptracer.TraceKill
}

// syscallCounter 统计每个系统调用号在入口处出现的次数
type syscallCounter map[uint]int

func (s syscallCounter) add(nr uint) {
	s[nr]++
}

type syscallCount struct {
	Name  string
	Count int
}

// top 按次数降序返回前 n 个系统调用
func (s syscallCounter) top(n int) []syscallCount {
	counts := make([]syscallCount, 0, len(s))
	for nr, c := range s {
		name, err := libseccomp.ToSyscallName(nr)
		if err != nil {
			name = fmt.Sprintf("syscall_%d", nr)
		}
		counts = append(counts, syscallCount{Name: name, Count: c})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Name < counts[j].Name
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
