package ptrace

import (
	"context"

	"cdr.dev/slog"

	"github.com/zqzqsb/seccompbench/pkg/forkexec"
	"github.com/zqzqsb/seccompbench/ptracer"
	"github.com/zqzqsb/seccompbench/runner"
)

// Run 启动子进程并在 ptrace 跟踪循环下等待它结束
func (r *Runner) Run(c context.Context) runner.Result {
	ch := &forkexec.Runner{
		Args:    r.Args,
		Env:     r.Env,
		RLimits: r.RLimits,
		Files:   r.Files,
		WorkDir: r.WorkDir,
		Ptrace:  true,
	}

	th := &tracerHandler{
		ctx:         c,
		logger:      r.Logger,
		disallowed:  r.Disallowed,
		counter:     make(syscallCounter),
		ShowDetails: r.ShowDetails,
	}

	tracer := ptracer.Tracer{
		Handler: th,
		Runner:  ch,
	}

	result := tracer.Trace(c)
	r.Logger.Debug(c, "trace finished",
		slog.F("result", result.String()),
		slog.F("stops", result.Trace.Stops),
		slog.F("decisions", result.Trace.Decisions),
		slog.F("signals", result.Trace.Signals),
		slog.F("top_syscalls", th.counter.top(5)),
	)
	return result
}
