// Package runner 定义拦截方式共用的运行接口与结果
package runner

import (
	"context"
)

// Runner 启动子进程并等待其结束
// 取消 context 会杀死子进程所在的进程组
type Runner interface {
	Run(context.Context) Result
}
