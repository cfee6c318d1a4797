// Package async 提供 Future 与带 panic 恢复的 goroutine 调度。
package async

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// ErrPanicRecovered 表示异步任务中恢复的 panic。
var ErrPanicRecovered = errors.New("async task panic recovered")

// Runner 安全地启动 goroutine，自动处理 panic。
type Runner struct {
	logger *slog.Logger
}

// NewRunner 创建 Runner；logger 为空时使用 slog.Default()。
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{logger: logger}
}

// DefaultRunner 是默认的安全执行器。
var DefaultRunner = NewRunner(nil)

// Go 启动 fn，panic 被记录后吞掉。
func (r *Runner) Go(fn func()) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logPanic(rec)
			}
		}()
		fn()
	}()
}

func (r *Runner) logPanic(rec any) {
	logger := r.logger
	if logger == nil {
		logger = slog.Default()
	}
	err := fmt.Errorf("%w: %v", ErrPanicRecovered, rec)
	logger.Error("async task panic recovered", "error", err, "stack", string(debug.Stack()))
}
