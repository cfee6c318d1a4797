package idgen

import (
	"context"

	"github.com/wyfcoding/nanoid/async"
)

// GenerateAsync 在独立 goroutine 中执行 Generate.
func (g *Generator) GenerateAsync(ctx context.Context) *async.Future[string] {
	return g.GenerateWithAsync(ctx, g.alphabet, g.size)
}

// GenerateWithAlphabetAsync 在独立 goroutine 中执行 GenerateWithAlphabet.
func (g *Generator) GenerateWithAlphabetAsync(ctx context.Context, alphabet string) *async.Future[string] {
	return g.GenerateWithAsync(ctx, alphabet, g.size)
}

// GenerateWithSizeAsync 在独立 goroutine 中执行 GenerateWithSize.
func (g *Generator) GenerateWithSizeAsync(ctx context.Context, size int) *async.Future[string] {
	return g.GenerateWithAsync(ctx, g.alphabet, size)
}

// GenerateWithAsync 在独立 goroutine 中执行 GenerateWith. 错误通过 Future.Get 返回；
// ctx 在调度前已取消时不会读取随机源。
func (g *Generator) GenerateWithAsync(ctx context.Context, alphabet string, size int) *async.Future[string] {
	runner := g.runner
	if runner == nil {
		runner = async.DefaultRunner
	}
	return async.Submit(ctx, runner, func(context.Context) (string, error) {
		return g.GenerateWith(alphabet, size)
	})
}
