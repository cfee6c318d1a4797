package idgen

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
)

// GenerateBatch 并发生成 count 个默认参数的 ID，最多同时运行 workers 个 goroutine.
// 随机源必须是并发安全的。任一生成失败或 ctx 取消时返回首个错误。
func (g *Generator) GenerateBatch(ctx context.Context, count, workers int) ([]string, error) {
	if count < 1 {
		return nil, ErrInvalidCount.Clone(fmt.Sprintf("got %d", count), nil)
	}
	workers = min(max(workers, 1), count)

	p := pool.NewWithResults[string]().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(workers)

	for range count {
		p.Go(func(ctx context.Context) (string, error) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return g.Generate()
		})
	}

	ids, err := p.Wait()
	if err != nil {
		return nil, err
	}
	return ids, nil
}
