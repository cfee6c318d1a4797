package async

import (
	"context"
	"fmt"
)

// Future 代表一个异步计算的结果。
type Future[T any] struct {
	result T
	err    error
	done   chan struct{}
}

// NewFuture 通过 DefaultRunner 执行 fn。
func NewFuture[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	return Submit(ctx, DefaultRunner, fn)
}

// Submit 在 r 启动的 goroutine 中执行 fn，并返回承载其结果的 Future。
// ctx 在任务开始前已取消时，fn 不会被调用，Future 直接以 ctx.Err() 完成。
// fn 内的 panic 被转换为 ErrPanicRecovered。
func Submit[T any](ctx context.Context, r *Runner, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{
		done: make(chan struct{}),
	}
	r.Go(func() {
		defer close(f.done)
		defer func() {
			if rec := recover(); rec != nil {
				r.logPanic(rec)
				var zero T
				f.result = zero
				f.err = fmt.Errorf("%w: %v", ErrPanicRecovered, rec)
			}
		}()
		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.result, f.err = fn(ctx)
	})
	return f
}

// Done 在计算完成后关闭。
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get 阻塞等待计算完成并返回结果。
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-f.done:
		return f.result, f.err
	}
}
