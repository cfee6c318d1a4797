package idgen

import (
	"context"
	"sync"

	"github.com/wyfcoding/nanoid/async"
	"github.com/wyfcoding/nanoid/config"
)

// 进程级默认生成器，只初始化一次.
var (
	defaultGenerator *Generator
	defaultErr       error
	defaultOnce      sync.Once
)

func builtinGenerator() *Generator {
	return &Generator{
		source:   CryptoSource{},
		alphabet: DefaultAlphabet,
		size:     DefaultSize,
		runner:   async.DefaultRunner,
	}
}

// Init 按配置初始化默认生成器，仅首次调用生效.
// 配置无效时返回错误，默认生成器回退为 CryptoSource + 默认参数。
func Init(cfg config.GeneratorConfig, opts ...Option) error {
	defaultOnce.Do(func() {
		defaultGenerator, defaultErr = NewFromConfig(cfg, opts...)
		if defaultErr != nil {
			defaultGenerator = builtinGenerator()
		}
	})
	return defaultErr
}

// Default 返回默认生成器；未调用 Init 时使用 CryptoSource + 默认参数.
func Default() *Generator {
	defaultOnce.Do(func() {
		defaultGenerator = builtinGenerator()
	})
	return defaultGenerator
}

// GenID 使用默认生成器生成 ID.
func GenID() (string, error) {
	return Default().Generate()
}

// GenIDWithAlphabet 使用默认生成器与指定字母表生成 ID.
func GenIDWithAlphabet(alphabet string) (string, error) {
	return Default().GenerateWithAlphabet(alphabet)
}

// GenIDWithSize 使用默认生成器与指定长度生成 ID.
func GenIDWithSize(size int) (string, error) {
	return Default().GenerateWithSize(size)
}

// GenIDWith 使用默认生成器与指定字母表、长度生成 ID.
func GenIDWith(alphabet string, size int) (string, error) {
	return Default().GenerateWith(alphabet, size)
}

// GenIDAsync 异步版本的 GenID.
func GenIDAsync(ctx context.Context) *async.Future[string] {
	return Default().GenerateAsync(ctx)
}

// GenIDWithAlphabetAsync 异步版本的 GenIDWithAlphabet.
func GenIDWithAlphabetAsync(ctx context.Context, alphabet string) *async.Future[string] {
	return Default().GenerateWithAlphabetAsync(ctx, alphabet)
}

// GenIDWithSizeAsync 异步版本的 GenIDWithSize.
func GenIDWithSizeAsync(ctx context.Context, size int) *async.Future[string] {
	return Default().GenerateWithSizeAsync(ctx, size)
}

// GenIDWithAsync 异步版本的 GenIDWith.
func GenIDWithAsync(ctx context.Context, alphabet string, size int) *async.Future[string] {
	return Default().GenerateWithAsync(ctx, alphabet, size)
}
