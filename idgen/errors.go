package idgen

import "github.com/wyfcoding/nanoid/xerrors"

// 包级哨兵错误，仅用于 errors.Is 比较；实际返回的错误均为带堆栈的新实例.
var (
	// ErrInvalidAlphabet 字母表长度不在 [1, 255] 范围内.
	ErrInvalidAlphabet = xerrors.Sentinel(xerrors.ErrInvalidArg, 400101, "alphabet must contain between 1 and 255 symbols")
	// ErrInvalidSize ID 长度必须为正数.
	ErrInvalidSize = xerrors.Sentinel(xerrors.ErrInvalidArg, 400102, "size must be greater than zero")
	// ErrInvalidCount 批量生成数量必须为正数.
	ErrInvalidCount = xerrors.Sentinel(xerrors.ErrInvalidArg, 400103, "count must be greater than zero")
	// ErrUnknownSource 配置中的随机源类型不受支持.
	ErrUnknownSource = xerrors.Sentinel(xerrors.ErrInvalidArg, 400104, "unknown random source")
	// ErrRandomnessExhausted 在最大轮次内未能采样到足够的有效符号.
	ErrRandomnessExhausted = xerrors.Sentinel(xerrors.ErrLimitExceeded, 429101, "random source exhausted before id was complete")
	// ErrSourceFailure 随机源读取失败.
	ErrSourceFailure = xerrors.Sentinel(xerrors.ErrInternal, 500101, "random source failed")
)
