// Package idgen 生成短小、URL 安全的唯一 ID.
//
// 算法从可插拔的随机字节源取批量字节，用掩码截取低位作为字母表下标，
// 超出字母表的下标直接丢弃（拒绝采样），从而避免 byte % len(alphabet) 带来的取模偏差。
package idgen

import (
	"fmt"
)

const (
	// DefaultAlphabet 默认 64 字符 URL 安全字母表.
	DefaultAlphabet = "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// DefaultSize 默认 ID 长度，约 126 bit 熵.
	DefaultSize = 21

	maxAlphabetSize = 255
)

type drawStats struct {
	rounds   int
	drawn    int
	rejected int
}

// Generate 使用 src 从 alphabet 中采样 size 个符号组成 ID.
//
// 字母表按字节处理，长度须在 [1, 255]；重复符号不做校验，只会让对应符号出现得更频繁。
// 参数非法时在读取任何随机字节之前返回 ErrInvalidAlphabet 或 ErrInvalidSize。
// 该函数不限制调用随机源的次数：随机源若始终给出越界字节，调用将不会结束；
// 需要上限时使用 Generator 与 WithMaxRounds。
// 并发调用共享同一 src 时，src 自身必须是并发安全的。
func Generate(src Source, alphabet string, size int) (string, error) {
	var st drawStats
	return generate(src, alphabet, size, 0, &st)
}

func validate(alphabet string, size int) error {
	if len(alphabet) == 0 || len(alphabet) > maxAlphabetSize {
		return ErrInvalidAlphabet.Clone(fmt.Sprintf("got %d symbols", len(alphabet)), nil)
	}
	if size <= 0 {
		return ErrInvalidSize.Clone(fmt.Sprintf("got %d", size), nil)
	}
	if _, ok := computeStep(computeMask(len(alphabet)), size, len(alphabet)); !ok {
		return ErrInvalidSize.Clone(fmt.Sprintf("got %d, batch would exceed %d bytes", size, maxStep), nil)
	}
	return nil
}

func generate(src Source, alphabet string, size, maxRounds int, st *drawStats) (string, error) {
	if err := validate(alphabet, size); err != nil {
		return "", err
	}

	alphabetSize := len(alphabet)
	mask := computeMask(alphabetSize)
	step, _ := computeStep(mask, size, alphabetSize)

	id := make([]byte, size)
	batch := make([]byte, step)
	filled := 0

	for round := 1; ; round++ {
		if maxRounds > 0 && round > maxRounds {
			return "", ErrRandomnessExhausted.Clone(
				fmt.Sprintf("%d rounds of %d bytes yielded %d of %d symbols", maxRounds, step, filled, size), nil)
		}
		if err := src.Fill(batch); err != nil {
			return "", ErrSourceFailure.Clone(fmt.Sprintf("round %d", round), err)
		}
		st.rounds = round
		st.drawn += step

		for _, b := range batch {
			idx := int(b) & mask
			if idx >= alphabetSize {
				st.rejected++
				continue
			}
			id[filled] = alphabet[idx]
			filled++
			if filled == size {
				return string(id), nil
			}
		}
	}
}
