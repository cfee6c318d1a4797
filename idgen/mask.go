package idgen

import (
	"math"
	"math/bits"
)

// computeMask 返回覆盖 alphabetSize-1 的最小 2^k-1 掩码。
// alphabetSize 为 1 时 (n-1)|1 保证结果为 1 而不是 0。
func computeMask(alphabetSize int) int {
	//nolint:gosec // alphabetSize 已校验在 [1, 255].
	return (1 << bits.Len32(uint32(alphabetSize-1)|1)) - 1
}

// maxStep 单批字节数上限，保证在 32 位平台上也能转换为 int.
const maxStep = math.MaxInt32

// computeStep 返回每批向随机源请求的字节数，使一批字节在期望上足以填满整个 ID。
// 结果超过 maxStep 时 ok 为 false。
func computeStep(mask, size, alphabetSize int) (step int, ok bool) {
	f := math.Ceil(1.6 * float64(mask) * float64(size) / float64(alphabetSize))
	if f > maxStep {
		return 0, false
	}
	return int(f), true
}
