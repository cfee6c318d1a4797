package idgen

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"sync"
)

// Source 随机字节源：用随机字节填满 p.
// Generate 每次调用只借用 Source，不持有其状态。
type Source interface {
	Fill(p []byte) error
}

// SourceFunc 将普通函数适配为 Source.
type SourceFunc func(p []byte) error

// Fill 调用 f(p).
func (f SourceFunc) Fill(p []byte) error {
	return f(p)
}

// CryptoSource 基于 crypto/rand 的随机源，并发安全，是默认随机源.
type CryptoSource struct{}

// Fill 从操作系统 CSPRNG 读取随机字节.
func (CryptoSource) Fill(p []byte) error {
	_, err := rand.Read(p)
	return err
}

type readerSource struct {
	r io.Reader
}

// FromReader 将 io.Reader 适配为 Source；读不满 p 视为错误.
func FromReader(r io.Reader) Source {
	return readerSource{r: r}
}

func (s readerSource) Fill(p []byte) error {
	_, err := io.ReadFull(s.r, p)
	return err
}

// Uint32Generator 任何能产生 32 位随机整数的生成器，例如 *math/rand/v2.Rand.
type Uint32Generator interface {
	Uint32() uint32
}

type wordSource struct {
	gen Uint32Generator
}

// Words 将 Uint32Generator 适配为 Source.
// 完整的 32 位字按小端序写入，末尾不足 4 字节的部分取自额外一个字的低位字节。
// 返回的 Source 是否并发安全取决于 gen。
func Words(gen Uint32Generator) Source {
	return wordSource{gen: gen}
}

func (s wordSource) Fill(p []byte) error {
	whole := len(p) &^ 3
	for i := 0; i < whole; i += 4 {
		binary.LittleEndian.PutUint32(p[i:], s.gen.Uint32())
	}
	if whole == len(p) {
		return nil
	}
	last := s.gen.Uint32()
	for i := whole; i < len(p); i++ {
		p[i] = byte(last >> (8 * (i - whole)))
	}
	return nil
}

type lockedSource struct {
	mu  sync.Mutex
	src Source
}

// Locked 用互斥锁包装 src，使非并发安全的随机源可以在多个 goroutine 间共享.
func Locked(src Source) Source {
	return &lockedSource{src: src}
}

func (s *lockedSource) Fill(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Fill(p)
}
