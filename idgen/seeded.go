package idgen

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	randv2 "math/rand/v2"

	"github.com/wyfcoding/nanoid/config"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20"
)

// 随机源类型，对应配置项 generator.source.
const (
	SourceCrypto   = "crypto"
	SourceChaCha20 = "chacha20"
	SourcePCG      = "pcg"
)

const seedSize = 32

type chachaSource struct {
	cipher *chacha20.Cipher
}

// NewChaCha20Source 返回由 seed 确定的 ChaCha20 密钥流随机源.
// 相同 seed 产生相同字节序列，适合可复现的测试数据；seed 经 BLAKE2b-256 派生为密钥。
// 单个实例约可输出 256 GiB，之后 chacha20 会因计数器溢出 panic。非并发安全。
func NewChaCha20Source(seed []byte) (Source, error) {
	key := blake2b.Sum256(seed)
	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce)
	if err != nil {
		return nil, fmt.Errorf("create chacha20 cipher: %w", err)
	}
	return &chachaSource{cipher: c}, nil
}

func (s *chachaSource) Fill(p []byte) error {
	clear(p)
	s.cipher.XORKeyStream(p, p)
	return nil
}

// NewPCGSource 返回由 seed 确定的 PCG 随机源（非密码学安全），非并发安全.
func NewPCGSource(seed []byte) Source {
	d := blake2b.Sum256(seed)
	pcg := randv2.NewPCG(binary.LittleEndian.Uint64(d[:8]), binary.LittleEndian.Uint64(d[8:16]))
	return Words(randv2.New(pcg))
}

// NewSource 根据配置创建随机源. 带种子的随机源会被 Locked 包装；
// 种子为空时从 crypto/rand 取 32 字节作为种子。
func NewSource(cfg config.GeneratorConfig) (Source, error) {
	switch cfg.Source {
	case "", SourceCrypto:
		return CryptoSource{}, nil
	case SourceChaCha20:
		seed, err := seedBytes(cfg.Seed)
		if err != nil {
			return nil, err
		}
		src, err := NewChaCha20Source(seed)
		if err != nil {
			return nil, ErrSourceFailure.Clone("chacha20", err)
		}
		return Locked(src), nil
	case SourcePCG:
		seed, err := seedBytes(cfg.Seed)
		if err != nil {
			return nil, err
		}
		return Locked(NewPCGSource(seed)), nil
	default:
		return nil, ErrUnknownSource.Clone(fmt.Sprintf("source %q", cfg.Source), nil)
	}
}

func seedBytes(seed string) ([]byte, error) {
	if seed != "" {
		return []byte(seed), nil
	}
	b := make([]byte, seedSize)
	if _, err := rand.Read(b); err != nil {
		return nil, ErrSourceFailure.Clone("seeding", err)
	}
	return b, nil
}
