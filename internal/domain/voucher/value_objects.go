package voucher

import (
	"crypto/rand"
	"errors"
	"math/big"
	"regexp"
	"strings"
)

var (
	ErrInvalidCode       = errors.New("invalid voucher code format")
	ErrInvalidCodeLength = errors.New("voucher code length must be 4-24 characters")
)

const (
	MinCodeLength     = 4
	MaxCodeLength     = 24
	DefaultCodeLength = 10

	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var codeRegex = regexp.MustCompile(`^[A-Z0-9]{4,24}$`)

type Code string

func NewCode(raw string) (Code, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !codeRegex.MatchString(code) {
		return Code(""), ErrInvalidCode
	}
	return Code(code), nil
}

func (c Code) String() string {
	return string(c)
}

// CodeSource yields random indexes into the code alphabet. The production
// source draws from crypto/rand; tests substitute a deterministic one.
type CodeSource interface {
	Intn(n int) (int, error)
}

type CryptoCodeSource struct{}

func (CryptoCodeSource) Intn(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// GenerateCode produces a random A-Z0-9 code of the given length.
func GenerateCode(length int, source CodeSource) (Code, error) {
	if length < MinCodeLength || length > MaxCodeLength {
		return Code(""), ErrInvalidCodeLength
	}
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		idx, err := source.Intn(len(codeAlphabet))
		if err != nil {
			return Code(""), err
		}
		b.WriteByte(codeAlphabet[idx])
	}
	return Code(b.String()), nil
}
