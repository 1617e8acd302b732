package service

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	codeMin  = 100000
	codeSpan = 900000 // codes fall in [100000, 999999]
)

// RandomCodeGenerator implements ports.CodeGenerator with crypto/rand.
type RandomCodeGenerator struct {
	reader io.Reader
}

// NewRandomCodeGenerator returns a generator backed by crypto/rand.Reader.
func NewRandomCodeGenerator() *RandomCodeGenerator {
	return &RandomCodeGenerator{reader: rand.Reader}
}

// Generate returns a uniformly distributed 6-digit code.
func (g *RandomCodeGenerator) Generate() (string, error) {
	n, err := rand.Int(g.reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}
