package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Supported digest algorithms. Both produce 256-bit output.
const (
	AlgorithmSHA256  = "sha256"
	AlgorithmBLAKE2b = "blake2b-256"
)

// Digester turns canonical bytes into a fixed-length lowercase hex digest.
// Switching algorithms on an existing chain makes every old entry fail verification.
type Digester interface {
	Name() string
	Sum(data []byte) string
}

type sha256Digester struct{}

func (sha256Digester) Name() string { return AlgorithmSHA256 }

func (sha256Digester) Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type blake2bDigester struct{}

func (blake2bDigester) Name() string { return AlgorithmBLAKE2b }

func (blake2bDigester) Sum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SHA256 is the default digester
func SHA256() Digester { return sha256Digester{} }

// NewDigester resolves a digester by configuration name
func NewDigester(name string) (Digester, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", AlgorithmSHA256:
		return sha256Digester{}, nil
	case AlgorithmBLAKE2b, "blake2b":
		return blake2bDigester{}, nil
	}
	return nil, fmt.Errorf("unsupported hash algorithm %q", name)
}
