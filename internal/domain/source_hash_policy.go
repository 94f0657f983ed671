package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SourceHashPolicy computes a stable hash for a document source so repeated
// uploads of the same content are detected and skipped.
type SourceHashPolicy interface {
	Compute(name, body string) string
}

type sourceHashPolicy struct{}

// NewSourceHashPolicy creates the default SourceHashPolicy.
func NewSourceHashPolicy() SourceHashPolicy {
	return &sourceHashPolicy{}
}

// Compute returns the SHA-256 of the trimmed name and body. A null byte
// separates the two so ("ab","c") and ("a","bc") hash differently.
func (p *sourceHashPolicy) Compute(name, body string) string {
	content := strings.TrimSpace(name) + "\x00" + strings.TrimSpace(body)
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
