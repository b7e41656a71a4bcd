package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const minPepperBytes = 16

// Hasher derives hex-encoded SHA-256 digests of password+pepper. It is
// immutable after construction and safe for concurrent use.
type Hasher struct {
	pepper []byte
}

// NewHasher validates the pepper and builds a hasher.
func NewHasher(pepper []byte) (*Hasher, error) {
	if len(pepper) < minPepperBytes {
		return nil, fmt.Errorf("password: pepper must be at least %d bytes", minPepperBytes)
	}
	owned := make([]byte, len(pepper))
	copy(owned, pepper)
	return &Hasher{pepper: owned}, nil
}

// Hash returns the digest of the plaintext. Equal inputs always produce
// equal digests.
func (h *Hasher) Hash(plain string) string {
	sum := sha256.New()
	sum.Write([]byte(plain))
	sum.Write(h.pepper)
	return hex.EncodeToString(sum.Sum(nil))
}

// Match reports whether the plaintext hashes to digest. The comparison is
// constant-time.
func (h *Hasher) Match(plain, digest string) bool {
	computed := h.Hash(plain)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}
