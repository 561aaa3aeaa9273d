package project

import "crypto/sha256"

// Digest is a SHA-256 value, compatible with source.File.Hash.
type Digest [32]byte

// Combine hashes content followed by every part in order.
func Combine(content Digest, parts ...string) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
