package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// InputFingerprint identifies the exact inputs of a run: identical category
// definitions, signal and configuration produce the same fingerprint.
type InputFingerprint Hash

func (h InputFingerprint) String() string { return Hash(h).String() }

// ComputeInputFingerprint hashes the canonical JSON encoding of each part in
// order. encoding/json writes map keys sorted, so parts containing maps are
// stable as long as slices are already in a canonical order.
func ComputeInputFingerprint(parts ...interface{}) (InputFingerprint, error) {
	h := sha256.New()
	for _, part := range parts {
		data, err := json.Marshal(part)
		if err != nil {
			return "", err
		}
		h.Write(data)
		h.Write([]byte{0})
	}
	return InputFingerprint(hex.EncodeToString(h.Sum(nil))), nil
}
