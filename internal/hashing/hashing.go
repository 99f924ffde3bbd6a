// Package hashing computes the content-address used as the inventory's
// primary key. The algorithm is a deployment parameter: every
// node in a network must agree on it with its monitor and peers.
package hashing

import (
	"fmt"
	"io"

	digest "github.com/opencontainers/go-digest"
)

// Algorithm identifies a supported content-hashing scheme.
type Algorithm string

const (
	// SHA256 is the default: a 256-bit cryptographic digest.
	SHA256 Algorithm = Algorithm(digest.SHA256)
	// SHA512 is the 512-bit cryptographic option.
	SHA512 Algorithm = Algorithm(digest.SHA512)
)

// Hasher produces hex-string content hashes for a fixed algorithm.
type Hasher struct {
	algo digest.Algorithm
}

// New returns a Hasher for the given algorithm. An empty algorithm defaults
// to SHA256; an unknown or unavailable algorithm returns an error.
func New(algo Algorithm) (*Hasher, error) {
	a := digest.Algorithm(algo)
	if algo == "" {
		a = digest.SHA256
	}
	if !a.Available() {
		return nil, fmt.Errorf("hashing: algorithm %q is not available", algo)
	}
	return &Hasher{algo: a}, nil
}

// Hash returns the opaque hex digest string for bytes.
func (h *Hasher) Hash(bytes []byte) string {
	return h.algo.FromBytes(bytes).Encoded()
}

// HashReader streams r through the digest without buffering it twice in
// memory beyond what the caller already holds.
func (h *Hasher) HashReader(r io.Reader) (string, error) {
	d, err := h.algo.FromReader(r)
	if err != nil {
		return "", fmt.Errorf("hashing: %w", err)
	}
	return d.Encoded(), nil
}
