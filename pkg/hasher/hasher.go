// Package hasher computes streaming content digests for stored artifacts.
// Images use SHA-256; the generic file path uses SHA-512. Each artifact
// class sticks to one digest so names stay stable.
package hasher

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
)

// SHA256Hex returns the hex SHA-256 digest of r, computed incrementally.
func SHA256Hex(r io.Reader) (string, error) {
	return hexDigest(sha256.New(), r)
}

// SHA512Hex returns the hex SHA-512 digest of r, computed incrementally.
func SHA512Hex(r io.Reader) (string, error) {
	return hexDigest(sha512.New(), r)
}

func hexDigest(h hash.Hash, r io.Reader) (string, error) {
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to hash stream: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
