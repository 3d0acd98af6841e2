// Package hashutil computes the SHA-256 digests used throughout the update
// protocol: package hashes, per-file source/target hashes, and the package
// hash chain verified by the applier.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/minecanton209/patchy/internal/updateerr"
)

// Bytes returns the lowercase hex SHA-256 digest of b.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Stream consumes r until EOF and returns its lowercase hex SHA-256 digest.
func Stream(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", updateerr.Wrap(updateerr.Io, "", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// File returns the lowercase hex SHA-256 digest of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", updateerr.Wrap(updateerr.Io, path, err)
	}
	defer f.Close()

	digest, err := Stream(f)
	if err != nil {
		return "", updateerr.Wrap(updateerr.Io, path, err)
	}
	return digest, nil
}

// Equal reports whether two hex digests denote the same hash, ignoring case.
// Storage is always lowercase; comparison tolerates uppercase input.
func Equal(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Valid reports whether digest looks like a 64-character lowercase hex
// SHA-256 string, per the manifest's hash-field invariant.
func Valid(digest string) bool {
	if len(digest) != 64 {
		return false
	}
	for _, r := range digest {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			return false
		}
	}
	return true
}
