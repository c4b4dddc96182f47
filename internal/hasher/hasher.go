package hasher

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Algorithm selects the digest function used for file contents.
type Algorithm string

const (
	Blake3 Algorithm = "blake3"
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
)

// Default is the algorithm used when none is selected.
const Default = Blake3

const readBufferSize = 32 * 1024

// Parse resolves a user-supplied algorithm name.
func Parse(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case Blake3, MD5, SHA1, SHA256, SHA512:
		return Algorithm(s), nil
	case "":
		return Default, nil
	default:
		return "", fmt.Errorf("unknown algorithm %q (use blake3, md5, sha1, sha256, or sha512)", s)
	}
}

// New returns a fresh hash state for the algorithm.
//
//nolint:ireturn // hash.Hash is the contract here
func (a Algorithm) New() hash.Hash {
	switch a {
	case MD5:
		return md5.New()
	case SHA1:
		return sha1.New()
	case SHA256:
		return sha256.New()
	case SHA512:
		return sha512.New()
	default:
		return blake3.New()
	}
}

// HashReader streams r through the algorithm and returns the hex-encoded
// digest and the number of bytes read.
func (a Algorithm) HashReader(r io.Reader) (string, int64, error) {
	h := a.New()
	buf := make([]byte, readBufferSize)
	n, err := io.CopyBuffer(h, r, buf)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// HashFile computes the digest of the file at path, returning the
// hex-encoded digest and the file's size in bytes.
func (a Algorithm) HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	digest, n, err := a.HashReader(f)
	if err != nil {
		return "", n, fmt.Errorf("hash %s: %w", path, err)
	}
	return digest, n, nil
}

// Truncate shortens a hex digest to at most n characters. n <= 0 or n
// beyond the digest length leaves the digest unchanged.
func Truncate(digest string, n int) string {
	if n <= 0 || n >= len(digest) {
		return digest
	}
	return digest[:n]
}
