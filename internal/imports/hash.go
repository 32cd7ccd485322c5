package imports

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// hasher streams content into SHA-256 while it is being copied.
type hasher struct {
	h hash.Hash
}

func newHasher() *hasher { return &hasher{h: sha256.New()} }

func (s *hasher) Write(p []byte) (int, error) { return s.h.Write(p) }

func (s *hasher) Hex() string { return hex.EncodeToString(s.h.Sum(nil)) }

// hashBytes returns the hex SHA-256 digest of raw content. No newline
// normalization: comparisons must be stable across checkouts and platforms.
func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashFile returns the hex SHA-256 digest of a file's content, or an empty
// string with ok=false when the file does not exist.
func hashFile(path string) (hash string, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", false, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), true, nil
}
