// Package digest computes the BLAKE3 fingerprints recorded for every source
// document.
package digest

import (
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/WindevClarify/core/errors"
)

// Size is the length in hex characters of a digest.
const Size = 64

// Sum returns the hex BLAKE3-256 digest of data.
func Sum(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// File returns the digest of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.NewIO("open", path, err)
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.NewIO("read", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Valid reports whether s looks like a digest.
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil && strings.ToLower(s) == s
}
