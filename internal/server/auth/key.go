// Package auth derives access keys and the digests stored in their place.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// maxUnbiased is the largest multiple of len(alphabet) that fits in a byte;
// random bytes at or above it are rejected.
const maxUnbiased = 256 - 256%len(alphabet)

// GenerateKey builds an access key for an external identity of length L:
// every identity character is followed by one random alphanumeric character,
// giving a key of length 2L.
func GenerateKey(externalID string) (string, error) {
	return generateKey(rand.Reader, externalID)
}

func generateKey(r io.Reader, externalID string) (string, error) {
	out := make([]byte, 0, 2*len(externalID))
	buf := make([]byte, 1)
	for i := 0; i < len(externalID); i++ {
		out = append(out, externalID[i])
		for {
			if _, err := io.ReadFull(r, buf); err != nil {
				return "", fmt.Errorf("read random: %w", err)
			}
			if int(buf[0]) < maxUnbiased {
				break
			}
		}
		out = append(out, alphabet[int(buf[0])%len(alphabet)])
	}
	return string(out), nil
}

// Digester maps keys to a keyed BLAKE2b-256 hex digest.
type Digester struct {
	secret []byte
}

// NewDigester returns a Digester keyed with secret. Secrets longer than
// blake2b.Size are compressed first since BLAKE2b keys are capped at 64 bytes.
func NewDigester(secret string) *Digester {
	s := []byte(secret)
	if len(s) > blake2b.Size {
		sum := blake2b.Sum256(s)
		s = sum[:]
	}
	return &Digester{secret: s}
}

func (d *Digester) Digest(key string) string {
	h, err := blake2b.New256(d.secret)
	if err != nil {
		// only reachable with a key over 64 bytes, which NewDigester prevents
		panic(err)
	}
	h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))
}
