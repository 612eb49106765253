package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	defaultIterations = 100000
	keyLen            = 64
	saltLen           = 16
)

// Hasher derives and verifies password digests with PBKDF2-SHA512. Every
// digest carries its own random salt and iteration count:
//
//	pbkdf2$100000$<hex salt>$<hex key>
type Hasher struct {
	iterations int
}

func NewHasher() *Hasher {
	return &Hasher{iterations: defaultIterations}
}

// NewHasherWithIterations is for tests that cannot afford the full work
// factor. Do not use in production.
func NewHasherWithIterations(n int) *Hasher {
	return &Hasher{iterations: n}
}

// Hash derives a digest for the password under a fresh random salt.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, h.iterations, keyLen, sha512.New)
	return fmt.Sprintf("pbkdf2$%d$%s$%s",
		h.iterations, hex.EncodeToString(salt), hex.EncodeToString(key)), nil
}

// Verify reports whether password matches digest. A digest that does not
// parse verifies as false. The comparison is constant-time.
func (h *Hasher) Verify(password, digest string) bool {
	parts := strings.Split(digest, "$")
	if len(parts) != 4 || parts[0] != "pbkdf2" {
		return false
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return false
	}
	salt, err := hex.DecodeString(parts[2])
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(parts[3])
	if err != nil || len(want) == 0 {
		return false
	}

	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha512.New)
	return hmac.Equal(got, want)
}
