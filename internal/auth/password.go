package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Hasher wraps the one-way password transform. Each call salts the input, so
// hashing the same plaintext twice yields different digests.
type Hasher struct {
	cost int
}

// NewHasher constructs a Hasher with the default bcrypt cost.
func NewHasher() *Hasher {
	return &Hasher{cost: bcrypt.DefaultCost}
}

// Hash produces a digest for a plaintext password. Input that already looks
// like a bcrypt digest is returned unchanged, guarding against the digest
// being run through the hasher a second time on an unrelated update.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if isBcryptDigest(plaintext) {
		return plaintext, nil
	}
	if len(plaintext) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether the plaintext matches the stored digest.
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

func isBcryptDigest(s string) bool {
	if len(s) != 60 {
		return false
	}
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
