package auth_test

import (
	"errors"
	"testing"

	"github.com/inkwell-app/inkwell/internal/auth"
	_ "github.com/inkwell-app/inkwell/testing"
)

func TestHasherRoundTrip(t *testing.T) {
	hasher := auth.NewHasher()
	digest, err := hasher.Hash("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if digest == "hunter22" {
		t.Fatalf("expected digest, got plaintext")
	}
	if !hasher.Verify("hunter22", digest) {
		t.Fatalf("expected digest to verify against original plaintext")
	}
	if hasher.Verify("hunter23", digest) {
		t.Fatalf("expected wrong password to fail verification")
	}
}

func TestHasherRejectsShortPassword(t *testing.T) {
	hasher := auth.NewHasher()
	if _, err := hasher.Hash("tiny"); !errors.Is(err, auth.ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestHasherDoesNotRehashDigest(t *testing.T) {
	hasher := auth.NewHasher()
	digest, err := hasher.Hash("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	again, err := hasher.Hash(digest)
	if err != nil {
		t.Fatalf("rehash: %v", err)
	}
	if again != digest {
		t.Fatalf("expected digest to pass through unchanged")
	}
	if !hasher.Verify("hunter22", again) {
		t.Fatalf("expected original plaintext to still verify")
	}
}
