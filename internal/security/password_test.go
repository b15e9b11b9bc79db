package security

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hasher := NewHasher("test-password-secret")

	hash, err := hasher.HashPassword("Str0ng!Pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}

	ok, err := hasher.VerifyPassword(hash, "Str0ng!Pass")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password rejected")
	}

	ok, err = hasher.VerifyPassword(hash, "Wr0ng!Pass")
	if err != nil {
		t.Fatalf("verify wrong: %v", err)
	}
	if ok {
		t.Fatal("wrong password accepted")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	hasher := NewHasher("test-password-secret")

	first, err := hasher.HashPassword("Str0ng!Pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := hasher.HashPassword("Str0ng!Pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password are identical; salt missing")
	}
}

func TestVerifyPasswordKeyedBySecret(t *testing.T) {
	hash, err := NewHasher("secret-a").HashPassword("Str0ng!Pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := NewHasher("secret-b").VerifyPassword(hash, "Str0ng!Pass")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("hash verified under a different server secret")
	}
}

func TestSecureHashDeterministicAndKeyed(t *testing.T) {
	a := NewHasher("secret-a")

	if a.SecureHash("token") != a.SecureHash("token") {
		t.Fatal("SecureHash is not deterministic")
	}
	if a.SecureHash("token") == a.SecureHash("other") {
		t.Fatal("distinct inputs collided")
	}
	if a.SecureHash("token") == NewHasher("secret-b").SecureHash("token") {
		t.Fatal("digest does not depend on the secret")
	}
	if len(a.SecureHash("token")) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a.SecureHash("token")))
	}
}

func TestRandomHex(t *testing.T) {
	value, err := RandomHex(0)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	if len(value) != 2*DefaultNonceBytes {
		t.Fatalf("default length: got %d, want %d", len(value), 2*DefaultNonceBytes)
	}

	short, err := RandomHex(4)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	if len(short) != 8 {
		t.Fatalf("explicit length: got %d, want 8", len(short))
	}

	other, err := RandomHex(4)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	if short == other {
		t.Fatal("two random values collided")
	}
}
