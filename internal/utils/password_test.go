package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("admin123", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "admin123" || hash == "" {
		t.Fatalf("hash looks wrong: %q", hash)
	}
	if !VerifyPassword(hash, "admin123") {
		t.Fatal("correct password rejected")
	}
	if VerifyPassword(hash, "admin124") {
		t.Fatal("wrong password accepted")
	}
}

func TestHashPassword_CostOutOfRangeFallsBack(t *testing.T) {
	for _, cost := range []int{-1, 0, bcrypt.MaxCost + 1} {
		hash, err := HashPassword("pw", cost)
		if err != nil {
			t.Fatalf("cost %d: %v", cost, err)
		}
		got, err := bcrypt.Cost([]byte(hash))
		if err != nil {
			t.Fatalf("cost %d: read back: %v", cost, err)
		}
		if got != bcrypt.DefaultCost {
			t.Fatalf("cost %d: hashed at %d, want default %d", cost, got, bcrypt.DefaultCost)
		}
	}
}
