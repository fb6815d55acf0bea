package auth

import (
	"strings"
	"testing"
)

func TestHashPassword_Format(t *testing.T) {
	hash, err := HashPassword("pw12345")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Errorf("unexpected hash prefix: %s", hash)
	}

	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		t.Errorf("expected 6 PHC segments, got %d", len(parts))
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h1, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("first hash failed: %v", err)
	}
	h2, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("second hash failed: %v", err)
	}

	if h1 == h2 {
		t.Error("two hashes of the same password should differ (random salt)")
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("pw12345")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	match, err := VerifyPassword("pw12345", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error: %v", err)
	}
	if !match {
		t.Error("expected correct password to verify")
	}

	match, err = VerifyPassword("wrong-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error: %v", err)
	}
	if match {
		t.Error("expected wrong password to fail verification")
	}
}

func TestVerifyPassword_InvalidHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"garbage", "not-a-hash"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA"},
		{"missing segments", "$argon2id$v=19$m=65536,t=3,p=4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifyPassword("pw12345", tt.hash); err == nil {
				t.Error("expected error for invalid hash")
			}
		})
	}
}

func TestQuickHash_Deterministic(t *testing.T) {
	a := QuickHash("rcp_abc123_deadbeef")
	b := QuickHash("rcp_abc123_deadbeef")
	c := QuickHash("rcp_abc123_deadbeee")

	if a != b {
		t.Error("QuickHash should be deterministic")
	}
	if a == c {
		t.Error("different inputs should hash differently")
	}
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(a))
	}
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	if !ValidateTokenFormat(token) {
		t.Errorf("generated token does not match expected format: %s", token)
	}

	other, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if token == other {
		t.Error("two generated tokens should differ")
	}
}

func TestValidateTokenFormat(t *testing.T) {
	tests := []struct {
		name  string
		token string
		valid bool
	}{
		{"valid", "rcp_7a9b3c_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", true},
		{"documented example", "rcp_7a9e3c_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", true},
		{"non-hex prefix", "rcp_7a9x3k_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", false},
		{"empty", "", false},
		{"wrong prefix", "tok_7a9b3c_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", false},
		{"short secret", "rcp_7a9b3c_4f8d2e1b", false},
		{"uppercase hex", "rcp_7A9B3C_4F8D2E1B9C7A5F3D2E1B9C7A5F3D2E1B", false},
		{"missing separator", "rcp7a9b3c4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateTokenFormat(tt.token); got != tt.valid {
				t.Errorf("ValidateTokenFormat(%q) = %v, want %v", tt.token, got, tt.valid)
			}
		})
	}
}
