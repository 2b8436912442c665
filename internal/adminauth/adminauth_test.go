package adminauth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestCheckPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	t.Setenv("ADMIN_PASSWORD_HASH", string(hash))
	t.Setenv("ADMIN_PASSWORD", "")

	if err := CheckPassword("hunter2"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := CheckPassword("wrong"); err == nil {
		t.Error("wrong password accepted")
	}

	// Plaintext fallback for local dev.
	t.Setenv("ADMIN_PASSWORD_HASH", "")
	t.Setenv("ADMIN_PASSWORD", "localpass")
	if err := CheckPassword("localpass"); err != nil {
		t.Errorf("plaintext fallback rejected: %v", err)
	}
	if err := CheckPassword("nope"); err == nil {
		t.Error("plaintext fallback accepted wrong password")
	}

	// Nothing configured: always reject.
	t.Setenv("ADMIN_PASSWORD", "")
	if err := CheckPassword("anything"); err == nil {
		t.Error("unconfigured password accepted")
	}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "test-secret-0123456789")

	token, err := GenerateSessionToken()
	if err != nil {
		t.Fatal(err)
	}

	claims, err := ValidateSessionToken(token)
	if err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if claims.Role != "admin" {
		t.Errorf("role = %q, want admin", claims.Role)
	}

	if _, err := ValidateSessionToken(token + "x"); err == nil {
		t.Error("tampered token accepted")
	}

	t.Setenv("ADMIN_JWT_SECRET", "a-different-secret")
	if _, err := ValidateSessionToken(token); err == nil {
		t.Error("token signed with old secret accepted")
	}
}

func TestSessionTokenRequiresSecret(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "")
	if _, err := GenerateSessionToken(); err == nil {
		t.Error("missing secret should error")
	}
}
