package auth

import (
	"testing"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, "user-1", model.RoleStaff)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Errorf("expected user_id 'user-1', got %q", claims.UserID)
	}
	if claims.Role != model.RoleStaff {
		t.Errorf("expected role 'staff', got %q", claims.Role)
	}
	if claims.ID == "" {
		t.Error("expected a jti")
	}

	caller := claims.Caller()
	if !caller.IsStaff() || caller.ID != "user-1" {
		t.Errorf("unexpected caller %+v", caller)
	}
}

func TestTokensHaveUniqueJTI(t *testing.T) {
	t1, _ := GenerateToken("s", "u", model.RoleStudent)
	t2, _ := GenerateToken("s", "u", model.RoleStudent)
	c1, _ := ValidateToken("s", t1)
	c2, _ := ValidateToken("s", t2)
	if c1.ID == c2.ID {
		t.Error("expected distinct jti values")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", "u", model.RoleStaff)

	if _, err := ValidateToken("secret2", token); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	if _, err := ValidateToken("secret", "not-a-token"); err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestTokenExpiry(t *testing.T) {
	secret := "test"
	token, _ := GenerateToken(secret, "u", model.RoleStudent)
	claims, _ := ValidateToken(secret, token)

	diff := time.Now().Add(TokenExpiry).Sub(claims.ExpiresAt.Time)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "hunter22") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "hunter23") {
		t.Error("expected wrong password to fail")
	}
	if CheckPassword("", "") {
		t.Error("empty hash must never match")
	}
}
