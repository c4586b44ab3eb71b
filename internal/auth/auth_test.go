package auth

import (
	"slices"
	"testing"
	"time"
)

func setSecret(t *testing.T) {
	t.Helper()
	t.Setenv("CIVICGOV_AUTH_SECRET", "test-secret")
	ResetSecretForTests()
}

func TestGenerateAndValidate(t *testing.T) {
	setSecret(t)

	token, err := GenerateToken("clerk-1", "springfield", []string{"Clerk", "viewer", "clerk"}, 30*time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != "clerk-1" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.TenantID != "springfield" {
		t.Fatalf("unexpected tenant: %s", claims.TenantID)
	}
	if !slices.Contains(claims.Roles, "clerk") || !slices.Contains(claims.Roles, "viewer") {
		t.Fatalf("roles were not preserved: %v", claims.Roles)
	}
	if len(claims.Roles) != 2 {
		t.Fatalf("roles were not deduplicated: %v", claims.Roles)
	}
}

func TestGenerateTokenRequiresTenant(t *testing.T) {
	setSecret(t)
	if _, err := GenerateToken("clerk-1", "", nil, time.Hour); err == nil {
		t.Fatal("expected error without tenant")
	}
	if _, err := GenerateToken("", "springfield", nil, time.Hour); err == nil {
		t.Fatal("expected error without user")
	}
}

func TestExpiredTokenInvalid(t *testing.T) {
	setSecret(t)
	token, err := GenerateToken("clerk-1", "springfield", nil, time.Millisecond)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := ParseAndValidate(token); err == nil {
		t.Fatal("expected expired token to fail validation")
	}
}

func TestTamperedTokenInvalid(t *testing.T) {
	setSecret(t)
	token, err := GenerateToken("clerk-1", "springfield", nil, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	tampered := token[:len(token)-4] + "xxxx"
	if _, err := ParseAndValidate(tampered); err == nil {
		t.Fatal("expected tampered token to fail validation")
	}
}

func TestMissingSecret(t *testing.T) {
	t.Setenv("CIVICGOV_AUTH_SECRET", "")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	if _, err := GenerateToken("clerk-1", "springfield", nil, time.Hour); err == nil {
		t.Fatal("expected error without configured secret")
	}
}

func TestContextIdentityRoundTrip(t *testing.T) {
	ctx := ContextWithIdentity(t.Context(), "clerk-1", "springfield", []string{"Clerk"})

	if got, ok := UserIDFromContext(ctx); !ok || got != "clerk-1" {
		t.Fatalf("user id round trip failed: %q %v", got, ok)
	}
	if got, ok := TenantFromContext(ctx); !ok || got != "springfield" {
		t.Fatalf("tenant round trip failed: %q %v", got, ok)
	}
	if !HasRole(ctx, "clerk") {
		t.Fatal("HasRole must normalize case")
	}
	if HasRole(ctx, "admin") {
		t.Fatal("unexpected role")
	}
}
