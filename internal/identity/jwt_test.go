package identity

import (
	"strings"
	"testing"
	"time"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService("test-secret-at-least-16-chars")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return svc
}

func TestIssueAndValidate(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.Issue("user123", "Ada", DefaultTokenLifetime)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Fatalf("token has %d parts, want 3", len(parts))
	}

	session, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if id, ok := session.UserID(); !ok || id != "user123" {
		t.Errorf("UserID() = %q, %v", id, ok)
	}
	if name, ok := session.DisplayName(); !ok || name != "Ada" {
		t.Errorf("DisplayName() = %q, %v", name, ok)
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.Issue("user123", "", -time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := svc.Validate(token); err == nil {
		t.Error("Validate() should reject an expired token")
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	svc := newTestTokenService(t)
	other, _ := NewTokenService("another-secret-16-chars-long")

	token, _ := svc.Issue("user123", "", DefaultTokenLifetime)
	if _, err := other.Validate(token); err == nil {
		t.Error("Validate() should reject a token signed with a different secret")
	}
}

func TestValidate_Garbage(t *testing.T) {
	svc := newTestTokenService(t)
	if _, err := svc.Validate("not.a.token"); err == nil {
		t.Error("Validate() should reject garbage input")
	}
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Error("NewTokenService() should reject short secrets")
	}
}

func TestAnonymousProvider(t *testing.T) {
	if _, ok := Anonymous.UserID(); ok {
		t.Error("Anonymous should report no user")
	}
}
