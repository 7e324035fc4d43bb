package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := HashPassword("supersafe")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return NewService("admin", hash, "test-secret")
}

func TestService_LoginAndVerify(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.Login("admin", "supersafe")
	if err != nil {
		t.Fatalf("login: unexpected error: %v", err)
	}
	if token == "" {
		t.Fatal("login: expected token, got empty string")
	}

	sub, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if sub != "admin" {
		t.Fatalf("verify token: expected admin, got %q", sub)
	}
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Login("admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login("root", "supersafe"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestService_VerifyTokenRejectsGarbage(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.VerifyToken("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	other := NewService("admin", string(mustHash(t, "supersafe")), "another-secret")
	token, err := other.Login("admin", "supersafe")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}

func TestService_VerifyTokenExpired(t *testing.T) {
	svc := newTestService(t)

	past := time.Now().Add(-48 * time.Hour)
	svc.WithClock(func() time.Time { return past })
	token, err := svc.Login("admin", "supersafe")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	svc.WithClock(time.Now)
	if _, err := svc.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func mustHash(t *testing.T, password string) []byte {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return []byte(hash)
}
