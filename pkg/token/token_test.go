package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	manager := NewManager("unit-test-secret", time.Hour)
	accountID := uuid.New()

	signed, err := manager.Issue(accountID, "alice@example.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	gotID, gotEmail, err := manager.Verify(signed)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if gotID != accountID {
		t.Fatalf("expected account id %s, got %s", accountID, gotID)
	}
	if gotEmail != "alice@example.com" {
		t.Fatalf("expected email alice@example.com, got %q", gotEmail)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signed, err := NewManager("secret-a", time.Hour).Issue(uuid.New(), "alice@example.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, _, err := NewManager("secret-b", time.Hour).Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	manager := NewManager("unit-test-secret", time.Hour)
	claims := Claims{
		Email: "alice@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unit-test-secret"))
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	if _, _, err := manager.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyRejectsNonUUIDSubject(t *testing.T) {
	manager := NewManager("unit-test-secret", time.Hour)
	claims := Claims{
		Email: "alice@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unit-test-secret"))
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	if _, _, err := manager.Verify(signed); !errors.Is(err, ErrBadClaims) {
		t.Fatalf("expected ErrBadClaims, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	manager := NewManager("unit-test-secret", time.Hour)
	if _, _, err := manager.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
