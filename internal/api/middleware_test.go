package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/paylink/payments-service/pkg/token"
)

func newAuthTestServer(t *testing.T, tokens *token.Manager) http.Handler {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := CallerAccountID(r.Context())
		if !ok {
			t.Fatal("expected account id in request context")
		}
		email, ok := CallerEmail(r.Context())
		if !ok {
			t.Fatal("expected email in request context")
		}
		w.Header().Set("X-Test-Account", accountID.String())
		w.Header().Set("X-Test-Email", email)
		w.WriteHeader(http.StatusOK)
	})
	return AuthMiddleware(tokens)(next)
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	tokens := token.NewManager("unit-test-secret", time.Hour)
	accountID := uuid.New()
	signed, err := tokens.Issue(accountID, "alice@example.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/wallet/balance", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()

	newAuthTestServer(t, tokens).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Test-Account"); got != accountID.String() {
		t.Fatalf("expected account id %s in context, got %q", accountID, got)
	}
	if got := rec.Header().Get("X-Test-Email"); got != "alice@example.com" {
		t.Fatalf("expected email in context, got %q", got)
	}
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	tokens := token.NewManager("unit-test-secret", time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/wallet/balance", nil)
	rec := httptest.NewRecorder()

	AuthMiddleware(tokens)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run without a token")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	tokens := token.NewManager("unit-test-secret", time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/wallet/balance", nil)
	req.Header.Set("Authorization", "Token abcdef")
	rec := httptest.NewRecorder()

	AuthMiddleware(tokens)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run with a malformed header")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectsForgedToken(t *testing.T) {
	tokens := token.NewManager("unit-test-secret", time.Hour)
	forged, err := token.NewManager("other-secret", time.Hour).Issue(uuid.New(), "mallory@example.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/wallet/balance", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec := httptest.NewRecorder()

	AuthMiddleware(tokens)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run with a forged token")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
