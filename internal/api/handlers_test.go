package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paylink/payments-service/internal/app"
	"github.com/paylink/payments-service/internal/store"
)

func TestWriteDomainErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "invalid amount", err: app.ErrInvalidAmount, wantStatus: http.StatusBadRequest},
		{name: "self transfer", err: app.ErrSelfTransfer, wantStatus: http.StatusBadRequest},
		{name: "quota exceeded", err: store.ErrQuotaExceeded, wantStatus: http.StatusBadRequest},
		{name: "insufficient funds", err: store.ErrInsufficientFunds, wantStatus: http.StatusBadRequest},
		{name: "recipient not found", err: store.ErrRecipientNotFound, wantStatus: http.StatusNotFound},
		{name: "account not found", err: store.ErrAccountNotFound, wantStatus: http.StatusNotFound},
		{name: "email taken", err: store.ErrEmailTaken, wantStatus: http.StatusConflict},
		{name: "wallet address taken", err: store.ErrWalletAddressTaken, wantStatus: http.StatusConflict},
		{name: "invalid credentials", err: app.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized},
		{name: "too many transfers", err: app.ErrTooManyTransfers, wantStatus: http.StatusTooManyRequests},
		{name: "unknown error", err: errors.New("pool exhausted"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeDomainError(rec, "test", tt.err)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			var body messageResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("response body must be JSON: %v", err)
			}
			if body.Message == "" {
				t.Fatal("expected a human-readable message")
			}
		})
	}
}
