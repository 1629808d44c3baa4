/**
 * @description
 * This file contains the HTTP handlers for the payments-service's API
 * endpoints. Handlers are responsible for parsing incoming requests, calling
 * the appropriate methods on the application service, and writing the HTTP
 * response. They act as the bridge between the web layer and the ledger.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/paylink/payments-service/internal/app"
	"github.com/paylink/payments-service/internal/domain"
	"github.com/paylink/payments-service/internal/store"
)

// PaymentHandlers holds the application service that handlers will use.
type PaymentHandlers struct {
	service *app.Service
}

// NewPaymentHandlers creates a new instance of PaymentHandlers.
func NewPaymentHandlers(service *app.Service) *PaymentHandlers {
	return &PaymentHandlers{service: service}
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("level=error component=api msg=\"response encode failed\" err=%v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// writeDomainError maps ledger and store errors onto the HTTP taxonomy.
// Anything unrecognized is an internal error; no partial success is reported.
func writeDomainError(w http.ResponseWriter, endpoint string, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidAmount),
		errors.Is(err, app.ErrInvalidRecipient),
		errors.Is(err, app.ErrSelfTransfer),
		errors.Is(err, app.ErrUnsupportedCurrency),
		errors.Is(err, app.ErrInvalidRegistration),
		errors.Is(err, app.ErrInvalidEmail),
		errors.Is(err, store.ErrQuotaExceeded),
		errors.Is(err, store.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrRecipientNotFound):
		writeError(w, http.StatusNotFound, "Recipient not found. They need to register first.")
	case errors.Is(err, store.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "Account not found")
	case errors.Is(err, store.ErrEmailTaken):
		writeError(w, http.StatusConflict, "User already exists with this email")
	case errors.Is(err, store.ErrWalletAddressTaken):
		writeError(w, http.StatusConflict, "Wallet address already assigned")
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, app.ErrTooManyTransfers):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		log.Printf("level=error component=api endpoint=%s msg=\"unhandled error\" err=%v", endpoint, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

type authResponse struct {
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    *domain.Account `json:"user"`
}

// RegisterHandler handles account registration: wallet provisioning, opening
// balance, and token issuance.
func (h *PaymentHandlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, signed, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeDomainError(w, "register", err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Message: "User registered successfully",
		Token:   signed,
		User:    account,
	})
}

// LoginHandler verifies a credential and issues a fresh token.
func (h *PaymentHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, signed, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeDomainError(w, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   signed,
		User:    account,
	})
}

// MeHandler returns the authenticated account's profile. Sensitive fields
// never serialize.
func (h *PaymentHandlers) MeHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := CallerAccountID(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not resolve caller identity")
		return
	}

	account, err := h.service.GetAccount(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, "me", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]*domain.Account{"user": account})
}

type sendPaymentResponse struct {
	Message    string  `json:"message"`
	TxHash     string  `json:"txHash"`
	NewBalance int64   `json:"newBalance"`
	Fee        int64   `json:"fee"`
	InvoiceID  *string `json:"invoiceId"`
}

// SendPaymentHandler handles peer-to-peer transfers.
func (h *PaymentHandlers) SendPaymentHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := CallerAccountID(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not resolve caller identity")
		return
	}

	var req domain.SendPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := h.service.Transfer(r.Context(), accountID, req)
	if err != nil {
		log.Printf("level=warn component=api endpoint=send_payment outcome=failed sender_id=%s err=%v", accountID, err)
		writeDomainError(w, "send_payment", err)
		return
	}

	writeJSON(w, http.StatusOK, sendPaymentResponse{
		Message:    "Payment sent successfully",
		TxHash:     outcome.TxHash,
		NewBalance: outcome.NewBalance,
		Fee:        outcome.Fee,
		InvoiceID:  outcome.InvoiceID,
	})
}

// BalanceHandler returns the caller's balance and wallet address.
func (h *PaymentHandlers) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := CallerAccountID(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not resolve caller identity")
		return
	}

	view, err := h.service.Balance(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, "balance", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

type topUpResponse struct {
	Message    string          `json:"message"`
	NewBalance int64           `json:"newBalance"`
	USDCAmount int64           `json:"usdcAmount"`
	Currency   domain.Currency `json:"currency"`
}

// TopUpHandler handles the mock on-ramp.
func (h *PaymentHandlers) TopUpHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := CallerAccountID(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not resolve caller identity")
		return
	}

	var req domain.TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := h.service.TopUp(r.Context(), accountID, req)
	if err != nil {
		writeDomainError(w, "topup", err)
		return
	}

	writeJSON(w, http.StatusOK, topUpResponse{
		Message:    "Balance topped up successfully",
		NewBalance: outcome.NewBalance,
		USDCAmount: outcome.MovedAmount,
		Currency:   outcome.Currency,
	})
}

type withdrawResponse struct {
	Message     string          `json:"message"`
	NewBalance  int64           `json:"newBalance"`
	LocalAmount int64           `json:"localAmount"`
	Currency    domain.Currency `json:"currency"`
}

// WithdrawHandler handles the mock off-ramp.
func (h *PaymentHandlers) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := CallerAccountID(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not resolve caller identity")
		return
	}

	var req domain.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := h.service.Withdraw(r.Context(), accountID, req)
	if err != nil {
		writeDomainError(w, "withdraw", err)
		return
	}

	writeJSON(w, http.StatusOK, withdrawResponse{
		Message:     "Withdrawal initiated successfully",
		NewBalance:  outcome.NewBalance,
		LocalAmount: outcome.MovedAmount,
		Currency:    outcome.Currency,
	})
}

type historyResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
}

// TransactionsHandler returns the caller's journal records, newest first.
func (h *PaymentHandlers) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := CallerAccountID(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not resolve caller identity")
		return
	}

	transactions, err := h.service.History(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, "transactions", err)
		return
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}

	writeJSON(w, http.StatusOK, historyResponse{Transactions: transactions})
}
