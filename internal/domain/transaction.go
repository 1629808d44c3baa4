/**
 * @description
 * This file defines the core ledger domain models for the payments-service.
 * These structs represent the journal records and data transfer objects (DTOs)
 * used throughout the service's business logic, database interactions, and API
 * layers.
 *
 * @notes
 * - Using distinct types for API requests, database models, and event payloads
 *   keeps the web layer, store, and broker decoupled.
 * - Amounts are stored as `int64` in the smallest currency unit (cents for USD
 *   and stablecoin units, paise for INR) to avoid floating-point drift.
 */

package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Currency is one of the fixed set of currencies a request may be denominated in.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyINR Currency = "INR"
)

// ParseCurrency normalizes and validates a client-supplied currency code.
// An empty code defaults to USD, matching the web client's behavior.
func ParseCurrency(raw string) (Currency, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	switch code {
	case "", string(CurrencyUSD):
		return CurrencyUSD, nil
	case string(CurrencyINR):
		return CurrencyINR, nil
	default:
		return "", fmt.Errorf("unsupported currency %q", raw)
	}
}

// FeeTier is the fee bracket a transfer amount falls into.
type FeeTier string

const (
	TierFree     FeeTier = "free"
	TierMicro    FeeTier = "micro"
	TierBusiness FeeTier = "business"
)

// TransactionKind is the perspective tag carried by a journal record.
type TransactionKind string

const (
	KindSent       TransactionKind = "sent"
	KindReceived   TransactionKind = "received"
	KindTopUp      TransactionKind = "topup"
	KindWithdrawal TransactionKind = "withdrawal"
)

// TransactionStatus is the settlement state of a journal record. Records are
// written `completed`; `pending` only appears if asynchronous settlement is
// introduced, and may transition to `completed` or `failed` exactly once.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Transaction is one append-only journal record. A peer-to-peer transfer
// produces exactly two of these, one `sent` and one `received`, sharing the
// same amount, fee, currency, settlement reference, invoice id, and timestamp.
type Transaction struct {
	ID                  uuid.UUID         `json:"id"`
	FromIdentity        string            `json:"fromEmail"`
	ToIdentity          string            `json:"toEmail"`
	FromWallet          string            `json:"fromWallet"`
	ToWallet            string            `json:"toWallet"`
	Amount              int64             `json:"amount"` // in minor units of Currency
	Fee                 int64             `json:"fee"`    // in minor units of Currency
	Currency            Currency          `json:"currency"`
	Kind                TransactionKind   `json:"type"`
	SettlementReference string            `json:"txHash"`
	InvoiceID           *string           `json:"invoiceId,omitempty"`
	IdempotencyKey      *string           `json:"-"`
	Status              TransactionStatus `json:"status"`
	CreatedAt           time.Time         `json:"createdAt"`
}

// SendPaymentRequest is the DTO for incoming peer-to-peer transfer API requests.
type SendPaymentRequest struct {
	RecipientEmail string `json:"recipientEmail"`
	Amount         int64  `json:"amount"` // in minor units
	Currency       string `json:"currency,omitempty"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// TopUpRequest is the DTO for the mock on-ramp endpoint.
type TopUpRequest struct {
	Amount   int64  `json:"amount"` // in minor units of Currency
	Currency string `json:"currency,omitempty"`
}

// WithdrawRequest is the DTO for the mock off-ramp endpoint.
type WithdrawRequest struct {
	Amount   int64  `json:"amount"` // in stablecoin cents
	Currency string `json:"currency,omitempty"`
}

// PaymentEvent is the payload published to the message broker after a
// completed money movement.
type PaymentEvent struct {
	TransactionID       uuid.UUID       `json:"transaction_id"`
	Kind                TransactionKind `json:"kind"`
	FromIdentity        string          `json:"from_identity"`
	ToIdentity          string          `json:"to_identity"`
	Amount              int64           `json:"amount"`
	Fee                 int64           `json:"fee"`
	Currency            Currency        `json:"currency"`
	SettlementReference string          `json:"settlement_reference"`
	Timestamp           time.Time       `json:"timestamp"`
}
