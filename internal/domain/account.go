/**
 * @description
 * This file defines the account domain model for the payments-service. An account
 * couples a user identity (a lowercase, trimmed email) with a provisioned wallet
 * address, a stablecoin balance, and the lifetime counter of fee-free transfers.
 *
 * @notes
 * - Balances are stored as `int64` in the smallest unit of the stablecoin peg
 *   (cents), which avoids floating-point inaccuracies with financial data.
 * - CredentialHash and PrivateKey are never serialized into API responses.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a registered wallet holder. It maps directly to the
// `accounts` table in the database.
type Account struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             *string   `json:"phone,omitempty"`
	CredentialHash    string    `json:"-"`
	WalletAddress     string    `json:"walletAddress"`
	PrivateKey        string    `json:"-"`
	Balance           int64     `json:"balance"` // in cents
	Country           string    `json:"country"`
	FreeTransferCount int       `json:"freeTransferCount"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// RegisterRequest is the DTO for incoming registration API requests.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Country  string `json:"country,omitempty"`
}

// LoginRequest is the DTO for incoming login API requests.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// BalanceView is the read model returned by the wallet balance endpoint.
type BalanceView struct {
	Balance       int64  `json:"balance"` // in cents
	WalletAddress string `json:"walletAddress"`
}
