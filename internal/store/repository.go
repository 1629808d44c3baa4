/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for
 * all data access operations required by the payments-service: the account store
 * (balances and free-transfer counters) and the append-only transaction journal.
 * By defining an interface, we decouple the ledger's business logic from the
 * PostgreSQL implementation, making the code easier to test with fakes.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/paylink/payments-service/internal/domain"
)

// TransferParams carries everything the store needs to apply a peer-to-peer
// transfer atomically: balance moves, quota accounting, and the journal pair.
type TransferParams struct {
	SenderID       uuid.UUID
	RecipientEmail string
	Amount         int64 // in minor units of Currency
	Fee            int64
	Currency       domain.Currency
	FreeTier       bool
	FreeTierLimit  int
	SettlementRef  string
	InvoiceID      *string
	IdempotencyKey *string
}

// TransferResult reports the committed outcome of a transfer.
type TransferResult struct {
	SenderRecord     *domain.Transaction
	NewSenderBalance int64
	// Replayed is true when an idempotency key matched a previously committed
	// transfer; no state was mutated and SenderRecord is the original record.
	Replayed bool
}

// JournalEntryParams carries a single-sided balance change (top-up or
// withdrawal) together with its journal record.
type JournalEntryParams struct {
	AccountID     uuid.UUID
	Kind          domain.TransactionKind
	BalanceDelta  int64 // in stablecoin cents, positive to credit, negative to debit
	JournalAmount int64 // in minor units of Currency, as recorded in the journal
	Currency      domain.Currency
	SettlementRef string
	SystemWallet  string
	SystemEmail   string
}

// SingleSidedResult reports the committed outcome of a top-up or withdrawal.
type SingleSidedResult struct {
	Record     *domain.Transaction
	NewBalance int64
}

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Account store
	CreateAccount(ctx context.Context, account *domain.Account) error
	FindAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error)

	// Ledger operations. Each executes as one database transaction; a failed
	// precondition (quota, funds, missing recipient) leaves no state behind.
	ExecuteTransfer(ctx context.Context, params TransferParams) (*TransferResult, error)
	ApplySingleSided(ctx context.Context, params JournalEntryParams) (*SingleSidedResult, error)

	// Transaction journal reads
	ListTransactionsForIdentity(ctx context.Context, email string) ([]domain.Transaction, error)

	// Reconciliation
	FailStalePendingTransactions(ctx context.Context, cutoff time.Time) (int64, error)
	FindUnpairedSentReferences(ctx context.Context, since time.Time) ([]string, error)
}
