/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the SQL needed to manage accounts, apply ledger mutations, and
 * write the append-only transaction journal.
 *
 * Concurrency notes:
 * - Every balance mutation runs inside a database transaction and locks the
 *   affected account rows with `SELECT ... FOR UPDATE`, so concurrent transfers
 *   from the same sender serialize and cannot overdraw against a stale balance.
 * - A transfer locks both account rows in ascending id order to avoid deadlocks
 *   between opposing concurrent transfers.
 *
 * @dependencies
 * - context, errors, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paylink/payments-service/internal/domain"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrRecipientNotFound  = errors.New("recipient not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrQuotaExceeded      = errors.New("free tier transfer limit reached")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWalletAddressTaken = errors.New("wallet address already assigned")
)

const pgUniqueViolation = "23505"

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, name, email, phone, credential_hash, wallet_address, private_key, balance, country, free_transfer_count, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.Phone,
		&account.CredentialHash,
		&account.WalletAddress,
		&account.PrivateKey,
		&account.Balance,
		&account.Country,
		&account.FreeTransferCount,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// CreateAccount inserts a new account row. The email is stored lowercase and
// trimmed; a duplicate email maps to ErrEmailTaken and a duplicate wallet
// address to ErrWalletAddressTaken.
func (r *PostgresRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (
			id, name, email, phone, credential_hash, wallet_address, private_key,
			balance, country, free_transfer_count
		)
		VALUES ($1, $2, lower(btrim($3)), $4, $5, $6, $7, $8, $9, $10)
		RETURNING email, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		account.ID,
		account.Name,
		account.Email,
		account.Phone,
		account.CredentialHash,
		account.WalletAddress,
		account.PrivateKey,
		account.Balance,
		account.Country,
		account.FreeTransferCount,
	).Scan(&account.Email, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "wallet") {
				return ErrWalletAddressTaken
			}
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// FindAccountByID retrieves an account by its primary key.
func (r *PostgresRepository) FindAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRow(ctx, query, id))
}

// FindAccountByEmail retrieves an account by its identity. Lookup is
// case-insensitive on the trimmed email.
func (r *PostgresRepository) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = lower(btrim($1))`
	return scanAccount(r.db.QueryRow(ctx, query, email))
}

// lockedAccount is the slice of account state a transfer needs under lock.
type lockedAccount struct {
	id            uuid.UUID
	email         string
	walletAddress string
	balance       int64
	freeCount     int
}

func lockAccount(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*lockedAccount, error) {
	var acc lockedAccount
	query := `SELECT id, email, wallet_address, balance, free_transfer_count FROM accounts WHERE id = $1 FOR UPDATE`
	err := tx.QueryRow(ctx, query, id).Scan(&acc.id, &acc.email, &acc.walletAddress, &acc.balance, &acc.freeCount)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &acc, nil
}

// ExecuteTransfer applies a peer-to-peer transfer as a single database
// transaction: quota check, sender debit, recipient credit, free-count
// increment, and the paired `sent`/`received` journal inserts. A failure at
// any step rolls the whole transfer back.
func (r *PostgresRepository) ExecuteTransfer(ctx context.Context, params TransferParams) (*TransferResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Resolve the recipient id first so both rows can be locked in a
	// deterministic order.
	var recipientID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM accounts WHERE email = lower(btrim($1))`, params.RecipientEmail).Scan(&recipientID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}

	// Replay detection: a previously committed transfer with the same key
	// from the same sender is returned as-is, with no further mutation.
	if params.IdempotencyKey != nil {
		if result, found, lookupErr := r.findReplayedTransfer(ctx, tx, params.SenderID, *params.IdempotencyKey); lookupErr != nil {
			return nil, lookupErr
		} else if found {
			return result, nil
		}
	}

	first, second := params.SenderID, recipientID
	if second.String() < first.String() {
		first, second = second, first
	}
	locked := make(map[uuid.UUID]*lockedAccount, 2)
	for _, id := range []uuid.UUID{first, second} {
		acc, lockErr := lockAccount(ctx, tx, id)
		if lockErr != nil {
			if errors.Is(lockErr, ErrAccountNotFound) && id == recipientID {
				return nil, ErrRecipientNotFound
			}
			return nil, lockErr
		}
		locked[id] = acc
	}
	sender := locked[params.SenderID]
	recipient := locked[recipientID]

	if params.FreeTier && sender.freeCount >= params.FreeTierLimit {
		return nil, ErrQuotaExceeded
	}

	total := params.Amount + params.Fee
	if sender.balance < total {
		return nil, ErrInsufficientFunds
	}

	if _, err = tx.Exec(ctx, `UPDATE accounts SET balance = balance - $1, updated_at = NOW() WHERE id = $2`, total, sender.id); err != nil {
		return nil, err
	}
	if _, err = tx.Exec(ctx, `UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE id = $2`, params.Amount, recipient.id); err != nil {
		return nil, err
	}
	if params.FreeTier {
		if _, err = tx.Exec(ctx, `UPDATE accounts SET free_transfer_count = free_transfer_count + 1 WHERE id = $1`, sender.id); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	base := domain.Transaction{
		FromIdentity:        sender.email,
		ToIdentity:          recipient.email,
		FromWallet:          sender.walletAddress,
		ToWallet:            recipient.walletAddress,
		Amount:              params.Amount,
		Fee:                 params.Fee,
		Currency:            params.Currency,
		SettlementReference: params.SettlementRef,
		InvoiceID:           params.InvoiceID,
		Status:              domain.StatusCompleted,
		CreatedAt:           now,
	}

	sentRecord := base
	sentRecord.ID = uuid.New()
	sentRecord.Kind = domain.KindSent
	sentRecord.IdempotencyKey = params.IdempotencyKey

	receivedRecord := base
	receivedRecord.ID = uuid.New()
	receivedRecord.Kind = domain.KindReceived

	for _, record := range []*domain.Transaction{&sentRecord, &receivedRecord} {
		if err = insertTransaction(ctx, tx, record); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && strings.Contains(pgErr.ConstraintName, "idempotency") {
				// A concurrent request with the same key won the race; surface
				// its committed outcome instead of a duplicate settlement.
				return r.replayAfterConflict(ctx, params)
			}
			return nil, fmt.Errorf("failed to journal transfer: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &TransferResult{
		SenderRecord:     &sentRecord,
		NewSenderBalance: sender.balance - total,
	}, nil
}

// rowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// findReplayedTransfer looks up a committed `sent` record for (sender, key).
func (r *PostgresRepository) findReplayedTransfer(ctx context.Context, q rowQuerier, senderID uuid.UUID, key string) (*TransferResult, bool, error) {
	query := `
		SELECT t.id, t.from_identity, t.to_identity, t.from_wallet, t.to_wallet,
		       t.amount, t.fee, t.currency, t.kind, t.settlement_reference,
		       t.invoice_id, t.status, t.created_at, a.balance
		FROM transactions t
		JOIN accounts a ON a.id = $1
		WHERE t.from_identity = a.email
		  AND t.kind = 'sent'
		  AND t.idempotency_key = $2
	`
	var record domain.Transaction
	var balance int64
	err := scanTransactionWith(q.QueryRow(ctx, query, senderID, key), &record, &balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &TransferResult{SenderRecord: &record, NewSenderBalance: balance, Replayed: true}, true, nil
}

func (r *PostgresRepository) replayAfterConflict(ctx context.Context, params TransferParams) (*TransferResult, error) {
	if params.IdempotencyKey == nil {
		return nil, errors.New("journal conflict without idempotency key")
	}
	result, found, err := r.findReplayedTransfer(ctx, r.db, params.SenderID, *params.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New("journal conflict but no prior transfer found")
	}
	return result, nil
}

const transactionColumns = `id, from_identity, to_identity, from_wallet, to_wallet, amount, fee, currency, kind, settlement_reference, invoice_id, status, created_at`

func insertTransaction(ctx context.Context, tx pgx.Tx, record *domain.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, from_identity, to_identity, from_wallet, to_wallet,
			amount, fee, currency, kind, settlement_reference,
			invoice_id, idempotency_key, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := tx.Exec(ctx, query,
		record.ID,
		record.FromIdentity,
		record.ToIdentity,
		record.FromWallet,
		record.ToWallet,
		record.Amount,
		record.Fee,
		record.Currency,
		record.Kind,
		record.SettlementReference,
		record.InvoiceID,
		record.IdempotencyKey,
		record.Status,
		record.CreatedAt,
	)
	return err
}

func scanTransactionWith(row pgx.Row, record *domain.Transaction, extra ...any) error {
	targets := []any{
		&record.ID,
		&record.FromIdentity,
		&record.ToIdentity,
		&record.FromWallet,
		&record.ToWallet,
		&record.Amount,
		&record.Fee,
		&record.Currency,
		&record.Kind,
		&record.SettlementReference,
		&record.InvoiceID,
		&record.Status,
		&record.CreatedAt,
	}
	targets = append(targets, extra...)
	return row.Scan(targets...)
}

// ApplySingleSided applies a top-up or withdrawal: one locked balance change
// and one journal record, committed together.
func (r *PostgresRepository) ApplySingleSided(ctx context.Context, params JournalEntryParams) (*SingleSidedResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	acc, err := lockAccount(ctx, tx, params.AccountID)
	if err != nil {
		return nil, err
	}

	newBalance := acc.balance + params.BalanceDelta
	if newBalance < 0 {
		return nil, ErrInsufficientFunds
	}

	if _, err = tx.Exec(ctx, `UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2`, newBalance, acc.id); err != nil {
		return nil, err
	}

	record := &domain.Transaction{
		ID:                  uuid.New(),
		Amount:              params.JournalAmount,
		Fee:                 0,
		Currency:            params.Currency,
		Kind:                params.Kind,
		SettlementReference: params.SettlementRef,
		Status:              domain.StatusCompleted,
		CreatedAt:           time.Now().UTC(),
	}
	switch params.Kind {
	case domain.KindTopUp:
		record.FromIdentity = params.SystemEmail
		record.FromWallet = params.SystemWallet
		record.ToIdentity = acc.email
		record.ToWallet = acc.walletAddress
	case domain.KindWithdrawal:
		record.FromIdentity = acc.email
		record.FromWallet = acc.walletAddress
		record.ToIdentity = params.SystemEmail
		record.ToWallet = params.SystemWallet
	default:
		return nil, fmt.Errorf("unsupported single-sided kind %q", params.Kind)
	}

	if err = insertTransaction(ctx, tx, record); err != nil {
		return nil, fmt.Errorf("failed to journal %s: %w", params.Kind, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &SingleSidedResult{Record: record, NewBalance: newBalance}, nil
}

// ListTransactionsForIdentity returns the caller's journal records, newest
// first. Each party of a transfer sees only its own perspective record, so a
// pair never shows up twice for the same user.
func (r *PostgresRepository) ListTransactionsForIdentity(ctx context.Context, email string) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE (from_identity = lower(btrim($1)) AND kind IN ('sent', 'withdrawal'))
		   OR (to_identity = lower(btrim($1)) AND kind IN ('received', 'topup'))
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var record domain.Transaction
		if err := scanTransactionWith(rows, &record); err != nil {
			return nil, err
		}
		transactions = append(transactions, record)
	}
	return transactions, rows.Err()
}

// FailStalePendingTransactions marks journal records stuck in `pending` past
// the cutoff as failed. Settlement is synchronous, so a lingering pending row
// means a crashed request; failing it keeps the journal's status lifecycle
// single-step.
func (r *PostgresRepository) FailStalePendingTransactions(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(ctx,
		`UPDATE transactions SET status = 'failed' WHERE status = 'pending' AND created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// FindUnpairedSentReferences returns settlement references of `sent` records
// created since the given time that have no matching `received` record. A
// non-empty result indicates a torn dual-write and is surfaced for operators.
func (r *PostgresRepository) FindUnpairedSentReferences(ctx context.Context, since time.Time) ([]string, error) {
	query := `
		SELECT s.settlement_reference
		FROM transactions s
		WHERE s.kind = 'sent'
		  AND s.created_at >= $1
		  AND NOT EXISTS (
			SELECT 1 FROM transactions r
			WHERE r.kind = 'received'
			  AND r.settlement_reference = s.settlement_reference
			  AND r.amount = s.amount
			  AND r.fee = s.fee
			  AND r.currency = s.currency
		  )
		ORDER BY s.created_at
	`
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var references []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		references = append(references, ref)
	}
	return references, rows.Err()
}
