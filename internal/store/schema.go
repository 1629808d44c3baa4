/**
 * @description
 * Idempotent schema bootstrap for the payments-service. The service owns its
 * two tables: accounts (the balance ledger) and transactions (the append-only
 * dual-write journal). Running the statements repeatedly is safe.
 */

package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS accounts (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    phone TEXT,
    credential_hash TEXT NOT NULL,
    wallet_address TEXT NOT NULL UNIQUE,
    private_key TEXT NOT NULL,
    balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
    country TEXT NOT NULL DEFAULT 'US',
    free_transfer_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS transactions (
    id UUID PRIMARY KEY,
    from_identity TEXT NOT NULL,
    to_identity TEXT NOT NULL,
    from_wallet TEXT NOT NULL,
    to_wallet TEXT NOT NULL,
    amount BIGINT NOT NULL CHECK (amount > 0),
    fee BIGINT NOT NULL DEFAULT 0 CHECK (fee >= 0),
    currency TEXT NOT NULL DEFAULT 'USD',
    kind TEXT NOT NULL CHECK (kind IN ('sent', 'received', 'topup', 'withdrawal')),
    settlement_reference TEXT NOT NULL,
    invoice_id TEXT,
    idempotency_key TEXT,
    status TEXT NOT NULL DEFAULT 'completed' CHECK (status IN ('pending', 'completed', 'failed')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS transactions_sender_idempotency_key
    ON transactions (from_identity, idempotency_key)
    WHERE idempotency_key IS NOT NULL AND kind = 'sent';

CREATE UNIQUE INDEX IF NOT EXISTS transactions_invoice_id
    ON transactions (invoice_id)
    WHERE invoice_id IS NOT NULL AND kind = 'sent';

CREATE INDEX IF NOT EXISTS transactions_from_identity_created_at
    ON transactions (from_identity, created_at DESC);

CREATE INDEX IF NOT EXISTS transactions_to_identity_created_at
    ON transactions (to_identity, created_at DESC);
`

// EnsureSchema creates the service's tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaDDL)
	return err
}
