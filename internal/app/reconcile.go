/**
 * @description
 * Periodic journal reconciliation. Settlement in this system is synchronous,
 * so the journal should never hold old `pending` records, and every `sent`
 * record must have its `received` twin. The reconciler enforces the first and
 * audits the second, logging torn pairs for operators.
 */

package app

import (
	"context"
	"log"
	"time"

	"github.com/paylink/payments-service/internal/store"
)

// Reconciler sweeps the transaction journal for inconsistencies.
type Reconciler struct {
	repo          store.Repository
	pendingCutoff time.Duration
	auditWindow   time.Duration
}

// NewReconciler builds a reconciler. pendingCutoff is how old a pending
// record must be before it is failed; auditWindow bounds the pair-correlation
// scan.
func NewReconciler(repo store.Repository, pendingCutoff, auditWindow time.Duration) *Reconciler {
	if pendingCutoff <= 0 {
		pendingCutoff = 15 * time.Minute
	}
	if auditWindow <= 0 {
		auditWindow = 24 * time.Hour
	}
	return &Reconciler{repo: repo, pendingCutoff: pendingCutoff, auditWindow: auditWindow}
}

// Run executes one reconciliation pass. Failures are logged, not returned, so
// a scheduler can keep invoking it on its cadence.
func (r *Reconciler) Run(ctx context.Context) {
	now := time.Now().UTC()

	failed, err := r.repo.FailStalePendingTransactions(ctx, now.Add(-r.pendingCutoff))
	if err != nil {
		log.Printf("level=error component=reconciler msg=\"stale pending sweep failed\" err=%v", err)
	} else if failed > 0 {
		log.Printf("level=warn component=reconciler msg=\"failed stale pending transactions\" count=%d", failed)
	}

	unpaired, err := r.repo.FindUnpairedSentReferences(ctx, now.Add(-r.auditWindow))
	if err != nil {
		log.Printf("level=error component=reconciler msg=\"pair audit failed\" err=%v", err)
		return
	}
	for _, ref := range unpaired {
		log.Printf("level=error component=reconciler msg=\"sent record missing received counterpart\" settlement_ref=%s", ref)
	}
}
