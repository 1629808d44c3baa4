/**
 * @description
 * Generators for the opaque identifiers attached to journal records: the
 * simulated settlement reference (a blockchain-style transaction hash) and the
 * human-readable invoice id. Uniqueness is best-effort here; the journal's
 * unique index on invoice ids is the backstop.
 */

package app

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// InvoiceIDPrefix is the fixed human-readable prefix on generated invoice ids.
const InvoiceIDPrefix = "INV-"

// NewSettlementReference returns a simulated settlement proof: "0x" followed
// by 64 hex characters from a CSPRNG.
func NewSettlementReference() string {
	buf := make([]byte, 32)
	// rand.Read on the crypto source does not fail on supported platforms.
	_, _ = rand.Read(buf)
	return "0x" + hex.EncodeToString(buf)
}

// NewInvoiceID returns an invoice identifier with the fixed prefix and a
// short opaque suffix, e.g. "INV-9F2C41AB".
func NewInvoiceID() string {
	return InvoiceIDPrefix + strings.ToUpper(uuid.NewString()[:8])
}
