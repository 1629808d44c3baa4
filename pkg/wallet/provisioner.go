/**
 * @description
 * This package provisions the simulated wallet address/key pairs assigned to
 * accounts at registration. Settlement in this system is simulated, so keys
 * are a deterministic derivation from a seed plus a server-side secret rather
 * than material for a real chain. Addresses keep the familiar 0x-prefixed
 * 20-byte hex shape so the web client renders them like on-chain addresses.
 */

package wallet

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Provisioner derives wallet address/key pairs. The same seed and secret
// always yield the same pair.
type Provisioner struct {
	secret []byte
}

// NewProvisioner builds a provisioner keyed with the server-side secret that
// is mixed into every derivation.
func NewProvisioner(secret string) *Provisioner {
	return &Provisioner{secret: []byte(secret)}
}

// Generate derives a wallet pair from the given seed. The private key is the
// HMAC of the seed under the server secret; the address is derived from the
// key, truncated to the usual 20-byte display form.
func (p *Provisioner) Generate(seed string) (address string, privateKey string) {
	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(seed))
	keyBytes := mac.Sum(nil)
	privateKey = "0x" + hex.EncodeToString(keyBytes)

	addrDigest := sha256.Sum256(keyBytes)
	address = "0x" + hex.EncodeToString(addrDigest[:20])
	return address, privateKey
}
