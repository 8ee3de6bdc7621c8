package solana

import (
	"filippo.io/edwards25519"
	solanaGo "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// IsValidAddress reports whether s is a base58 32-byte public key.
func IsValidAddress(s string) bool {
	_, err := solanaGo.PublicKeyFromBase58(s)
	return err == nil
}

// IsOnCurve reports whether address is a point on the ed25519 curve. Wallets
// are on-curve; program-derived addresses are not.
func IsOnCurve(address string) bool {
	key, err := solanaGo.PublicKeyFromBase58(address)
	if err != nil {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(key[:])
	return err == nil
}

// IsValidSignature reports whether s is a base58 64-byte transaction signature.
func IsValidSignature(s string) bool {
	raw, err := base58.Decode(s)
	return err == nil && len(raw) == 64
}
