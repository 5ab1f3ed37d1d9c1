package keystore

import (
	"crypto/subtle"

	"golang.org/x/crypto/sha3"
)

// computeMAC returns the Keccak-256 digest of macKey ‖ ciphertext. The order
// is fixed by the format and must match on both sides.
func computeMAC(macKey, ciphertext []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(macKey)
	h.Write(ciphertext)
	return h.Sum(nil)
}

// verifyMAC recomputes and compares in constant time.
func verifyMAC(macKey, ciphertext, expected []byte) bool {
	return subtle.ConstantTimeCompare(computeMAC(macKey, ciphertext), expected) == 1
}
