// Package keystore implements the Web3 Secret Storage format, version 3:
// password-based key derivation (pbkdf2 or scrypt), AES-128-CTR encryption of
// a raw private key, a Keccak-256 MAC over the ciphertext, and the portable
// JSON record tying them together.
package keystore

import (
	"fmt"
	"log/slog"

	"ether-vault/go-keystore/internal/bytecodec"
)

const (
	// CipherName is the only cipher the version 3 format permits.
	CipherName = "aes-128-ctr"

	// Version is the fixed format version. Any other value in a record is an
	// unsupported-format error for a conformant reader.
	Version = 3

	// DefaultIterations is the default pbkdf2 iteration count.
	DefaultIterations = 262144

	// DefaultScryptN is the default scrypt cost factor.
	DefaultScryptN = 262144

	// The format fixes scrypt r and p so keystore brute-force cost stays a
	// function of N alone.
	scryptR = 1
	scryptP = 8

	pbkdf2PRF = "hmac-sha256"

	derivedKeyLen = 32
	cipherKeyLen  = 16
	macKeyLen     = 16
	saltLen       = 32
	ivLen         = 16
)

// KDF names carried in records and in DerivedKey metadata.
const (
	KDFPbkdf2 = "pbkdf2"
	KDFScrypt = "scrypt"
)

// PBKDF2Params are the kdfparams recorded for a pbkdf2-derived key.
type PBKDF2Params struct {
	C     int
	DKLen int
	PRF   string
	Salt  []byte
}

// ScryptParams are the kdfparams recorded for a scrypt-derived key.
type ScryptParams struct {
	N     int
	R     int
	P     int
	DKLen int
	Salt  []byte
}

// KDFParams is a tagged variant: Func selects which parameter record is set.
// Exactly one of PBKDF2/Scrypt is non-nil for a well-formed value.
type KDFParams struct {
	Func   string
	PBKDF2 *PBKDF2Params
	Scrypt *ScryptParams
}

// Salt returns the salt of whichever variant is set.
func (p KDFParams) Salt() []byte {
	switch p.Func {
	case KDFPbkdf2:
		if p.PBKDF2 != nil {
			return p.PBKDF2.Salt
		}
	case KDFScrypt:
		if p.Scrypt != nil {
			return p.Scrypt.Salt
		}
	}
	return nil
}

func (p KDFParams) clone() KDFParams {
	out := KDFParams{Func: p.Func}
	if p.PBKDF2 != nil {
		cp := *p.PBKDF2
		cp.Salt = append([]byte(nil), p.PBKDF2.Salt...)
		out.PBKDF2 = &cp
	}
	if p.Scrypt != nil {
		cp := *p.Scrypt
		cp.Salt = append([]byte(nil), p.Scrypt.Salt...)
		out.Scrypt = &cp
	}
	return out
}

// DerivedKey is a secret derived from a password, plus the metadata needed to
// re-derive it deterministically. Values are immutable after derivation; the
// 32-byte material is reachable only through Material, which copies, and is
// excluded from default formatting and structured logs.
type DerivedKey struct {
	params   KDFParams
	iv       []byte
	material []byte
}

// Params returns a copy of the KDF metadata recorded at derivation time.
func (k *DerivedKey) Params() KDFParams {
	return k.params.clone()
}

// IV returns a copy of the 16-byte initialization vector fixed into the key.
func (k *DerivedKey) IV() []byte {
	return append([]byte(nil), k.iv...)
}

// Material returns a copy of the 32-byte derived secret.
func (k *DerivedKey) Material() []byte {
	return append([]byte(nil), k.material...)
}

// Zero scrubs the derived secret in place. The key must not be used after.
func (k *DerivedKey) Zero() {
	bytecodec.Zero(k.material)
}

// String keeps the secret out of fmt verbs.
func (k *DerivedKey) String() string {
	return fmt.Sprintf("keystore.DerivedKey{kdf: %s, material: [redacted]}", k.params.Func)
}

// LogValue keeps the secret out of slog output.
func (k *DerivedKey) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kdf", k.params.Func),
		slog.String("material", "[REDACTED]"),
	)
}
