package keystore

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"

	"ether-vault/go-keystore/internal/bytecodec"
)

// DeriveOption adjusts a derivation. Omitted salt and IV default to fresh
// random bytes from the system CSPRNG.
type DeriveOption func(*deriveConfig)

type deriveConfig struct {
	salt       []byte
	saltSet    bool
	iv         []byte
	iterations int
	costFactor int
}

// WithSalt fixes the KDF salt instead of generating a random one. The salt is
// used verbatim; a zero-length salt is accepted.
func WithSalt(salt []byte) DeriveOption {
	return func(c *deriveConfig) {
		c.salt = append([]byte(nil), salt...)
		c.saltSet = true
	}
}

// WithIV fixes the 16-byte initialization vector instead of generating a
// random one.
func WithIV(iv []byte) DeriveOption {
	return func(c *deriveConfig) { c.iv = append([]byte(nil), iv...) }
}

// WithIterations overrides the pbkdf2 iteration count. Ignored by scrypt.
func WithIterations(c int) DeriveOption {
	return func(cfg *deriveConfig) { cfg.iterations = c }
}

// WithCostFactor overrides the scrypt cost factor N. Ignored by pbkdf2.
func WithCostFactor(n int) DeriveOption {
	return func(cfg *deriveConfig) { cfg.costFactor = n }
}

// DerivePBKDF2 stretches password into a 32-byte secret with
// PBKDF2-HMAC-SHA256. A zero-length password or salt is accepted; the
// iteration count bounds the brute-force risk, not this layer.
func DerivePBKDF2(password string, opts ...DeriveOption) (*DerivedKey, error) {
	cfg, err := resolveDeriveConfig(opts)
	if err != nil {
		return nil, err
	}
	material := pbkdf2.Key([]byte(password), cfg.salt, cfg.iterations, derivedKeyLen, sha256.New)
	return &DerivedKey{
		params: KDFParams{
			Func: KDFPbkdf2,
			PBKDF2: &PBKDF2Params{
				C:     cfg.iterations,
				DKLen: derivedKeyLen,
				PRF:   pbkdf2PRF,
				Salt:  cfg.salt,
			},
		},
		iv:       cfg.iv,
		material: material,
	}, nil
}

// DeriveScrypt stretches password into a 32-byte secret with scrypt. Block
// size and parallelization are fixed by the format (r=1, p=8); only the cost
// factor N is tunable.
func DeriveScrypt(password string, opts ...DeriveOption) (*DerivedKey, error) {
	cfg, err := resolveDeriveConfig(opts)
	if err != nil {
		return nil, err
	}
	material, err := scrypt.Key([]byte(password), cfg.salt, cfg.costFactor, scryptR, scryptP, derivedKeyLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt derivation: %w", err)
	}
	return &DerivedKey{
		params: KDFParams{
			Func: KDFScrypt,
			Scrypt: &ScryptParams{
				N:     cfg.costFactor,
				R:     scryptR,
				P:     scryptP,
				DKLen: derivedKeyLen,
				Salt:  cfg.salt,
			},
		},
		iv:       cfg.iv,
		material: material,
	}, nil
}

// DeriveFromParams re-derives a key from previously recorded kdfparams, as
// read out of a keystore record. The IV is taken from the record's
// cipherparams so the key decrypts the ciphertext it came from.
func DeriveFromParams(password string, params KDFParams, iv []byte) (*DerivedKey, error) {
	switch params.Func {
	case KDFPbkdf2:
		if params.PBKDF2 == nil {
			return nil, fmt.Errorf("%w: missing pbkdf2 params", ErrMalformedRecord)
		}
		if params.PBKDF2.PRF != pbkdf2PRF {
			return nil, fmt.Errorf("%w: unsupported prf %q", ErrMalformedRecord, params.PBKDF2.PRF)
		}
		return DerivePBKDF2(password,
			WithSalt(params.PBKDF2.Salt),
			WithIterations(params.PBKDF2.C),
			WithIV(iv),
		)
	case KDFScrypt:
		if params.Scrypt == nil {
			return nil, fmt.Errorf("%w: missing scrypt params", ErrMalformedRecord)
		}
		return DeriveScrypt(password,
			WithSalt(params.Scrypt.Salt),
			WithCostFactor(params.Scrypt.N),
			WithIV(iv),
		)
	default:
		return nil, fmt.Errorf("%w: unsupported kdf %q", ErrMalformedRecord, params.Func)
	}
}

func resolveDeriveConfig(opts []DeriveOption) (deriveConfig, error) {
	cfg := deriveConfig{
		iterations: DefaultIterations,
		costFactor: DefaultScryptN,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.saltSet {
		salt, err := bytecodec.Random(saltLen)
		if err != nil {
			return deriveConfig{}, err
		}
		cfg.salt = salt
	}
	if cfg.iv == nil {
		iv, err := bytecodec.Random(ivLen)
		if err != nil {
			return deriveConfig{}, err
		}
		cfg.iv = iv
	} else if len(cfg.iv) != ivLen {
		return deriveConfig{}, fmt.Errorf("%w: iv must be %d bytes, got %d", ErrInvalidLength, ivLen, len(cfg.iv))
	}
	return cfg, nil
}
