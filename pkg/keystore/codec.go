package keystore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"ether-vault/go-keystore/internal/bytecodec"
)

// Keystore is the portable encrypted record. The fixed format literals
// (cipher "aes-128-ctr", version 3) are validated on parse and emitted on
// marshal rather than stored. A Keystore is either fully well-formed or
// rejected outright by the codec.
type Keystore struct {
	ID         string
	Ciphertext []byte
	IV         []byte
	KDF        KDFParams
	MAC        []byte
}

// EncryptOption adjusts record assembly.
type EncryptOption func(*encryptConfig)

type encryptConfig struct {
	id string
}

// WithID fixes the record id instead of generating a random UUID.
func WithID(id string) EncryptOption {
	return func(c *encryptConfig) { c.id = id }
}

// Encrypt seals privateKey under key and assembles a version 3 record. The
// derived key's 32-byte material is split into a 16-byte cipher key and a
// 16-byte mac key; the ciphertext is AES-128-CTR under the key's IV and the
// mac is Keccak-256 over macKey ‖ ciphertext.
func Encrypt(privateKey []byte, key *DerivedKey, opts ...EncryptOption) (*Keystore, error) {
	var cfg encryptConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	cipherKey, macKey, err := splitMaterial(key)
	if err != nil {
		return nil, err
	}
	ciphertext, err := aes128CTR(cipherKey, key.iv, privateKey)
	if err != nil {
		return nil, err
	}
	id := cfg.id
	if id == "" {
		id = uuid.New().String()
	}
	return &Keystore{
		ID:         id,
		Ciphertext: ciphertext,
		IV:         key.IV(),
		KDF:        key.Params(),
		MAC:        computeMAC(macKey, ciphertext),
	}, nil
}

// Decrypt verifies the record's mac and, only then, reverses the cipher.
// A mac mismatch returns ErrCorruptKeystore and no plaintext; partially
// decrypted bytes are never exposed. The caller supplies a key re-derived
// with the record's kdfparams and the original password; the codec does not
// cross-check that itself (see MatchesParams).
func Decrypt(ks *Keystore, key *DerivedKey) ([]byte, error) {
	cipherKey, macKey, err := splitMaterial(key)
	if err != nil {
		return nil, err
	}
	if !verifyMAC(macKey, ks.Ciphertext, ks.MAC) {
		return nil, ErrCorruptKeystore
	}
	return aes128CTR(cipherKey, key.iv, ks.Ciphertext)
}

// DecryptHex decrypts and returns the plaintext as a 0x-prefixed hex string.
func DecryptHex(ks *Keystore, key *DerivedKey) (string, error) {
	plaintext, err := Decrypt(ks, key)
	if err != nil {
		return "", err
	}
	return bytecodec.To0xHex(plaintext), nil
}

// DecryptWithPassword re-derives the key from the record's own kdfparams and
// decrypts. This is the whole-record convenience path used by the CLI and
// daemon.
func DecryptWithPassword(ks *Keystore, password string) ([]byte, error) {
	key, err := DeriveFromParams(password, ks.KDF, ks.IV)
	if err != nil {
		return nil, err
	}
	defer key.Zero()
	return Decrypt(ks, key)
}

// MatchesParams reports whether key was derived with the same kdf, kdfparams
// and iv the record carries. Decrypt does not call this; a mismatched key is
// caught by the mac check. Callers can use it to distinguish a wrong-password
// hint from tampered ciphertext in their own error messages.
func (ks *Keystore) MatchesParams(key *DerivedKey) bool {
	if key == nil || ks.KDF.Func != key.params.Func {
		return false
	}
	if !bytes.Equal(ks.IV, key.iv) {
		return false
	}
	switch ks.KDF.Func {
	case KDFPbkdf2:
		a, b := ks.KDF.PBKDF2, key.params.PBKDF2
		return a != nil && b != nil && a.C == b.C && a.DKLen == b.DKLen &&
			a.PRF == b.PRF && bytes.Equal(a.Salt, b.Salt)
	case KDFScrypt:
		a, b := ks.KDF.Scrypt, key.params.Scrypt
		return a != nil && b != nil && a.N == b.N && a.R == b.R && a.P == b.P &&
			a.DKLen == b.DKLen && bytes.Equal(a.Salt, b.Salt)
	}
	return false
}

// Parse decodes and validates a serialized record.
func Parse(data []byte) (*Keystore, error) {
	var ks Keystore
	if err := json.Unmarshal(data, &ks); err != nil {
		if errors.Is(err, ErrMalformedRecord) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return &ks, nil
}

type recordJSON struct {
	Crypto  cryptoJSON `json:"crypto"`
	ID      string     `json:"id"`
	Version int        `json:"version"`
}

type cryptoJSON struct {
	Cipher       string           `json:"cipher"`
	Ciphertext   string           `json:"ciphertext"`
	CipherParams cipherParamsJSON `json:"cipherparams"`
	KDF          string           `json:"kdf"`
	KDFParams    json.RawMessage  `json:"kdfparams"`
	MAC          string           `json:"mac"`
}

type cipherParamsJSON struct {
	IV string `json:"iv"`
}

type pbkdf2ParamsJSON struct {
	C     int    `json:"c"`
	DKLen int    `json:"dklen"`
	PRF   string `json:"prf"`
	Salt  string `json:"salt"`
}

type scryptParamsJSON struct {
	DKLen int    `json:"dklen"`
	N     int    `json:"n"`
	P     int    `json:"p"`
	R     int    `json:"r"`
	Salt  string `json:"salt"`
}

// MarshalJSON emits the field-exact wire form: lowercase hex, no 0x prefixes,
// version literal 3.
func (ks *Keystore) MarshalJSON() ([]byte, error) {
	var rawParams json.RawMessage
	switch ks.KDF.Func {
	case KDFPbkdf2:
		if ks.KDF.PBKDF2 == nil {
			return nil, fmt.Errorf("%w: missing pbkdf2 params", ErrMalformedRecord)
		}
		raw, err := json.Marshal(pbkdf2ParamsJSON{
			C:     ks.KDF.PBKDF2.C,
			DKLen: ks.KDF.PBKDF2.DKLen,
			PRF:   ks.KDF.PBKDF2.PRF,
			Salt:  bytecodec.ToHex(ks.KDF.PBKDF2.Salt),
		})
		if err != nil {
			return nil, err
		}
		rawParams = raw
	case KDFScrypt:
		if ks.KDF.Scrypt == nil {
			return nil, fmt.Errorf("%w: missing scrypt params", ErrMalformedRecord)
		}
		raw, err := json.Marshal(scryptParamsJSON{
			DKLen: ks.KDF.Scrypt.DKLen,
			N:     ks.KDF.Scrypt.N,
			P:     ks.KDF.Scrypt.P,
			R:     ks.KDF.Scrypt.R,
			Salt:  bytecodec.ToHex(ks.KDF.Scrypt.Salt),
		})
		if err != nil {
			return nil, err
		}
		rawParams = raw
	default:
		return nil, fmt.Errorf("%w: unsupported kdf %q", ErrMalformedRecord, ks.KDF.Func)
	}
	return json.Marshal(recordJSON{
		Crypto: cryptoJSON{
			Cipher:       CipherName,
			Ciphertext:   bytecodec.ToHex(ks.Ciphertext),
			CipherParams: cipherParamsJSON{IV: bytecodec.ToHex(ks.IV)},
			KDF:          ks.KDF.Func,
			KDFParams:    rawParams,
			MAC:          bytecodec.ToHex(ks.MAC),
		},
		ID:      ks.ID,
		Version: Version,
	})
}

// UnmarshalJSON validates the whole record before accepting any of it.
func (ks *Keystore) UnmarshalJSON(data []byte) error {
	var rec recordJSON
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if rec.Version != Version {
		return fmt.Errorf("%w: unsupported version %d", ErrMalformedRecord, rec.Version)
	}
	if rec.Crypto.Cipher != CipherName {
		return fmt.Errorf("%w: unsupported cipher %q", ErrMalformedRecord, rec.Crypto.Cipher)
	}
	ciphertext, err := bytecodec.FromHex(rec.Crypto.Ciphertext)
	if err != nil {
		return fmt.Errorf("%w: ciphertext: %v", ErrMalformedRecord, err)
	}
	iv, err := bytecodec.FromHex(rec.Crypto.CipherParams.IV)
	if err != nil {
		return fmt.Errorf("%w: iv: %v", ErrMalformedRecord, err)
	}
	if len(iv) != ivLen {
		return fmt.Errorf("%w: iv must be %d bytes, got %d", ErrMalformedRecord, ivLen, len(iv))
	}
	mac, err := bytecodec.FromHex(rec.Crypto.MAC)
	if err != nil {
		return fmt.Errorf("%w: mac: %v", ErrMalformedRecord, err)
	}
	if len(mac) != derivedKeyLen {
		return fmt.Errorf("%w: mac must be %d bytes, got %d", ErrMalformedRecord, derivedKeyLen, len(mac))
	}
	params, err := parseKDFParams(rec.Crypto.KDF, rec.Crypto.KDFParams)
	if err != nil {
		return err
	}
	ks.ID = rec.ID
	ks.Ciphertext = ciphertext
	ks.IV = iv
	ks.KDF = params
	ks.MAC = mac
	return nil
}

func parseKDFParams(kdf string, raw json.RawMessage) (KDFParams, error) {
	if len(raw) == 0 {
		return KDFParams{}, fmt.Errorf("%w: missing kdfparams", ErrMalformedRecord)
	}
	switch kdf {
	case KDFPbkdf2:
		var p pbkdf2ParamsJSON
		if err := json.Unmarshal(raw, &p); err != nil {
			return KDFParams{}, fmt.Errorf("%w: kdfparams: %v", ErrMalformedRecord, err)
		}
		if p.DKLen != derivedKeyLen {
			return KDFParams{}, fmt.Errorf("%w: dklen must be %d, got %d", ErrMalformedRecord, derivedKeyLen, p.DKLen)
		}
		if p.PRF != pbkdf2PRF {
			return KDFParams{}, fmt.Errorf("%w: unsupported prf %q", ErrMalformedRecord, p.PRF)
		}
		if p.C <= 0 {
			return KDFParams{}, fmt.Errorf("%w: non-positive iteration count %d", ErrMalformedRecord, p.C)
		}
		salt, err := bytecodec.FromHex(p.Salt)
		if err != nil {
			return KDFParams{}, fmt.Errorf("%w: salt: %v", ErrMalformedRecord, err)
		}
		return KDFParams{
			Func:   KDFPbkdf2,
			PBKDF2: &PBKDF2Params{C: p.C, DKLen: p.DKLen, PRF: p.PRF, Salt: salt},
		}, nil
	case KDFScrypt:
		var p scryptParamsJSON
		if err := json.Unmarshal(raw, &p); err != nil {
			return KDFParams{}, fmt.Errorf("%w: kdfparams: %v", ErrMalformedRecord, err)
		}
		if p.DKLen != derivedKeyLen {
			return KDFParams{}, fmt.Errorf("%w: dklen must be %d, got %d", ErrMalformedRecord, derivedKeyLen, p.DKLen)
		}
		if p.N <= 1 {
			return KDFParams{}, fmt.Errorf("%w: invalid scrypt cost factor %d", ErrMalformedRecord, p.N)
		}
		if p.R != scryptR || p.P != scryptP {
			return KDFParams{}, fmt.Errorf("%w: scrypt r/p must be %d/%d, got %d/%d", ErrMalformedRecord, scryptR, scryptP, p.R, p.P)
		}
		salt, err := bytecodec.FromHex(p.Salt)
		if err != nil {
			return KDFParams{}, fmt.Errorf("%w: salt: %v", ErrMalformedRecord, err)
		}
		return KDFParams{
			Func:   KDFScrypt,
			Scrypt: &ScryptParams{N: p.N, R: p.R, P: p.P, DKLen: p.DKLen, Salt: salt},
		}, nil
	default:
		return KDFParams{}, fmt.Errorf("%w: unsupported kdf %q", ErrMalformedRecord, kdf)
	}
}

func splitMaterial(key *DerivedKey) (cipherKey, macKey []byte, err error) {
	if key == nil || len(key.material) != derivedKeyLen {
		return nil, nil, fmt.Errorf("%w: derived key material must be %d bytes", ErrInvalidLength, derivedKeyLen)
	}
	return key.material[:cipherKeyLen], key.material[cipherKeyLen:], nil
}
