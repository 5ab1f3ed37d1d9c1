// Package mnemonic generates private keys from bip39 recovery phrases, so a
// keystore owner can restore the same key from words alone.
package mnemonic

import (
	"crypto/sha256"
	"errors"
	"io"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/hkdf"
)

const hkdfInfoPrivateKey = "ether-vault/private-key/v1"

var (
	ErrInvalidMnemonic  = errors.New("invalid mnemonic")
	ErrMnemonicRequired = errors.New("mnemonic is required")
)

// NewPrivateKey draws 256 bits of entropy, returns the recovery phrase and
// the 32-byte private key derived from it. The same phrase always restores
// the same key.
func NewPrivateKey() (mnemonic string, privateKey []byte, err error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", nil, err
	}
	mnemonic, err = bip39.NewMnemonic(entropy)
	if err != nil {
		return "", nil, err
	}
	privateKey, err = PrivateKeyFromMnemonic(mnemonic)
	if err != nil {
		return "", nil, err
	}
	return mnemonic, privateKey, nil
}

// PrivateKeyFromMnemonic re-derives the 32-byte private key for a phrase.
func PrivateKeyFromMnemonic(mnemonic string) ([]byte, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if mnemonic == "" {
		return nil, ErrMnemonicRequired
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(mnemonic, "")
	reader := hkdf.New(sha256.New, seed, nil, []byte(hkdfInfoPrivateKey))
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Validate reports whether a phrase is a well-formed bip39 mnemonic.
func Validate(mnemonic string) bool {
	return bip39.IsMnemonicValid(strings.TrimSpace(mnemonic))
}
