package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// aes128CTR applies AES-128 in counter mode. CTR is a synchronous stream
// cipher and self-inverse, so the same transform serves encrypt and decrypt;
// output length always equals input length. Authentication is not this
// layer's job; the MAC gates decryption above.
func aes128CTR(key, iv, in []byte) ([]byte, error) {
	if len(key) != cipherKeyLen {
		return nil, fmt.Errorf("%w: cipher key must be %d bytes, got %d", ErrInvalidLength, cipherKeyLen, len(key))
	}
	if len(iv) != ivLen {
		return nil, fmt.Errorf("%w: iv must be %d bytes, got %d", ErrInvalidLength, ivLen, len(iv))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	out := make([]byte, len(in))
	cipher.NewCTR(block, iv).XORKeyStream(out, in)
	return out, nil
}
