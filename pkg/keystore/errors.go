package keystore

import "errors"

var (
	// ErrCorruptKeystore is returned when MAC verification fails during
	// decryption. The ciphertext or mac was tampered with, truncated, or the
	// supplied key was derived from the wrong password or parameters.
	ErrCorruptKeystore = errors.New("corrupt keystore: mac verification failed")

	// ErrMalformedRecord is returned when a keystore record fails structural
	// validation: missing field, non-hex value, wrong length, or an
	// unsupported version/cipher/kdf tag. No partial decoding is performed.
	ErrMalformedRecord = errors.New("malformed keystore record")

	// ErrInvalidLength is returned when a byte argument does not meet its
	// fixed length requirement. Inputs are never truncated or padded.
	ErrInvalidLength = errors.New("invalid input length")
)
