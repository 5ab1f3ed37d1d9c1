package keystore

import (
	"bytes"
	"errors"
	"testing"
)

func TestAES128CTRSelfInverse(t *testing.T) {
	key := bytes.Repeat([]byte{0x0f}, 16)
	iv := bytes.Repeat([]byte{0xf0}, 16)
	plaintext := []byte("stream ciphers preserve length, whatever the input size is")

	ciphertext, err := aes128CTR(key, iv, plaintext)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if len(ciphertext) != len(plaintext) {
		t.Fatalf("ctr must preserve length: %d != %d", len(ciphertext), len(plaintext))
	}
	if bytes.Equal(ciphertext, plaintext) {
		t.Fatalf("ciphertext equals plaintext")
	}
	roundTrip, err := aes128CTR(key, iv, ciphertext)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if !bytes.Equal(roundTrip, plaintext) {
		t.Fatalf("round trip mismatch: %x", roundTrip)
	}
}

func TestAES128CTREmptyInput(t *testing.T) {
	out, err := aes128CTR(make([]byte, 16), make([]byte, 16), nil)
	if err != nil {
		t.Fatalf("empty input failed: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %d bytes", len(out))
	}
}

func TestAES128CTRRejectsBadLengths(t *testing.T) {
	cases := []struct {
		name string
		key  []byte
		iv   []byte
	}{
		{"short key", make([]byte, 15), make([]byte, 16)},
		{"long key", make([]byte, 32), make([]byte, 16)},
		{"short iv", make([]byte, 16), make([]byte, 8)},
		{"long iv", make([]byte, 16), make([]byte, 17)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := aes128CTR(tc.key, tc.iv, []byte("data"))
			if !errors.Is(err, ErrInvalidLength) {
				t.Fatalf("expected ErrInvalidLength, got %v", err)
			}
		})
	}
}
