package keystore

import (
	"bytes"
	"testing"

	"ether-vault/go-keystore/internal/bytecodec"
)

// Fixed-input regression oracles. The literals pin the exact byte-level
// behavior of the format: PBKDF2-HMAC-SHA256 / scrypt derivation, the 16/16
// derived-key split, AES-128-CTR, and Keccak-256 over macKey ‖ ciphertext.

var (
	vectorPassword   = "testpassword"
	vectorSalt       = make([]byte, 32)
	vectorIV         = make([]byte, 16)
	vectorPrivateKey = mustHex("0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
)

func mustHex(s string) []byte {
	b, err := bytecodec.FromHex(s)
	if err != nil {
		panic(err)
	}
	return b
}

func TestPBKDF2ReferenceVector(t *testing.T) {
	key, err := DerivePBKDF2(vectorPassword, WithIterations(2), WithSalt(vectorSalt), WithIV(vectorIV))
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	wantMaterial := mustHex("d0eeaa7f5099ab896fe30086b8b07af59ae8b91b9b17ae23c8d5e7f28e97878b")
	if !bytes.Equal(key.Material(), wantMaterial) {
		t.Fatalf("derived key mismatch: %x", key.Material())
	}

	ks, err := Encrypt(vectorPrivateKey, key)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	wantCiphertext := mustHex("883d416f00104a06e765bbbff2d9a0d38d932f814af5fff0a0874a13ac900b")
	wantMAC := mustHex("28c863f9bf79508d5e4b58481b4712344e0186a08076e019e69e29640088fd58")
	if !bytes.Equal(ks.Ciphertext, wantCiphertext) {
		t.Fatalf("ciphertext mismatch: %x", ks.Ciphertext)
	}
	if !bytes.Equal(ks.MAC, wantMAC) {
		t.Fatalf("mac mismatch: %x", ks.MAC)
	}

	plaintext, err := Decrypt(ks, key)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if !bytes.Equal(plaintext, vectorPrivateKey) {
		t.Fatalf("plaintext mismatch: %x", plaintext)
	}
}

func TestScryptReferenceVector(t *testing.T) {
	key, err := DeriveScrypt(vectorPassword, WithCostFactor(8), WithSalt(vectorSalt), WithIV(vectorIV))
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	wantMaterial := mustHex("93186a0c550618a295689cfec5f3e65fb4b20add237ab0522c7b3271d0685871")
	if !bytes.Equal(key.Material(), wantMaterial) {
		t.Fatalf("derived key mismatch: %x", key.Material())
	}

	ks, err := Encrypt(vectorPrivateKey, key)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	wantCiphertext := mustHex("5c5ffbd65f1895994d57bcd2017df06303df26cdbc2e4f608d17aa326549c3")
	wantMAC := mustHex("51284c126e39bf7f2cd5be5ad166896e09b854d13ae4271da8e2e434ddf740ba")
	if !bytes.Equal(ks.Ciphertext, wantCiphertext) {
		t.Fatalf("ciphertext mismatch: %x", ks.Ciphertext)
	}
	if !bytes.Equal(ks.MAC, wantMAC) {
		t.Fatalf("mac mismatch: %x", ks.MAC)
	}

	plaintext, err := Decrypt(ks, key)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if !bytes.Equal(plaintext, vectorPrivateKey) {
		t.Fatalf("plaintext mismatch: %x", plaintext)
	}
}

func TestEncryptRandomizedDefaultsDiffer(t *testing.T) {
	first, err := DerivePBKDF2(vectorPassword, WithIterations(2))
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	second, err := DerivePBKDF2(vectorPassword, WithIterations(2))
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	a, err := Encrypt(vectorPrivateKey, first)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	b, err := Encrypt(vectorPrivateKey, second)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if bytes.Equal(a.Ciphertext, b.Ciphertext) {
		t.Fatalf("default-parameter encryptions produced identical ciphertext")
	}
	if bytes.Equal(a.MAC, b.MAC) {
		t.Fatalf("default-parameter encryptions produced identical mac")
	}
}
