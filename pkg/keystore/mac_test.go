package keystore

import (
	"bytes"
	"testing"

	"ether-vault/go-keystore/internal/bytecodec"
)

func TestKeccak256KnownDigests(t *testing.T) {
	cases := []struct {
		macKey     []byte
		ciphertext []byte
		want       string
	}{
		{nil, nil, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{nil, []byte("abc"), "4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45"},
		{bytes.Repeat([]byte{0x11}, 16), []byte("hello"), "1df853156ef21b37a19966a5beeeaee03ab58e839e15ccefcf71a4eadea5d404"},
	}
	for _, tc := range cases {
		got := computeMAC(tc.macKey, tc.ciphertext)
		if bytecodec.ToHex(got) != tc.want {
			t.Fatalf("mac mismatch: got %x, want %s", got, tc.want)
		}
	}
}

func TestMACKeyOrderMatters(t *testing.T) {
	macKey := bytes.Repeat([]byte{0x22}, 16)
	ciphertext := []byte("payload")
	forward := computeMAC(macKey, ciphertext)
	reversed := computeMAC(ciphertext, macKey)
	if bytes.Equal(forward, reversed) {
		t.Fatalf("mac must depend on concatenation order")
	}
}

func TestVerifyMAC(t *testing.T) {
	macKey := bytes.Repeat([]byte{0x33}, 16)
	ciphertext := []byte("payload")
	mac := computeMAC(macKey, ciphertext)

	if !verifyMAC(macKey, ciphertext, mac) {
		t.Fatalf("valid mac rejected")
	}
	tampered := append([]byte(nil), mac...)
	tampered[0] ^= 0x01
	if verifyMAC(macKey, ciphertext, tampered) {
		t.Fatalf("tampered mac accepted")
	}
	if verifyMAC(macKey, ciphertext, mac[:31]) {
		t.Fatalf("truncated mac accepted")
	}
}
